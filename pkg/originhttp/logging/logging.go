// Package logging builds the server's *logrus.Logger from preset.* config
// keys. Loggers are initialized before any I/O begins and destroyed after
// the reactor loop exits, per the concurrency model's lifecycle note.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	kpgzip "github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/originhttp/pkg/originhttp/config"
)

// New builds a logger from cfg.Preset. If log_file is set, output goes
// to that file (with gzip-rotated history); otherwise it goes to the
// console. preset.debug forces DebugLevel regardless of log_levels.
func New(cfg *config.Preset) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})

	level, err := highestLevel(cfg.LogLevels, cfg.Debug)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)

	if cfg.LogFile != "" {
		f, err := openRotated(cfg.LogFile)
		if err != nil {
			return nil, fmt.Errorf("logging: opening %s: %w", cfg.LogFile, err)
		}
		log.SetOutput(f)
	} else {
		log.SetOutput(os.Stdout)
	}

	return log, nil
}

func highestLevel(levels []string, debug bool) (logrus.Level, error) {
	if debug {
		return logrus.DebugLevel, nil
	}
	best := logrus.ErrorLevel
	found := false
	for _, l := range levels {
		lvl, err := logrus.ParseLevel(l)
		if err != nil {
			return 0, fmt.Errorf("logging: unrecognized level %q: %w", l, err)
		}
		if lvl > best {
			best = lvl
		}
		found = true
	}
	if !found {
		return logrus.InfoLevel, nil
	}
	return best, nil
}

// openRotated opens path for writing (truncated), gzip-compressing any
// pre-existing non-empty file at that path into
// path+"."+<UTC timestamp>+".gz" first. This is a coarse,
// startup-time rotation rather than a size/time-triggered one — the
// ambient logging concern here is "don't silently overwrite the previous
// run's log," not full log-rotation policy.
func openRotated(path string) (io.Writer, error) {
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		if err := compressExisting(path); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
}

func compressExisting(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path + "." + time.Now().UTC().Format("20060102T150405") + ".gz")
	if err != nil {
		return err
	}
	defer dst.Close()

	gw, err := kpgzip.NewWriterLevel(dst, kpgzip.BestSpeed)
	if err != nil {
		return err
	}
	defer gw.Close()

	_, err = io.Copy(gw, src)
	return err
}
