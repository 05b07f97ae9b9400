// Package config decodes the TOML configuration file into the key table
// the core consumes (spec §6), plus three keys this tree adds: a
// read-head timeout, an allocator leak-check toggle, and a
// connection-reuse switch.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// LogLevel is one of the five levels preset.log_levels may enable.
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
	LevelFatal LogLevel = "FATAL"
)

func (l LogLevel) valid() bool {
	switch l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal:
		return true
	default:
		return false
	}
}

// Preset mirrors the preset.* key group.
type Preset struct {
	Debug     bool     `toml:"debug"`
	Allocator int      `toml:"allocator"`
	LogFile   string   `toml:"log_file"`
	LogLevels []string `toml:"log_levels"`
	PageDir   string   `toml:"page_dir"`
	PageLimit int      `toml:"page_limit"`

	AllocatorDebugLeakCheck bool `toml:"allocator_debug_leak_check"`
}

// ServerHTTP mirrors the server.http.* key group.
type ServerHTTP struct {
	IPAddress string `toml:"ip_address"`
	Port      uint16 `toml:"port"`
	Backlog   uint32 `toml:"backlog"`
	KeepAlive int64  `toml:"keepalive"`

	ReadHeadTimeoutSeconds int64 `toml:"read_head_timeout"`
	ReuseConnections       bool  `toml:"reuse_connections"`
}

// Server mirrors the server.* group (currently only the http sub-table).
type Server struct {
	HTTP ServerHTTP `toml:"http"`
}

// Config is the full decoded configuration file.
type Config struct {
	Preset Preset `toml:"preset"`
	Server Server `toml:"server"`
}

// Load reads and decodes path, then validates required keys. A missing
// required key or an unrecognized log_levels entry is Fatal per the
// error taxonomy.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) validate() error {
	if c.Server.HTTP.IPAddress == "" {
		return fmt.Errorf("config: server.http.ip_address is required")
	}
	if c.Server.HTTP.Port == 0 {
		return fmt.Errorf("config: server.http.port is required")
	}
	if c.Server.HTTP.Backlog == 0 {
		return fmt.Errorf("config: server.http.backlog is required")
	}
	for _, lvl := range c.Preset.LogLevels {
		if !LogLevel(lvl).valid() {
			return fmt.Errorf("config: unrecognized preset.log_levels entry %q", lvl)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.HTTP.ReadHeadTimeoutSeconds == 0 {
		c.Server.HTTP.ReadHeadTimeoutSeconds = c.Server.HTTP.KeepAlive
	}
}

// KeepAliveDuration returns server.http.keepalive as a time.Duration.
func (c *Config) KeepAliveDuration() time.Duration {
	return time.Duration(c.Server.HTTP.KeepAlive) * time.Second
}

// ReadHeadTimeoutDuration returns the supplemented read_head_timeout key
// as a time.Duration.
func (c *Config) ReadHeadTimeoutDuration() time.Duration {
	return time.Duration(c.Server.HTTP.ReadHeadTimeoutSeconds) * time.Second
}
