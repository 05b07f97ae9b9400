// Command originhttpd is the origin HTTP server's entrypoint: load
// configuration, build the ambient and domain stacks, register the
// example route lanes, and serve until SIGINT or SIGTERM.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourusername/originhttp/internal/app"
	"github.com/yourusername/originhttp/pkg/originhttp/conn"
	"github.com/yourusername/originhttp/pkg/originhttp/config"
	"github.com/yourusername/originhttp/pkg/originhttp/executor"
	"github.com/yourusername/originhttp/pkg/originhttp/logging"
	"github.com/yourusername/originhttp/pkg/originhttp/portal"
	"github.com/yourusername/originhttp/pkg/originhttp/reactor"
	"github.com/yourusername/originhttp/pkg/originhttp/router"
	"github.com/yourusername/originhttp/pkg/originhttp/server"
	"github.com/yourusername/originhttp/pkg/originhttp/socket"
	"github.com/yourusername/originhttp/pkg/originhttp/stats"
)

// Exit codes match the process lifecycle's documented taxonomy: clean
// shutdown, a leak detected at teardown, and a recovered panic.
const (
	exitOK       = 0
	exitLeak     = 1
	exitPanic    = 254
	exitOOM      = 255
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintln(os.Stderr, "originhttpd: panic:", r)
			code = exitPanic
		}
	}()

	configPath := flag.String("config", "originhttpd.toml", "path to the TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "originhttpd:", err)
		return exitPanic
	}

	log, err := logging.New(&cfg.Preset)
	if err != nil {
		fmt.Fprintln(os.Stderr, "originhttpd:", err)
		return exitPanic
	}

	alloc := portal.NewAllocator(cfg.Preset.Allocator, cfg.Preset.AllocatorDebugLeakCheck, log)
	if err := alloc.Init(); err != nil {
		log.WithError(err).Error("allocator init failed")
		return exitPanic
	}

	tmpl, err := portal.NewTemplateEngine(cfg.Preset.PageDir, cfg.Preset.PageLimit)
	if err != nil {
		log.WithError(err).Error("template engine init failed")
		return exitPanic
	}

	st := stats.New()
	p := portal.New(alloc, tmpl, st)

	table, err := router.Build(app.Lanes())
	if err != nil {
		log.WithError(err).Error("route table verification failed")
		return exitPanic
	}

	react := reactor.New()
	go react.Run()
	pool := executor.Init()

	sockCfg := socket.DefaultConfig(cfg.Server.HTTP.IPAddress, cfg.Server.HTTP.Port, cfg.Server.HTTP.Backlog)
	sockCfg.KeepIdle = cfg.KeepAliveDuration()

	connCfg := conn.Settings{
		IdleTimeout:      cfg.KeepAliveDuration(),
		ReadHeadTimeout:  cfg.ReadHeadTimeoutDuration(),
		ReuseConnections: cfg.Server.HTTP.ReuseConnections,
	}

	srv, err := server.Open(sockCfg, react, pool, table, p, log, connCfg, st)
	if err != nil {
		log.WithError(err).Error("listen failed")
		return exitPanic
	}
	log.WithField("addr", srv.Addr().String()).Info("listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serveDone := make(chan struct{})
	go func() {
		srv.Serve()
		close(serveDone)
	}()

	sig := <-sigCh
	log.WithField("signal", sig.String()).Info("unbinding")
	srv.Unbind()
	<-serveDone
	srv.Drain(10*time.Second, sig.String())

	react.Stop()

	leaked := alloc.Deinit()
	if f, ok := log.Out.(*os.File); ok && f != os.Stdout {
		_ = f.Close()
	}
	if leaked {
		return exitLeak
	}
	return exitOK
}
