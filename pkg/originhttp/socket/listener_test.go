package socket

import (
	"testing"
	"time"
)

func TestDefaultConfigMatchesSpecifiedDefaults(t *testing.T) {
	cfg := DefaultConfig("127.0.0.1", 8080, 128)
	if !cfg.KeepAlive {
		t.Fatal("KeepAlive should default to true")
	}
	if cfg.Linger != 15*time.Second {
		t.Fatalf("Linger = %v, want 15s", cfg.Linger)
	}
	if cfg.Port != 8080 || cfg.Backlog != 128 {
		t.Fatalf("unexpected port/backlog: %d/%d", cfg.Port, cfg.Backlog)
	}
}

func TestListenReportsLocalAddress(t *testing.T) {
	cfg := DefaultConfig("127.0.0.1", 0, 16)
	ln, err := Listen(cfg)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	if ln.Addr() == nil {
		t.Fatal("listener has no local address")
	}
}
