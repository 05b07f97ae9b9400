// Package socket owns the listening TCP accept file descriptor: binding
// and the keep-alive/TCP_NODELAY/SO_LINGER/SO_REUSEADDR tuning spec.md's
// listening-socket component requires. Bind/listen failure is fatal —
// Listen returns a plain error and the caller is expected to treat it as
// such.
package socket

import (
	"context"
	"fmt"
	"net"
	"syscall"
	"time"
)

// Config carries the listening-socket tuning knobs, sourced from
// server.http.* configuration keys.
type Config struct {
	IPAddress string
	Port      uint16
	// Backlog is carried through for logging; Go's net package picks the
	// kernel's default backlog (SOMAXCONN) internally and does not expose
	// a portable knob to override it without replacing net.Listen with a
	// raw socket()/bind()/listen() sequence, which this tree does not do.
	Backlog uint32

	KeepAlive    bool
	KeepIdle     time.Duration
	KeepInterval time.Duration
	KeepCount    int
	Linger       time.Duration
}

// DefaultConfig mirrors the values spec.md names explicitly: keep-alive
// on, TCP_NODELAY on, SO_REUSEADDR on, a 15-second linger.
func DefaultConfig(ip string, port uint16, backlog uint32) Config {
	return Config{
		IPAddress:    ip,
		Port:         port,
		Backlog:      backlog,
		KeepAlive:    true,
		KeepIdle:     60 * time.Second,
		KeepInterval: 10 * time.Second,
		KeepCount:    3,
		Linger:       15 * time.Second,
	}
}

// Listen opens the listening socket with every option spec.md §4.1 names
// applied: SO_REUSEADDR at bind time, and SO_KEEPALIVE, TCP_KEEPIDLE/
// INTVL/CNT, TCP_NODELAY, SO_LINGER(15s) on every accepted connection.
func Listen(cfg Config) (net.Listener, error) {
	addr := fmt.Sprintf("%s:%d", cfg.IPAddress, cfg.Port)

	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var ctrlErr error
			err := c.Control(func(fd uintptr) {
				ctrlErr = applyReuseAddr(fd)
			})
			if err != nil {
				return err
			}
			return ctrlErr
		},
	}

	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("socket: listen on %s: %w", addr, err)
	}
	return &tunedListener{Listener: ln, cfg: cfg}, nil
}

// tunedListener wraps a net.Listener so every Accept()-ed connection gets
// the per-connection tuning that net.TCPConn's own setters only partially
// expose (TCP_KEEPIDLE/INTVL/CNT individually, rather than just a single
// keep-alive period).
type tunedListener struct {
	net.Listener
	cfg Config
}

func (l *tunedListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return conn, nil
	}
	if err := tuneConnection(tcpConn, l.cfg); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("socket: tuning accepted connection: %w", err)
	}
	return tcpConn, nil
}

func tuneConnection(conn *net.TCPConn, cfg Config) error {
	if err := conn.SetNoDelay(true); err != nil {
		return err
	}
	if cfg.KeepAlive {
		if err := conn.SetKeepAlive(true); err != nil {
			return err
		}
		if err := conn.SetKeepAlivePeriod(cfg.KeepIdle); err != nil {
			return err
		}
	}
	if err := conn.SetLinger(int(cfg.Linger / time.Second)); err != nil {
		return err
	}
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	return applyKeepAliveTuning(raw, cfg)
}
