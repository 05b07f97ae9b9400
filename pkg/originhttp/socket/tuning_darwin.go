//go:build darwin

package socket

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func applyReuseAddr(fd uintptr) error {
	return unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
}

// darwin lacks TCP_KEEPIDLE/TCP_KEEPINTVL/TCP_KEEPCNT under those exact
// names; TCP_KEEPALIVE plays the role of TCP_KEEPIDLE, and interval/count
// have no portable setsockopt equivalent on this platform.
func applyKeepAliveTuning(raw syscall.RawConn, cfg Config) error {
	if !cfg.KeepAlive {
		return nil
	}
	var sockErr error
	err := raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPALIVE, int(cfg.KeepIdle.Seconds()))
	})
	if err != nil {
		return err
	}
	return sockErr
}
