//go:build linux

package socket

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func applyReuseAddr(fd uintptr) error {
	return unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
}

func applyKeepAliveTuning(raw syscall.RawConn, cfg Config) error {
	if !cfg.KeepAlive {
		return nil
	}
	var sockErr error
	err := raw.Control(func(fd uintptr) {
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, int(cfg.KeepIdle.Seconds())); e != nil {
			sockErr = e
			return
		}
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, int(cfg.KeepInterval.Seconds())); e != nil {
			sockErr = e
			return
		}
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPCNT, cfg.KeepCount); e != nil {
			sockErr = e
			return
		}
	})
	if err != nil {
		return err
	}
	return sockErr
}
