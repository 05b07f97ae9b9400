//go:build !linux && !darwin

package socket

import "syscall"

// Other platforms (e.g. Windows, BSDs not otherwise handled) get the
// generic net.TCPConn-level tuning already applied in tuneConnection and
// no extra per-platform setsockopt calls.
func applyReuseAddr(fd uintptr) error {
	return nil
}

func applyKeepAliveTuning(raw syscall.RawConn, cfg Config) error {
	return nil
}
