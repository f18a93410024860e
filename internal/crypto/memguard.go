//go:build linux || darwin

package crypto

import "golang.org/x/sys/unix"

// Keep derived keys out of swap on platforms that support it.
func lockMemory(b []byte) error   { return unix.Mlock(b) }
func unlockMemory(b []byte) error { return unix.Munlock(b) }
