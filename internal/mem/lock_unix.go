//go:build linux || darwin

package mem

import "golang.org/x/sys/unix"

// Lock best-effort pins buf's pages so they cannot be swapped out until
// Unlock. It returns the mlock error, if any.
func Lock(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	return unix.Mlock(buf)
}

// Unlock reverses a prior Lock.
func Unlock(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	return unix.Munlock(buf)
}
