//go:build unix

package inventory

import "golang.org/x/sys/unix"

// checkReadable reports whether the current user may list and traverse dir.
// The returned errno matches fs.ErrPermission or fs.ErrNotExist via errors.Is.
func checkReadable(dir string) error {
	return unix.Access(dir, unix.R_OK|unix.X_OK)
}
