//go:build !windows
// +build !windows

package deskboot

import "golang.org/x/sys/unix"

// replaceProcess performs the execve. It only returns on failure.
func replaceProcess(path string, argv []string, env []string) error {
	return unix.Exec(path, argv, env)
}
