//go:build windows
// +build windows

package deskboot

import (
	"os"
	"os/exec"
)

// replaceProcess emulates execve on Windows: spawn the target with
// inherited standard streams, wait, and exit with its code. A wrapper
// process remains alive for the child's lifetime; that is unavoidable
// without execve.
func replaceProcess(path string, argv []string, env []string) error {
	cmd := exec.Command(path, argv[1:]...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		return err
	}
	os.Exit(0)
	return nil
}
