package deskboot

import (
	"fmt"
	"os"
)

// InstallLock is a cross-process advisory lock scoped to the Install Root.
// It serializes the First-Run and Build phases across concurrent
// invocations (e.g., a user double-clicking twice); the Run phase is
// read-only over the markers and does not take it.
type InstallLock struct {
	f *os.File
}

// AcquireInstallLock takes an exclusive advisory lock on path, blocking
// until the lock is available. The lock file is created if absent and is
// left in place on release; only the lock itself is dropped.
func AcquireInstallLock(path string) (*InstallLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquiring install lock: %w", err)
	}
	return &InstallLock{f: f}, nil
}

// Release drops the lock. Safe to call once; the process exiting also
// releases it, which is what makes a killed Build safe to retry.
func (l *InstallLock) Release() error {
	if l.f == nil {
		return nil
	}
	err := unlockFile(l.f)
	closeErr := l.f.Close()
	l.f = nil
	if err != nil {
		return err
	}
	return closeErr
}
