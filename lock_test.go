package deskboot

import (
	"path/filepath"
	"testing"
)

func TestInstallLockAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")

	l, err := AcquireInstallLock(path)
	if err != nil {
		t.Fatalf("AcquireInstallLock: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	// The lock is free again.
	l2, err := AcquireInstallLock(path)
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	if err := l2.Release(); err != nil {
		t.Fatalf("second release: %v", err)
	}
}

func TestInstallLockDoubleRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")
	l, err := AcquireInstallLock(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Release(); err != nil {
		t.Fatal(err)
	}
	if err := l.Release(); err != nil {
		t.Errorf("second Release should be a no-op, got %v", err)
	}
}
