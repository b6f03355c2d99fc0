package deskboot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Layout holds every persisted path the state machine branches on.
// All paths are absolute. Exactly one Install Root exists per user per
// application; it is created by the First-Run phase and never deleted here.
type Layout struct {
	// AppName is the application identifier, used for directory and
	// artifact names.
	AppName string

	// InstallRoot is the permanent per-user directory owning all state.
	InstallRoot string

	// EnvRoot is the isolated interpreter environment directory inside
	// InstallRoot. Its existence alone signals that provisioning ran.
	EnvRoot string

	// ScriptPath is the canonical copy of the bootstrap binary inside
	// InstallRoot. Only this copy ever runs the Build and Run phases.
	ScriptPath string

	// StatePath is the msgpack-encoded state record, written by atomic
	// rename. It is the authoritative build marker.
	StatePath string

	// SentinelPath is the legacy zero-byte "built" sentinel, kept for
	// installs created before the state record existed.
	SentinelPath string

	// VersionPath is the single-line application version file.
	VersionPath string

	// LockPath is the advisory lock file serializing First-Run and Build
	// across concurrent invocations.
	LockPath string

	// PayloadDir is the application payload directory populated by the
	// external updater collaborator.
	PayloadDir string

	// EntryPath is the application entry file that must exist after the
	// updater has run.
	EntryPath string

	// ArtifactPath is the permanent path of the built standalone
	// application (binary, .exe, or .app bundle).
	ArtifactPath string

	// SnapshotDir receives snapshots produced by the snapshot collaborator.
	SnapshotDir string
}

// DefaultLayout computes the canonical layout for a platform and app name.
func DefaultLayout(platform Platform, appName string) (Layout, error) {
	if appName == "" {
		return Layout{}, fmt.Errorf("empty app name")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Layout{}, fmt.Errorf("cannot determine home directory: %w", err)
	}

	var root string
	switch platform {
	case PlatformLinux:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			root = filepath.Join(xdg, appName)
		} else {
			root = filepath.Join(home, ".local", "share", appName)
		}
	case PlatformMac:
		root = filepath.Join(home, "Library", "Application Support", appName)
	case PlatformWindows:
		appdata := os.Getenv("APPDATA")
		if appdata == "" {
			appdata = filepath.Join(home, "AppData", "Roaming")
		}
		root = filepath.Join(appdata, appName)
	default:
		return Layout{}, fmt.Errorf("no install root for platform %s", platform)
	}

	var artifact string
	switch platform {
	case PlatformLinux:
		artifact = filepath.Join(home, ".local", "bin", appName)
	case PlatformMac:
		artifact = filepath.Join(home, "Applications", appName+".app")
	case PlatformWindows:
		artifact = filepath.Join(root, appName+".exe")
	}

	return LayoutAt(platform, appName, root, artifact), nil
}

// LayoutAt computes a layout rooted at an explicit Install Root.
// Used by DefaultLayout and by tests and the --root driver flag.
func LayoutAt(platform Platform, appName, root, artifact string) Layout {
	script := filepath.Join(root, appName)
	if platform == PlatformWindows {
		script += ".exe"
	}
	return Layout{
		AppName:      appName,
		InstallRoot:  root,
		EnvRoot:      filepath.Join(root, "venv"),
		ScriptPath:   script,
		StatePath:    filepath.Join(root, "state.bin"),
		SentinelPath: filepath.Join(root, "built"),
		VersionPath:  filepath.Join(root, "version.txt"),
		LockPath:     filepath.Join(root, ".lock"),
		PayloadDir:   filepath.Join(root, "app"),
		EntryPath:    filepath.Join(root, "app", "launch.py"),
		ArtifactPath: artifact,
		SnapshotDir:  filepath.Join(root, "_snapshots"),
	}
}

// IsTransientOrigin reports whether an executable path indicates a
// pipe-like invocation (no reviewable file on disk). The bootstrap must
// never self-install from such an origin.
func IsTransientOrigin(path string) bool {
	if path == "" {
		return true
	}
	if strings.HasPrefix(path, "/dev/fd/") || strings.HasPrefix(path, "/dev/stdin") {
		return true
	}
	if strings.HasPrefix(path, "/proc/") && strings.Contains(path, "/fd/") {
		return true
	}
	// A deleted backing file (curl | sh style self-extraction) shows up as
	// a path that no longer stats.
	if _, err := os.Stat(path); err != nil {
		return true
	}
	return false
}

// samePath reports whether two paths refer to the same directory after
// symlink resolution. Resolution failures fall back to lexical comparison.
func samePath(a, b string) bool {
	ra, errA := filepath.EvalSymlinks(a)
	rb, errB := filepath.EvalSymlinks(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return filepath.Clean(ra) == filepath.Clean(rb)
}
