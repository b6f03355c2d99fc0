package deskboot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// RunUpdater executes the external updater collaborator with the
// environment's interpreter and no arguments, working directory Install
// Root. Its expected side effect is a populated application payload
// directory; its protocol is otherwise opaque to the bootstrap.
func RunUpdater(ctx context.Context, env *Environment, layout Layout, manifest Manifest, logger *slog.Logger) error {
	script := filepath.Join(layout.InstallRoot, manifest.UpdaterScript)
	if _, err := os.Stat(script); err != nil {
		return fmt.Errorf("updater script %s not available: %w", manifest.UpdaterScript, err)
	}
	logger.Info("running updater", "script", manifest.UpdaterScript)
	if err := env.RunPythonScript(ctx, layout.InstallRoot, script); err != nil {
		return fmt.Errorf("updater failed: %w", err)
	}
	return nil
}

// RunSnapshooter executes the snapshot collaborator with the current
// application version (default "0.0.0" when the version file is absent)
// as its single argument. Snapshots land in layout.SnapshotDir by the
// collaborator's own convention.
func RunSnapshooter(ctx context.Context, env *Environment, layout Layout, manifest Manifest, logger *slog.Logger) error {
	script := filepath.Join(layout.InstallRoot, manifest.SnapshooterScript)
	if _, err := os.Stat(script); err != nil {
		return fmt.Errorf("snapshooter script %s not available: %w", manifest.SnapshooterScript, err)
	}
	version := ReadVersionFile(layout.VersionPath)
	logger.Info("running snapshooter", "script", manifest.SnapshooterScript, "version", version)
	if err := env.RunPythonScript(ctx, layout.InstallRoot, script, version); err != nil {
		return fmt.Errorf("snapshooter failed: %w", err)
	}
	return nil
}
