package deskboot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// desktopEntryContent renders the freedesktop .desktop file for the
// installed artifact.
func desktopEntryContent(appName, artifactPath string) string {
	return fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%s
Exec=%s
Terminal=false
Categories=Utility;
`, appName, artifactPath)
}

// RegisterLaunchMetadata records the platform launch metadata for the
// installed artifact: a .desktop entry on Linux, a Start Menu shortcut on
// Windows. On macOS the .app bundle in ~/Applications is itself the
// metadata, so there is nothing to do.
func RegisterLaunchMetadata(platform Platform, layout Layout, logger *slog.Logger) error {
	switch platform {
	case PlatformLinux:
		return writeDesktopEntry(layout, logger)
	case PlatformWindows:
		return writeStartMenuShortcut(layout, logger)
	default:
		return nil
	}
}

// writeDesktopEntry installs the .desktop file under the user's
// applications directory.
func writeDesktopEntry(layout Layout, logger *slog.Logger) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	appsDir := filepath.Join(home, ".local", "share", "applications")
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		appsDir = filepath.Join(xdg, "applications")
	}
	if err := os.MkdirAll(appsDir, 0755); err != nil {
		return err
	}
	dest := filepath.Join(appsDir, layout.AppName+".desktop")
	content := desktopEntryContent(layout.AppName, layout.ArtifactPath)
	if err := os.WriteFile(dest, []byte(content), 0644); err != nil {
		return err
	}
	logger.Debug("wrote desktop entry", "path", dest)
	return nil
}

// writeStartMenuShortcut creates a Start Menu .lnk through the WScript
// shell; there is no file format to write directly.
func writeStartMenuShortcut(layout Layout, logger *slog.Logger) error {
	appdata := os.Getenv("APPDATA")
	if appdata == "" {
		return fmt.Errorf("APPDATA not set")
	}
	lnk := filepath.Join(appdata, "Microsoft", "Windows", "Start Menu", "Programs", layout.AppName+".lnk")
	script := fmt.Sprintf(
		`$ws = New-Object -ComObject WScript.Shell; $s = $ws.CreateShortcut('%s'); $s.TargetPath = '%s'; $s.WorkingDirectory = '%s'; $s.Save()`,
		lnk, layout.ArtifactPath, layout.InstallRoot)
	if err := runSilent(context.Background(), "powershell", "-NoProfile", "-NonInteractive", "-Command", script); err != nil {
		return fmt.Errorf("creating Start Menu shortcut: %w", err)
	}
	logger.Debug("wrote Start Menu shortcut", "path", lnk)
	return nil
}
