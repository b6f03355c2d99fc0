package deskboot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// linuxNativePackages are the OS-level libraries required by the GUI
// toolkit binding and by the PyInstaller build step.
var linuxNativePackages = []string{
	"python3-pyqt5",
	"python3-pyqt5.qtsvg",
	"python3-sip",
	"python3-tk",
	"libxcb-xinerama0",
	"binutils",
}

// qtProbeScript verifies the toolkit binding is importable inside the
// environment and that the linked Qt is the required major version.
const qtProbeScript = `import sys
from PyQt5.QtCore import QT_VERSION_STR
sys.exit(0 if QT_VERSION_STR.startswith("5.") else 1)
`

// EnsureNative satisfies OS-level prerequisites for the platform.
//
// Only Linux has work to do: the PyQt5 binding there is not reliably
// pip-installable, so the distro packages are installed (idempotently) and
// the system-installed toolkit modules are symlinked into the
// environment's site-packages, then verified with an import probe.
// Other platforms are a no-op.
func EnsureNative(ctx context.Context, platform Platform, env *Environment, logger *slog.Logger) error {
	if platform != PlatformLinux {
		return nil
	}

	if err := aptInstall(ctx, linuxNativePackages); err != nil {
		logger.Warn("apt install failed, trying sudo", "error", err)
		if err := runSilent(ctx, "sudo", append([]string{"-n", "apt-get", "install", "-y"}, linuxNativePackages...)...); err != nil {
			return fmt.Errorf("failed to install native prerequisites: %w", err)
		}
	}

	if err := linkSystemQt(env, logger); err != nil {
		return err
	}

	if err := env.RunPythonSilent(ctx, "-c", qtProbeScript); err != nil {
		return fmt.Errorf("PyQt5 probe failed inside environment: %v; "+
			"install python3-pyqt5 via your package manager and run again", err)
	}
	return nil
}

// systemSitePackageDirs are the distro locations searched for the toolkit
// modules to link into the environment.
var systemSitePackageDirs = []string{
	"/usr/lib/python3/dist-packages",
	"/usr/lib64/python3/site-packages",
}

// qtModuleNames are the module directories/files linked from the system
// site-packages into the environment's.
var qtModuleNames = []string{"PyQt5", "sip", "sipconfig.py"}

// linkSystemQt symlinks the system toolkit modules into the environment's
// site-packages. Existing links or copies are left alone.
func linkSystemQt(env *Environment, logger *slog.Logger) error {
	if env.SitePackagesPath == "" {
		return fmt.Errorf("environment has no site-packages directory")
	}
	linked := false
	for _, dir := range systemSitePackageDirs {
		for _, name := range qtModuleNames {
			src := filepath.Join(dir, name)
			if _, err := os.Stat(src); err != nil {
				continue
			}
			dst := filepath.Join(env.SitePackagesPath, name)
			if _, err := os.Lstat(dst); err == nil {
				linked = true
				continue
			}
			if err := os.Symlink(src, dst); err != nil {
				return fmt.Errorf("linking %s into environment: %w", name, err)
			}
			logger.Debug("linked system module into environment", "module", name, "from", dir)
			linked = true
		}
	}
	if !linked {
		return fmt.Errorf("system PyQt5 modules not found in %v", systemSitePackageDirs)
	}
	return nil
}
