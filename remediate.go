package deskboot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// Remediation is one strategy for satisfying a missing precondition.
// Strategies are tried in order; the first one after which re-validation
// succeeds wins, and exhaustion is fatal.
type Remediation struct {
	// Name identifies the strategy in logs.
	Name string

	// Run performs the remediation attempt.
	Run func(ctx context.Context, logger *slog.Logger) error
}

// remediateInterpreter runs the platform's interpreter remediation list,
// re-validating with FindInterpreter after each attempt.
func remediateInterpreter(ctx context.Context, platform Platform, required Version, logger *slog.Logger) (string, error) {
	strategies := interpreterRemediations(platform, required)
	for _, s := range strategies {
		logger.Info("attempting interpreter remediation", "strategy", s.Name)
		if err := s.Run(ctx, logger); err != nil {
			logger.Warn("remediation failed", "strategy", s.Name, "error", err)
			continue
		}
		if path, err := FindInterpreter(ctx, platform, required, logger); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no usable Python %s interpreter found and remediation failed; "+
		"install Python %s with tkinter support and run again", required.MinorString(), required.MinorString())
}

// interpreterRemediations returns the ordered remediation list per platform.
func interpreterRemediations(platform Platform, required Version) []Remediation {
	switch platform {
	case PlatformMac:
		return []Remediation{
			{Name: "python.org installer", Run: func(ctx context.Context, logger *slog.Logger) error {
				return installMacPython(ctx, required, logger)
			}},
		}
	case PlatformLinux:
		packages := []string{"python3", "python3-venv", "python3-tk"}
		return []Remediation{
			{Name: "apt-get", Run: func(ctx context.Context, logger *slog.Logger) error {
				return aptInstall(ctx, packages)
			}},
			{Name: "sudo apt-get", Run: func(ctx context.Context, logger *slog.Logger) error {
				return runSilent(ctx, "sudo", append([]string{"-n", "apt-get", "install", "-y"}, packages...)...)
			}},
		}
	case PlatformWindows:
		return []Remediation{
			{Name: "winget", Run: func(ctx context.Context, logger *slog.Logger) error {
				id := fmt.Sprintf("Python.Python.%s", required.MinorString())
				return runSilent(ctx, "winget", "install", "--exact", "--silent",
					"--accept-package-agreements", "--accept-source-agreements", id)
			}},
		}
	default:
		return nil
	}
}

// installMacPython downloads the exact required interpreter version from
// python.org and runs the pkg installer unattended.
func installMacPython(ctx context.Context, required Version, logger *slog.Logger) error {
	full := required
	if full.Patch == -1 {
		full.Patch = 0
	}
	url := fmt.Sprintf("https://www.python.org/ftp/python/%s/python-%s-macos11.pkg", full.String(), full.String())

	tmpDir, err := os.MkdirTemp("", "deskboot-python-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	pkgPath := filepath.Join(tmpDir, "python.pkg")
	if err := fetchFile(ctx, availableFetchers(), url, pkgPath, logger); err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	if err := runSilent(ctx, "sudo", "-n", "installer", "-pkg", pkgPath, "-target", "/"); err != nil {
		// Without passwordless sudo the installer GUI path is the fallback.
		return runSilent(ctx, "installer", "-pkg", pkgPath, "-target", "CurrentUserHomeDirectory")
	}
	return nil
}

// aptInstall installs apt packages, skipping ones dpkg already knows.
// Idempotent: a fully satisfied list issues no install call.
func aptInstall(ctx context.Context, packages []string) error {
	missing := make([]string, 0, len(packages))
	for _, pkg := range packages {
		if err := runSilent(ctx, "dpkg", "-s", pkg); err != nil {
			missing = append(missing, pkg)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if _, err := exec.LookPath("apt-get"); err != nil {
		return fmt.Errorf("apt-get not available: %w", err)
	}
	return runSilent(ctx, "apt-get", append([]string{"install", "-y"}, missing...)...)
}
