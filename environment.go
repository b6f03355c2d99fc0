package deskboot

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Environment represents the isolated Python environment inside the
// Install Root, with the paths needed to run the interpreter, install
// packages, and locate site-packages.
type Environment struct {
	// Name is the environment identifier (the directory base name).
	Name string

	// EnvPath is the environment root directory.
	EnvPath string

	// EnvBinPath is the bin (or Scripts on Windows) directory.
	EnvBinPath string

	// PythonPath is the full path to the Python executable.
	PythonPath string

	// PipPath is the full path to the pip executable.
	PipPath string

	// SitePackagesPath is the site-packages directory. May be empty when
	// the environment was reopened without probing the interpreter.
	SitePackagesPath string

	// PythonVersion is the interpreter version, when known.
	PythonVersion Version

	// IsNew indicates whether this environment was newly created (true)
	// or already existed (false).
	IsNew bool
}

// EnsureEnvironment locates or provisions the isolated environment at root.
//
// If root already exists, a handle is returned without modification; the
// existence of the directory alone is the signal that provisioning ran.
// Otherwise a qualifying system interpreter is located (remediating with
// the platform installer when none qualifies), a venv is created with it,
// and the venv's packaging tooling is upgraded.
func EnsureEnvironment(ctx context.Context, platform Platform, root string, required Version, logger *slog.Logger) (*Environment, error) {
	if _, err := os.Stat(root); err == nil {
		logger.Debug("environment root exists, reusing", "root", root)
		return OpenEnvironment(root), nil
	}

	python, err := FindInterpreter(ctx, platform, required, logger)
	if err != nil {
		python, err = remediateInterpreter(ctx, platform, required, logger)
		if err != nil {
			return nil, err
		}
	}

	logger.Info("creating environment", "root", root, "python", python)
	if err := createVenv(ctx, python, root); err != nil {
		return nil, err
	}

	env := OpenEnvironment(root)
	env.IsNew = true
	if out, err := env.RunPythonReadStdout(ctx, "--version"); err == nil {
		if v, perr := ParsePythonVersion(out); perr == nil {
			env.PythonVersion = v
		}
	}
	if err := env.UpgradeTooling(ctx); err != nil {
		return nil, err
	}
	return env, nil
}

// OpenEnvironment returns a handle to an existing environment root without
// validating it. Paths are derived the same way venv lays them out.
func OpenEnvironment(root string) *Environment {
	env := &Environment{
		Name:    filepath.Base(root),
		EnvPath: root,
	}
	if runtime.GOOS == "windows" {
		env.EnvBinPath = filepath.Join(root, "Scripts")
		env.PythonPath = filepath.Join(env.EnvBinPath, "python.exe")
		env.PipPath = filepath.Join(env.EnvBinPath, "pip.exe")
		env.SitePackagesPath = filepath.Join(root, "Lib", "site-packages")
	} else {
		env.EnvBinPath = filepath.Join(root, "bin")
		env.PythonPath = filepath.Join(env.EnvBinPath, "python")
		env.PipPath = filepath.Join(env.EnvBinPath, "pip")
		// The exact lib/pythonX.Y segment depends on the interpreter that
		// created the venv; glob rather than probe.
		matches, _ := filepath.Glob(filepath.Join(root, "lib", "python3.*", "site-packages"))
		if len(matches) > 0 {
			env.SitePackagesPath = matches[0]
		}
	}
	return env
}

// Exists reports whether the environment's interpreter binary is present.
func (env *Environment) Exists() bool {
	_, err := os.Stat(env.PythonPath)
	return err == nil
}

// FindInterpreter searches the platform's ordered candidate list for an
// interpreter matching the required major.minor version and exposing the
// tkinter module. Candidates that are not executable or fail either check
// are skipped; a failed module check logs a warning since it usually means
// a missing OS package rather than a broken interpreter.
func FindInterpreter(ctx context.Context, platform Platform, required Version, logger *slog.Logger) (string, error) {
	for _, candidate := range interpreterCandidates(platform, required) {
		path, err := exec.LookPath(candidate)
		if err != nil {
			continue
		}
		out, err := runReadStdout(ctx, path, "--version")
		if err != nil {
			continue
		}
		v, err := ParsePythonVersion(out)
		if err != nil || !v.Satisfies(required) {
			continue
		}
		if err := runSilent(ctx, path, "-c", "import tkinter"); err != nil {
			logger.Warn("interpreter lacks tkinter, skipping", "python", path)
			continue
		}
		logger.Debug("qualified interpreter", "python", path, "version", v.String())
		return path, nil
	}
	return "", fmt.Errorf("no Python %s interpreter with tkinter found", required.MinorString())
}

// interpreterCandidates returns the ordered per-platform search list.
func interpreterCandidates(platform Platform, required Version) []string {
	versioned := fmt.Sprintf("python%s", required.MinorString())
	switch platform {
	case PlatformMac:
		return []string{
			filepath.Join("/Library/Frameworks/Python.framework/Versions", required.MinorString(), "bin", "python3"),
			"/opt/homebrew/bin/" + versioned,
			"/usr/local/bin/" + versioned,
			versioned,
			"python3",
		}
	case PlatformWindows:
		return []string{"py", "python"}
	default:
		return []string{
			versioned,
			"python3",
			"/usr/bin/python3",
			"/usr/local/bin/python3",
		}
	}
}

// createVenv creates the isolated environment with the venv module.
func createVenv(ctx context.Context, python, root string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, python, "-m", "venv", root)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to create virtual environment: %v, stderr: %s", err, stderr.String())
	}
	return nil
}

// UpgradeTooling upgrades pip, setuptools, and wheel inside the
// environment so later installs do not trip over stale bootstrap tooling.
func (env *Environment) UpgradeTooling(ctx context.Context) error {
	return env.PipInstall(ctx, "--upgrade", "pip", "setuptools", "wheel")
}
