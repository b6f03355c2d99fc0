package deskboot

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// PipInstall installs packages using the environment's pip.
//
// The arguments are passed through to "pip install" after
// --no-warn-script-location, so callers can supply exact specifiers
// ("requests", "pyqt5==5.15.10") or flags ("--upgrade").
//
// Returns an error if pip fails, including stderr output for debugging.
func (env *Environment) PipInstall(ctx context.Context, args ...string) error {
	installArgs := append([]string{"install", "--no-warn-script-location"}, args...)

	installCmd := exec.CommandContext(ctx, env.PipPath, installArgs...)

	// Capture both stdout AND stderr
	var stdoutBuf, stderrBuf bytes.Buffer
	installCmd.Stdout = &stdoutBuf
	installCmd.Stderr = &stderrBuf

	if err := installCmd.Run(); err != nil {
		return fmt.Errorf("error installing package: %v, stderr: %s", err, stderrBuf.String())
	}
	return nil
}

// PipUninstall removes a package from the environment without prompting.
func (env *Environment) PipUninstall(ctx context.Context, name string) error {
	var stderrBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, env.PipPath, "uninstall", "-y", name)
	cmd.Stderr = &stderrBuf
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("error uninstalling %s: %v, stderr: %s", name, err, stderrBuf.String())
	}
	return nil
}

// PipShow queries pip's metadata for a package. A nil error means the
// package index knows the package is installed.
func (env *Environment) PipShow(ctx context.Context, name string) error {
	cmd := exec.CommandContext(ctx, env.PipPath, "show", name)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("package %s not installed: %v", name, err)
	}
	return nil
}

// ImportProbe attempts to import a module inside the environment.
// A nil error means the module is importable and the owning package is
// satisfied.
func (env *Environment) ImportProbe(ctx context.Context, module string) error {
	if err := env.RunPythonSilent(ctx, "-c", "import "+module); err != nil {
		return fmt.Errorf("module %s not importable: %v", module, err)
	}
	return nil
}
