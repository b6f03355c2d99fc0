package deskboot

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"strings"
)

// RunPythonReadStdout executes the environment's interpreter with the given
// arguments and returns stdout. This is a blocking call.
func (env *Environment) RunPythonReadStdout(ctx context.Context, args ...string) (string, error) {
	return runReadStdout(ctx, env.PythonPath, args...)
}

// RunPythonSilent executes the environment's interpreter and discards all
// output; only the exit status is reported. Used for import probes.
func (env *Environment) RunPythonSilent(ctx context.Context, args ...string) error {
	return runSilent(ctx, env.PythonPath, args...)
}

// RunPythonScript executes a Python script file with the environment's
// interpreter, inheriting the parent's standard streams and working
// directory dir. This is how the external collaborator scripts are run.
func (env *Environment) RunPythonScript(ctx context.Context, dir, scriptPath string, args ...string) error {
	return env.RunPythonInherit(ctx, dir, append([]string{scriptPath}, args...)...)
}

// RunPythonModule executes "python -m module" with inherited standard
// streams, for tools installed into the environment (e.g., PyInstaller).
func (env *Environment) RunPythonModule(ctx context.Context, dir, module string, args ...string) error {
	return env.RunPythonInherit(ctx, dir, append([]string{"-m", module}, args...)...)
}

// RunPythonInherit executes the environment's interpreter with inherited
// standard streams in the given working directory.
func (env *Environment) RunPythonInherit(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, env.PythonPath, args...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// runReadStdout runs a command and returns its stdout, line by line, with
// trailing whitespace trimmed.
func runReadStdout(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", err
	}
	defer stdout.Close()

	if err := cmd.Start(); err != nil {
		return "", err
	}
	var sb strings.Builder
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteString("\n")
	}
	if err := cmd.Wait(); err != nil {
		return "", err
	}
	return strings.TrimSpace(sb.String()), nil
}

// runSilent runs a command discarding output; only the exit status matters.
func runSilent(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Run()
}
