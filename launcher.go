package deskboot

import "os"

// LaunchDecision describes the process hand-off the state machine decided
// on. The state machine itself never spawns or replaces processes; it
// returns this value to the driver, which performs the replacement. That
// keeps every phase testable without real processes.
type LaunchDecision struct {
	// Path is the executable to run.
	Path string

	// Args is the full argv, including Args[0].
	Args []string

	// Env is the environment for the new process; nil means inherit.
	Env []string

	// Dir is the working directory for the new process; empty means keep
	// the current one.
	Dir string

	// ReExec marks the First-Run tail call to the relocated copy, as
	// opposed to an application launch. Informational; Exec treats both
	// identically.
	ReExec bool
}

// Exec replaces the current process with the decided one. Standard I/O is
// inherited. On Unix this call does not return on success; on Windows,
// which has no execve, the child is spawned with inherited stdio and the
// current process exits with the child's code. On failure to exec it
// returns an error and the caller exits nonzero.
func Exec(d *LaunchDecision) error {
	if d.Dir != "" {
		if err := os.Chdir(d.Dir); err != nil {
			return err
		}
	}
	env := d.Env
	if env == nil {
		env = os.Environ()
	}
	return replaceProcess(d.Path, d.Args, env)
}
