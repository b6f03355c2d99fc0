package deskboot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Options configures the bootstrap state machine.
type Options struct {
	Platform Platform
	Layout   Layout
	Manifest Manifest
	Logger   *slog.Logger

	// Rebuild clears the built state so the Build phase runs again.
	Rebuild bool

	// ExecutablePath overrides the detected path of the running binary.
	// Tests use it; production leaves it empty for os.Executable.
	ExecutablePath string

	// Argv overrides the argument vector handed to the re-exec decision.
	// Defaults to os.Args.
	Argv []string
}

// Bootstrapper is the bootstrap/build/run state machine. Every invocation
// enters Run, which decides exactly one phase from the binary's location
// and the persisted state record, executes it, and returns the resulting
// launch decision (nil when the invocation completes without launching).
//
// The phase collaborators are function fields so tests can exercise the
// state machine without provisioning environments or spawning PyInstaller.
type Bootstrapper struct {
	platform Platform
	layout   Layout
	manifest Manifest
	logger   *slog.Logger
	rebuild  bool
	execPath string
	argv     []string

	ensureEnv    func(ctx context.Context) (*Environment, error)
	ensureNative func(ctx context.Context, env *Environment) error
	reconcile    func(ctx context.Context, env *Environment, deps []Dependency) error
	fetchMissing func(ctx context.Context) []FetchResult
	build        func(ctx context.Context, env *Environment) (string, error)
	runUpdater   func(ctx context.Context, env *Environment) error
}

// NewBootstrapper wires a state machine with the production collaborators.
func NewBootstrapper(opts Options) *Bootstrapper {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	argv := opts.Argv
	if argv == nil {
		argv = os.Args
	}
	b := &Bootstrapper{
		platform: opts.Platform,
		layout:   opts.Layout,
		manifest: opts.Manifest,
		logger:   logger,
		rebuild:  opts.Rebuild,
		execPath: opts.ExecutablePath,
		argv:     argv,
	}
	b.ensureEnv = func(ctx context.Context) (*Environment, error) {
		return EnsureEnvironment(ctx, b.platform, b.layout.EnvRoot, b.manifest.InterpreterVersion(), b.logger)
	}
	b.ensureNative = func(ctx context.Context, env *Environment) error {
		return EnsureNative(ctx, b.platform, env, b.logger)
	}
	b.reconcile = func(ctx context.Context, env *Environment, deps []Dependency) error {
		return Reconcile(ctx, envHost{env}, deps, b.logger)
	}
	b.fetchMissing = func(ctx context.Context) []FetchResult {
		return FetchMissing(ctx, availableFetchers(), b.manifest.Artifacts, b.layout.InstallRoot, b.logger)
	}
	b.build = func(ctx context.Context, env *Environment) (string, error) {
		return BuildArtifact(ctx, b.platform, env, b.layout, b.logger)
	}
	b.runUpdater = func(ctx context.Context, env *Environment) error {
		return RunUpdater(ctx, env, b.layout, b.manifest, b.logger)
	}
	return b
}

// envHost adapts *Environment to the reconciler's PackageHost interface.
type envHost struct {
	env *Environment
}

func (h envHost) ImportProbe(ctx context.Context, module string) error {
	return h.env.ImportProbe(ctx, module)
}

func (h envHost) PipShow(ctx context.Context, name string) error {
	return h.env.PipShow(ctx, name)
}

func (h envHost) PipInstall(ctx context.Context, args ...string) error {
	return h.env.PipInstall(ctx, args...)
}

// Run executes exactly one phase and returns the launch decision.
//
// Phase selection: a binary running outside the Install Root is a
// First-Run (relocate and hand off); inside it, the persisted state
// record selects Build (no artifact yet; terminates without launching)
// or Run (artifact present; returns the application launch).
func (b *Bootstrapper) Run(ctx context.Context) (*LaunchDecision, error) {
	execPath := b.execPath
	if execPath == "" {
		p, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("cannot determine executable path: %w", err)
		}
		execPath = p
	}
	if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = resolved
	}

	// Never self-install from a piped or otherwise ephemeral invocation:
	// there must be a reviewable file on disk before anything persists.
	if IsTransientOrigin(execPath) {
		return nil, fmt.Errorf("refusing to run from transient origin %q; save the binary to disk and run it", execPath)
	}

	if !samePath(filepath.Dir(execPath), b.layout.InstallRoot) {
		return b.firstRun(ctx, execPath)
	}

	if b.rebuild {
		if err := ClearBuiltState(b.layout); err != nil {
			return nil, fmt.Errorf("clearing built state: %w", err)
		}
	}

	rec := ReadState(b.layout)
	b.logger.Debug("phase decision", "phase", rec.Phase.String())
	if rec.Phase == PhaseInstalledBuilt {
		return b.runPhase(ctx)
	}
	return nil, b.buildPhase(ctx, rec)
}

// firstRun relocates the binary into the Install Root, provisions the
// environment, and returns the tail-call decision for the relocated copy.
// Exactly one canonical copy ever runs the remaining phases.
func (b *Bootstrapper) firstRun(ctx context.Context, execPath string) (*LaunchDecision, error) {
	b.logger.Info("first run: installing", "root", b.layout.InstallRoot)
	if err := os.MkdirAll(b.layout.InstallRoot, 0755); err != nil {
		return nil, fmt.Errorf("creating install root: %w", err)
	}

	lock, err := AcquireInstallLock(b.layout.LockPath)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	if err := copyPath(execPath, b.layout.ScriptPath); err != nil {
		return nil, fmt.Errorf("copying bootstrap binary: %w", err)
	}
	if err := os.Chmod(b.layout.ScriptPath, 0755); err != nil {
		return nil, fmt.Errorf("marking bootstrap binary executable: %w", err)
	}

	if _, err := b.ensureEnv(ctx); err != nil {
		return nil, err
	}

	// A re-run installer must not demote an install that already built;
	// the relocated copy then lands straight in the Run phase.
	if ReadState(b.layout).Phase != PhaseInstalledBuilt {
		rec := StateRecord{Phase: PhaseUninstalled}
		if err := rec.Advance(PhaseInstalledUnbuilt, time.Now()); err != nil {
			return nil, err
		}
		if err := WriteState(b.layout, rec); err != nil {
			return nil, err
		}
	}

	argv := []string{b.layout.ScriptPath}
	if len(b.argv) > 1 {
		argv = append(argv, b.argv[1:]...)
	}
	return &LaunchDecision{
		Path:   b.layout.ScriptPath,
		Args:   argv,
		Dir:    b.layout.InstallRoot,
		ReExec: true,
	}, nil
}

// buildPhase produces and installs the standalone artifact. It never
// launches; completion is recorded only after the artifact move succeeded,
// so an interruption anywhere earlier re-enters Build on the next run.
func (b *Bootstrapper) buildPhase(ctx context.Context, rec StateRecord) error {
	b.logger.Info("build phase: producing standalone artifact")

	lock, err := AcquireInstallLock(b.layout.LockPath)
	if err != nil {
		return err
	}
	defer lock.Release()

	env, err := b.ensureEnv(ctx)
	if err != nil {
		return err
	}
	if err := b.ensureNative(ctx, env); err != nil {
		return err
	}
	if err := b.reconcile(ctx, env, b.manifest.Dependencies); err != nil {
		return err
	}

	artifact, err := b.build(ctx, env)
	if err != nil {
		return err
	}

	rec.ArtifactPath = artifact
	if err := rec.Advance(PhaseInstalledBuilt, time.Now()); err != nil {
		return err
	}
	// Last action of the phase: the record is the build marker.
	if err := WriteState(b.layout, rec); err != nil {
		return err
	}
	b.logger.Info("build complete", "artifact", artifact)
	return nil
}

// runPhase reconciles the runtime dependencies, populates the payload via
// the updater collaborator if needed, and returns the launch decision.
func (b *Bootstrapper) runPhase(ctx context.Context) (*LaunchDecision, error) {
	if _, err := os.Stat(b.layout.EnvRoot); err != nil {
		return nil, fmt.Errorf("environment root %s missing; remove %s and run again",
			b.layout.EnvRoot, b.layout.StatePath)
	}
	env := OpenEnvironment(b.layout.EnvRoot)

	if err := b.reconcile(ctx, env, b.manifest.RuntimeDependencies); err != nil {
		return nil, err
	}

	// Collaborator scripts are fetched skip-if-exists, so this is free
	// once they are on disk.
	b.fetchMissing(ctx)

	if _, err := os.Stat(b.layout.PayloadDir); err != nil {
		if err := b.runUpdater(ctx, env); err != nil {
			return nil, err
		}
		if _, err := os.Stat(b.layout.EntryPath); err != nil {
			return nil, fmt.Errorf("application entry %s missing after update", b.layout.EntryPath)
		}
	}

	updater := filepath.Join(b.layout.InstallRoot, b.manifest.UpdaterScript)
	if _, err := os.Stat(updater); err != nil {
		return nil, fmt.Errorf("updater script %s missing; cannot launch", updater)
	}

	return &LaunchDecision{
		Path: env.PythonPath,
		Args: []string{env.PythonPath, updater},
		Dir:  b.layout.InstallRoot,
	}, nil
}
