// Package deskboot bootstraps, builds, and launches a Python desktop
// application on an end-user machine that has no pre-installed runtime.
//
// A single binary drives three mutually exclusive phases, decided from the
// directory the binary runs in and a small persisted state record:
//
//  1. First-Run: the binary is running from a transient location (download
//     folder, USB stick). It relocates itself into a permanent per-user
//     Install Root, provisions an isolated Python environment there, and
//     hands control to the relocated copy.
//
//  2. Build: the relocated binary has no built artifact yet. It compiles a
//     small entry stub plus the environment into a standalone native
//     application with PyInstaller, installs it to the platform's
//     application path, registers launch metadata (desktop entry, Start
//     Menu shortcut), and records completion.
//
//  3. Run: the artifact exists. The binary reconciles the runtime
//     dependencies, populates the application payload through the external
//     updater collaborator if needed, and replaces itself with the
//     application process.
//
// # Phase decision
//
// Every invocation enters the bootstrap state machine:
//
//	b := deskboot.NewBootstrapper(deskboot.Options{
//	    Platform: platform,
//	    Layout:   layout,
//	    Manifest: manifest,
//	    Logger:   logger,
//	})
//	decision, err := b.Run(ctx)
//
// The state machine never execs a process itself. It returns a
// LaunchDecision value describing the hand-off (re-exec of the relocated
// copy, or launch of the application) and a thin driver performs the actual
// process replacement with Exec. A nil decision means the invocation is
// complete (the Build phase ends without launching).
//
// # Environment management
//
// EnsureEnvironment locates a qualifying system interpreter (correct
// major.minor, tkinter importable), remediating with the platform's package
// manager or an unattended python.org install when none qualifies, then
// creates a venv and upgrades its packaging tooling:
//
//	env, err := deskboot.EnsureEnvironment(ctx, platform, layout.EnvRoot, req, logger)
//
// An existing environment root is returned as-is; provisioning runs once.
//
// # Dependency reconciliation
//
// Reconcile installs only the missing subset of a declared package list,
// probing satisfaction by import inside the environment first and by pip
// metadata second:
//
//	err := deskboot.Reconcile(ctx, host, manifest.Dependencies, logger)
//
// # Persistence
//
// All durable state lives in the Install Root: the canonical binary copy,
// the venv, a msgpack-encoded state record written by atomic rename, a
// version file consumed by the snapshot collaborator, and the downloaded
// collaborator scripts. Concurrent invocations are serialized with a
// cross-process advisory lock held for the First-Run and Build phases.
//
// # Platform support
//
//   - Linux: one-file artifact in ~/.local/bin, .desktop entry, PyQt5
//     satisfied from the distro packages and symlinked into the venv.
//   - macOS: one-dir .app bundle in ~/Applications, unattended python.org
//     interpreter install when the system has none.
//   - Windows: one-file .exe, Start Menu shortcut; process replacement is
//     emulated (spawn, wait, mirror the exit code).
package deskboot
