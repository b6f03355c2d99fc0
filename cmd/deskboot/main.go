// Command deskboot is the thin driver around the bootstrap state machine.
// It parses flags, runs exactly one bootstrap phase, and performs the
// process replacement the state machine decided on.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"

	"deskboot"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("deskboot", pflag.ContinueOnError)
	root := flags.String("root", "", "override the install root directory")
	rebuild := flags.Bool("rebuild", false, "discard the built artifact state and build again")
	noLaunch := flags.Bool("no-launch", false, "stop before launching; print the launch decision")
	snapshot := flags.Bool("snapshot", false, "run the snapshot collaborator and exit")
	verbose := flags.BoolP("verbose", "v", false, "enable debug logging")
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	platform, err := deskboot.DetectPlatform(runtime.GOOS)
	if err != nil {
		logger.Error(err.Error())
		return 1
	}

	manifest := deskboot.DefaultManifest()
	layout, err := resolveLayout(platform, manifest.AppName, *root)
	if err != nil {
		logger.Error(err.Error())
		return 1
	}

	// An operator manifest in the install root overrides the defaults.
	manifest, err = deskboot.LoadManifest(filepath.Join(layout.InstallRoot, "deskboot.yaml"))
	if err != nil {
		logger.Error(err.Error())
		return 1
	}
	if manifest.AppName != layout.AppName {
		// The manifest renamed the app; recompute paths under the same root.
		layout = deskboot.LayoutAt(platform, manifest.AppName, layout.InstallRoot, layout.ArtifactPath)
	}

	if *snapshot {
		env := deskboot.OpenEnvironment(layout.EnvRoot)
		if !env.Exists() {
			logger.Error("no environment to snapshot from", "root", layout.EnvRoot)
			return 1
		}
		if err := deskboot.RunSnapshooter(ctx, env, layout, manifest, logger); err != nil {
			logger.Error(err.Error())
			return 1
		}
		return 0
	}

	b := deskboot.NewBootstrapper(deskboot.Options{
		Platform: platform,
		Layout:   layout,
		Manifest: manifest,
		Logger:   logger,
		Rebuild:  *rebuild,
	})

	decision, err := b.Run(ctx)
	if err != nil {
		logger.Error(err.Error())
		return 1
	}
	if decision == nil {
		return 0
	}
	if *noLaunch {
		fmt.Printf("would launch: %v (dir %s)\n", decision.Args, decision.Dir)
		return 0
	}

	// Does not return on success: the process image is replaced.
	if err := deskboot.Exec(decision); err != nil {
		logger.Error("exec failed", "path", decision.Path, "error", err)
		return 1
	}
	return 0
}

// resolveLayout computes the layout, honoring a --root override.
func resolveLayout(platform deskboot.Platform, appName, rootOverride string) (deskboot.Layout, error) {
	if rootOverride == "" {
		return deskboot.DefaultLayout(platform, appName)
	}
	abs, err := filepath.Abs(rootOverride)
	if err != nil {
		return deskboot.Layout{}, err
	}
	defaults, err := deskboot.DefaultLayout(platform, appName)
	if err != nil {
		return deskboot.Layout{}, err
	}
	return deskboot.LayoutAt(platform, appName, abs, defaults.ArtifactPath), nil
}
