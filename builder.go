package deskboot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// entryStubTemplate is the source of the compiled artifact's entry point.
// Its sole job is to re-invoke the canonical bootstrap binary from the
// Install Root, so the artifact behaves identically to running the binary.
const entryStubTemplate = `import os
import subprocess
import sys

BOOTSTRAP = r"%s"


def main():
    argv = [BOOTSTRAP] + sys.argv[1:]
    if os.name == "nt":
        raise SystemExit(subprocess.call(argv))
    os.execv(BOOTSTRAP, argv)


if __name__ == "__main__":
    main()
`

// iconCandidates are the Install Root filenames checked for a build icon,
// in platform preference order. Icon conversion is out of scope; only a
// ready-made file is picked up.
func iconCandidates(platform Platform) []string {
	switch platform {
	case PlatformMac:
		return []string{"icon.icns"}
	case PlatformWindows:
		return []string{"icon.ico"}
	default:
		return []string{"icon.png"}
	}
}

// BuildArtifact compiles the entry stub plus the environment into one
// standalone native artifact and installs it at layout.ArtifactPath.
//
// The sequence: install the packaging tool into the environment, write
// the stub, invoke PyInstaller headlessly, move the produced artifact to
// the permanent path (overwriting any previous build), register launch
// metadata, then remove the build scratch and uninstall the packaging
// tool to keep the environment minimal for runtime.
//
// BuildArtifact does not write any completion marker; the caller records
// completion only after this returns successfully, which is what makes an
// interrupted build safe to retry.
func BuildArtifact(ctx context.Context, platform Platform, env *Environment, layout Layout, logger *slog.Logger) (string, error) {
	if err := env.PipInstall(ctx, "pyinstaller"); err != nil {
		return "", fmt.Errorf("installing packaging tool: %w", err)
	}

	scratch := filepath.Join(layout.InstallRoot, "build")
	if err := os.MkdirAll(scratch, 0755); err != nil {
		return "", err
	}

	stubPath := filepath.Join(scratch, "entry_stub.py")
	stub := fmt.Sprintf(entryStubTemplate, layout.ScriptPath)
	if err := os.WriteFile(stubPath, []byte(stub), 0644); err != nil {
		return "", fmt.Errorf("writing entry stub: %w", err)
	}

	distDir := filepath.Join(scratch, "dist")
	args := pyinstallerArgs(platform, layout, stubPath, scratch, distDir)
	logger.Info("building standalone artifact", "tool", "pyinstaller", "output", layout.ArtifactPath)
	if err := env.RunPythonModule(ctx, layout.InstallRoot, "PyInstaller", args...); err != nil {
		return "", fmt.Errorf("packaging tool failed: %w", err)
	}

	produced := filepath.Join(distDir, producedName(platform, layout.AppName))
	if _, err := os.Stat(produced); err != nil {
		return "", fmt.Errorf("packaging tool reported success but %s is missing", produced)
	}

	if err := installArtifact(produced, layout.ArtifactPath); err != nil {
		return "", fmt.Errorf("installing artifact: %w", err)
	}

	if err := RegisterLaunchMetadata(platform, layout, logger); err != nil {
		// Launch metadata is best-effort; the artifact itself is in place.
		logger.Warn("registering launch metadata failed", "error", err)
	}

	if err := os.RemoveAll(scratch); err != nil {
		logger.Warn("removing build scratch failed", "error", err)
	}
	if err := env.PipUninstall(ctx, "pyinstaller"); err != nil {
		logger.Warn("uninstalling packaging tool failed", "error", err)
	}

	return layout.ArtifactPath, nil
}

// pyinstallerArgs builds the headless packaging invocation: one-file
// windowed binaries on Linux and Windows, a one-dir .app bundle on macOS.
func pyinstallerArgs(platform Platform, layout Layout, stubPath, scratch, distDir string) []string {
	args := []string{
		"--noconfirm",
		"--clean",
		"--windowed",
		"--name", layout.AppName,
		"--distpath", distDir,
		"--workpath", filepath.Join(scratch, "work"),
		"--specpath", scratch,
	}
	if platform != PlatformMac {
		args = append(args, "--onefile")
	}
	for _, name := range iconCandidates(platform) {
		icon := filepath.Join(layout.InstallRoot, name)
		if _, err := os.Stat(icon); err == nil {
			args = append(args, "--icon", icon)
			break
		}
	}
	return append(args, stubPath)
}

// producedName is the artifact name PyInstaller leaves in the dist
// directory for the given platform.
func producedName(platform Platform, appName string) string {
	switch platform {
	case PlatformMac:
		return appName + ".app"
	case PlatformWindows:
		return appName + ".exe"
	default:
		return appName
	}
}

// installArtifact moves the produced artifact to its permanent path,
// replacing any previous build. Rename first; fall back to a copy when
// the paths are on different filesystems.
func installArtifact(produced, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	if err := os.RemoveAll(dest); err != nil {
		return err
	}
	if err := os.Rename(produced, dest); err == nil {
		return nil
	}
	if err := copyPath(produced, dest); err != nil {
		return err
	}
	return os.RemoveAll(produced)
}

// copyPath copies a file or directory tree, preserving the executable bit.
func copyPath(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(src)
		if err != nil {
			return err
		}
		return os.Symlink(target, dst)
	case info.IsDir():
		if err := os.MkdirAll(dst, info.Mode().Perm()); err != nil {
			return err
		}
		entries, err := os.ReadDir(src)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := copyPath(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
				return err
			}
		}
		return nil
	default:
		in, err := os.Open(src)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	}
}
