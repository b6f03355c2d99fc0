package deskboot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Dependency is one entry of the declared package list: a distribution
// name plus an optional pinned version constraint.
type Dependency struct {
	// Name is the distribution name as pip knows it (e.g., "python-docx").
	Name string `yaml:"name"`

	// Pin is an optional version constraint appended verbatim to the
	// install spec (e.g., "==5.15.10").
	Pin string `yaml:"pin,omitempty"`
}

// Spec returns the exact installation spec string.
func (d Dependency) Spec() string {
	return d.Name + d.Pin
}

// importProbeOverrides maps distribution names to the module name used to
// test satisfaction, for the packages whose import name differs.
var importProbeOverrides = map[string]string{
	"python-docx":    "docx",
	"pyqt5":          "PyQt5",
	"pillow":         "PIL",
	"beautifulsoup4": "bs4",
	"pyinstaller":    "PyInstaller",
}

// ProbeName returns the module name used for the import probe.
func (d Dependency) ProbeName() string {
	if probe, ok := importProbeOverrides[strings.ToLower(d.Name)]; ok {
		return probe
	}
	return d.Name
}

// PackageHost is the slice of the environment the reconciler needs:
// probe a module import, query installer metadata, install a spec.
type PackageHost interface {
	ImportProbe(ctx context.Context, module string) error
	PipShow(ctx context.Context, name string) error
	PipInstall(ctx context.Context, args ...string) error
}

// Reconcile installs the missing subset of the declared dependency list.
//
// A package is satisfied if its probe module imports inside the
// environment, or failing that if pip's metadata knows it (some
// distributions install no importable top-level module). Unsatisfied
// packages are installed with their exact declared spec; a failed install
// is fatal because the Build and Run phases assume a complete set.
func Reconcile(ctx context.Context, host PackageHost, declared []Dependency, logger *slog.Logger) error {
	for _, dep := range declared {
		if err := host.ImportProbe(ctx, dep.ProbeName()); err == nil {
			logger.Debug("dependency satisfied by import", "package", dep.Name)
			continue
		}
		if err := host.PipShow(ctx, dep.Name); err == nil {
			logger.Debug("dependency satisfied by pip metadata", "package", dep.Name)
			continue
		}
		logger.Info("installing dependency", "spec", dep.Spec())
		if err := host.PipInstall(ctx, dep.Spec()); err != nil {
			return fmt.Errorf("failed to install %s: %w", dep.Spec(), err)
		}
	}
	return nil
}
