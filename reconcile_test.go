package deskboot

import (
	"context"
	"fmt"
	"testing"
)

// fakeHost scripts the satisfaction probes and records install calls.
type fakeHost struct {
	importable map[string]bool
	pipKnown   map[string]bool
	installed  []string
	installErr error
}

func (h *fakeHost) ImportProbe(ctx context.Context, module string) error {
	if h.importable[module] {
		return nil
	}
	return fmt.Errorf("module %s not importable", module)
}

func (h *fakeHost) PipShow(ctx context.Context, name string) error {
	if h.pipKnown[name] {
		return nil
	}
	return fmt.Errorf("package %s not installed", name)
}

func (h *fakeHost) PipInstall(ctx context.Context, args ...string) error {
	h.installed = append(h.installed, args...)
	return h.installErr
}

func TestReconcileSatisfiedByImport(t *testing.T) {
	host := &fakeHost{importable: map[string]bool{"requests": true}}
	deps := []Dependency{{Name: "requests"}}

	if err := Reconcile(context.Background(), host, deps, discardLogger()); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(host.installed) != 0 {
		t.Errorf("satisfied package should issue zero installs, got %v", host.installed)
	}
}

func TestReconcileSatisfiedByPipMetadata(t *testing.T) {
	// Import fails but pip metadata knows the package.
	host := &fakeHost{pipKnown: map[string]bool{"some-plugin": true}}
	deps := []Dependency{{Name: "some-plugin"}}

	if err := Reconcile(context.Background(), host, deps, discardLogger()); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(host.installed) != 0 {
		t.Errorf("pip-known package should issue zero installs, got %v", host.installed)
	}
}

func TestReconcileInstallsExactSpec(t *testing.T) {
	host := &fakeHost{}
	deps := []Dependency{{Name: "pyqt5", Pin: "==5.15.10"}}

	if err := Reconcile(context.Background(), host, deps, discardLogger()); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(host.installed) != 1 || host.installed[0] != "pyqt5==5.15.10" {
		t.Errorf("expected exactly one install of the declared spec, got %v", host.installed)
	}
}

func TestReconcileUsesProbeOverride(t *testing.T) {
	// python-docx imports as docx; satisfaction must probe the import
	// name, not the distribution name.
	host := &fakeHost{importable: map[string]bool{"docx": true}}
	deps := []Dependency{{Name: "python-docx"}}

	if err := Reconcile(context.Background(), host, deps, discardLogger()); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(host.installed) != 0 {
		t.Errorf("override probe should satisfy, got installs %v", host.installed)
	}
}

func TestReconcileInstallFailureIsFatal(t *testing.T) {
	host := &fakeHost{installErr: fmt.Errorf("no matching distribution")}
	deps := []Dependency{{Name: "pyqt5"}, {Name: "requests"}}

	err := Reconcile(context.Background(), host, deps, discardLogger())
	if err == nil {
		t.Fatal("failed install must be fatal")
	}
	// The batch stops at the first failure; requests is never attempted.
	if len(host.installed) != 1 {
		t.Errorf("reconcile should stop at first failed install, got %v", host.installed)
	}
}

func TestDependencySpec(t *testing.T) {
	cases := []struct {
		dep  Dependency
		want string
	}{
		{Dependency{Name: "requests"}, "requests"},
		{Dependency{Name: "pyqt5", Pin: "==5.15.10"}, "pyqt5==5.15.10"},
		{Dependency{Name: "psutil", Pin: ">=5.9"}, "psutil>=5.9"},
	}
	for _, c := range cases {
		if got := c.dep.Spec(); got != c.want {
			t.Errorf("Spec() = %q, want %q", got, c.want)
		}
	}
}

func TestDependencyProbeName(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"python-docx", "docx"},
		{"pyqt5", "PyQt5"},
		{"PyQt5", "PyQt5"},
		{"pillow", "PIL"},
		{"beautifulsoup4", "bs4"},
		{"requests", "requests"},
	}
	for _, c := range cases {
		d := Dependency{Name: c.name}
		if got := d.ProbeName(); got != c.want {
			t.Errorf("ProbeName(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}
