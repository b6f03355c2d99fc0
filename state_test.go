package deskboot

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func testLayout(t *testing.T) Layout {
	t.Helper()
	return LayoutAt(PlatformLinux, "myapp", t.TempDir(), "/tmp/unused-artifact")
}

func TestStateRoundTrip(t *testing.T) {
	layout := testLayout(t)
	rec := StateRecord{
		Phase:        PhaseInstalledBuilt,
		InstalledAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		BuiltAt:      time.Date(2026, 1, 3, 3, 4, 5, 0, time.UTC),
		ArtifactPath: "/home/u/.local/bin/myapp",
	}
	if err := WriteState(layout, rec); err != nil {
		t.Fatalf("WriteState: %v", err)
	}

	got := ReadState(layout)
	if got.Phase != rec.Phase || got.ArtifactPath != rec.ArtifactPath {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.BuiltAt.Equal(rec.BuiltAt) {
		t.Errorf("BuiltAt mismatch: %v != %v", got.BuiltAt, rec.BuiltAt)
	}
}

func TestWriteStateLeavesNoTempFiles(t *testing.T) {
	layout := testLayout(t)
	if err := WriteState(layout, StateRecord{Phase: PhaseInstalledUnbuilt}); err != nil {
		t.Fatalf("WriteState: %v", err)
	}
	entries, err := os.ReadDir(layout.InstallRoot)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".state-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWriteStateBuiltTouchesSentinel(t *testing.T) {
	layout := testLayout(t)
	if err := WriteState(layout, StateRecord{Phase: PhaseInstalledBuilt}); err != nil {
		t.Fatalf("WriteState: %v", err)
	}
	info, err := os.Stat(layout.SentinelPath)
	if err != nil {
		t.Fatalf("sentinel not written: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("sentinel should be zero bytes, got %d", info.Size())
	}
}

func TestWriteStateUnbuiltSkipsSentinel(t *testing.T) {
	layout := testLayout(t)
	if err := WriteState(layout, StateRecord{Phase: PhaseInstalledUnbuilt}); err != nil {
		t.Fatalf("WriteState: %v", err)
	}
	if _, err := os.Stat(layout.SentinelPath); err == nil {
		t.Error("sentinel should not exist before build completes")
	}
}

func TestReadStateMissingRecord(t *testing.T) {
	layout := testLayout(t)
	if got := ReadState(layout); got.Phase != PhaseInstalledUnbuilt {
		t.Errorf("missing record should mean unbuilt, got %s", got.Phase)
	}
}

func TestReadStateLegacySentinel(t *testing.T) {
	layout := testLayout(t)
	f, err := os.Create(layout.SentinelPath)
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	if got := ReadState(layout); got.Phase != PhaseInstalledBuilt {
		t.Errorf("legacy sentinel should mean built, got %s", got.Phase)
	}
}

func TestReadStateCorruptRecordFallsBack(t *testing.T) {
	layout := testLayout(t)
	if err := os.WriteFile(layout.StatePath, []byte("not msgpack at all"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := ReadState(layout); got.Phase != PhaseInstalledUnbuilt {
		t.Errorf("corrupt record without sentinel should mean unbuilt, got %s", got.Phase)
	}
}

func TestClearBuiltState(t *testing.T) {
	layout := testLayout(t)
	if err := WriteState(layout, StateRecord{Phase: PhaseInstalledBuilt}); err != nil {
		t.Fatal(err)
	}
	if err := ClearBuiltState(layout); err != nil {
		t.Fatalf("ClearBuiltState: %v", err)
	}
	if got := ReadState(layout); got.Phase != PhaseInstalledUnbuilt {
		t.Errorf("built state should be cleared, got %s", got.Phase)
	}
	// Clearing twice is fine.
	if err := ClearBuiltState(layout); err != nil {
		t.Errorf("second clear: %v", err)
	}
}

func TestAdvance(t *testing.T) {
	now := time.Now()
	rec := StateRecord{Phase: PhaseUninstalled}

	if err := rec.Advance(PhaseInstalledUnbuilt, now); err != nil {
		t.Fatalf("uninstalled -> unbuilt: %v", err)
	}
	if rec.InstalledAt.IsZero() {
		t.Error("InstalledAt not set")
	}
	if err := rec.Advance(PhaseInstalledBuilt, now); err != nil {
		t.Fatalf("unbuilt -> built: %v", err)
	}
	if rec.BuiltAt.IsZero() {
		t.Error("BuiltAt not set")
	}
	if err := rec.Advance(PhaseInstalledUnbuilt, now); err == nil {
		t.Error("built -> unbuilt should be rejected")
	}
}

func TestValidTransition_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	genPhase := gen.IntRange(int(PhaseUninstalled), int(PhaseInstalledBuilt)).Map(func(i int) Phase { return Phase(i) })

	properties.Property("only the two forward transitions are valid", prop.ForAll(
		func(from, to Phase) bool {
			valid := ValidTransition(from, to)
			expected := (from == PhaseUninstalled && to == PhaseInstalledUnbuilt) ||
				(from == PhaseInstalledUnbuilt && to == PhaseInstalledBuilt)
			return valid == expected
		},
		genPhase, genPhase,
	))

	properties.TestingRun(t)
}
