package deskboot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Phase is the persisted lifecycle state of the installation.
type Phase int

const (
	// PhaseUninstalled: no Install Root yet; the next invocation runs
	// First-Run relocation.
	PhaseUninstalled Phase = iota

	// PhaseInstalledUnbuilt: relocated, environment may exist, but no
	// standalone artifact has been produced.
	PhaseInstalledUnbuilt

	// PhaseInstalledBuilt: the artifact was produced, installed, and its
	// launch metadata registered.
	PhaseInstalledBuilt
)

// String returns the phase name used in logs.
func (p Phase) String() string {
	switch p {
	case PhaseUninstalled:
		return "uninstalled"
	case PhaseInstalledUnbuilt:
		return "installed-unbuilt"
	case PhaseInstalledBuilt:
		return "installed-built"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ValidTransition reports whether the installation may move from one
// phase to another. The lifecycle only ever moves forward; the sole
// exception, forced rebuilds, is modeled as a fresh record rather than a
// backward transition.
func ValidTransition(from, to Phase) bool {
	switch from {
	case PhaseUninstalled:
		return to == PhaseInstalledUnbuilt
	case PhaseInstalledUnbuilt:
		return to == PhaseInstalledBuilt
	default:
		return false
	}
}

// StateRecord is the durable record the state machine branches on.
// It is msgpack-encoded and written by atomic rename, so a reader never
// observes a half-written record.
type StateRecord struct {
	// Phase is the lifecycle state.
	Phase Phase `msgpack:"phase"`

	// InstalledAt is when First-Run relocation completed.
	InstalledAt time.Time `msgpack:"installed_at,omitempty"`

	// BuiltAt is when the Build phase completed.
	BuiltAt time.Time `msgpack:"built_at,omitempty"`

	// ArtifactPath is the installed standalone artifact, set with Phase
	// PhaseInstalledBuilt.
	ArtifactPath string `msgpack:"artifact_path,omitempty"`
}

// Advance moves the record to a new phase, validating the transition.
func (r *StateRecord) Advance(to Phase, now time.Time) error {
	if !ValidTransition(r.Phase, to) {
		return fmt.Errorf("invalid phase transition %s -> %s", r.Phase, to)
	}
	switch to {
	case PhaseInstalledUnbuilt:
		r.InstalledAt = now
	case PhaseInstalledBuilt:
		r.BuiltAt = now
	}
	r.Phase = to
	return nil
}

// ReadState loads the state record for an Install Root.
//
// A missing record falls back to the legacy zero-byte sentinel: sentinel
// present means built, otherwise the install is treated as unbuilt. The
// caller has already established that the Install Root itself exists.
func ReadState(layout Layout) StateRecord {
	data, err := os.ReadFile(layout.StatePath)
	if err == nil {
		var rec StateRecord
		if err := msgpack.Unmarshal(data, &rec); err == nil {
			return rec
		}
	}
	if _, err := os.Stat(layout.SentinelPath); err == nil {
		return StateRecord{Phase: PhaseInstalledBuilt}
	}
	return StateRecord{Phase: PhaseInstalledUnbuilt}
}

// WriteState persists the record atomically: encode to a temp file in the
// same directory, fsync, rename over the final path. When the record says
// built, the legacy sentinel is also touched for older tooling.
//
// The caller must only invoke this after the condition the record asserts
// is durably true (for PhaseInstalledBuilt: the artifact move succeeded).
func WriteState(layout Layout, rec StateRecord) error {
	data, err := msgpack.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("encoding state record: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(layout.StatePath), ".state-*")
	if err != nil {
		return fmt.Errorf("creating state temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing state record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing state record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing state record: %w", err)
	}
	if err := os.Rename(tmpName, layout.StatePath); err != nil {
		return fmt.Errorf("installing state record: %w", err)
	}

	if rec.Phase == PhaseInstalledBuilt {
		f, err := os.OpenFile(layout.SentinelPath, os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			f.Close()
		}
	}
	return nil
}

// ClearBuiltState removes the build completion markers so the next
// invocation re-enters the Build phase. Used by forced rebuilds.
func ClearBuiltState(layout Layout) error {
	if err := os.Remove(layout.StatePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Remove(layout.SentinelPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
