package deskboot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestParseVersion(t *testing.T) {
	cases := []struct {
		in   string
		want Version
	}{
		{"3.11.9", Version{3, 11, 9}},
		{"3.11", Version{3, 11, -1}},
		{"3", Version{3, -1, -1}},
		{"2.1.0-beta", Version{2, 1, 0}},
	}
	for _, c := range cases {
		got, err := ParseVersion(c.in)
		if err != nil {
			t.Errorf("ParseVersion(%q) returned error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseVersion(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestParseVersionInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "v3.11"} {
		if _, err := ParseVersion(in); err == nil {
			t.Errorf("ParseVersion(%q) should fail", in)
		}
	}
}

func TestParsePythonVersion(t *testing.T) {
	v, err := ParsePythonVersion("Python 3.11.9")
	if err != nil {
		t.Fatalf("ParsePythonVersion: %v", err)
	}
	if v != (Version{3, 11, 9}) {
		t.Errorf("got %+v", v)
	}
	for _, in := range []string{"python 3.11.9", "3.11.9", "Python"} {
		if _, err := ParsePythonVersion(in); err == nil {
			t.Errorf("ParsePythonVersion(%q) should fail", in)
		}
	}
}

func TestVersionSatisfies(t *testing.T) {
	req := Version{3, 11, -1}
	cases := []struct {
		v    Version
		want bool
	}{
		{Version{3, 11, 4}, true},
		{Version{3, 12, 0}, true},
		{Version{3, 10, 9}, false},
		{Version{2, 11, 0}, false},
		{Version{4, 0, 0}, false},
	}
	for _, c := range cases {
		if got := c.v.Satisfies(req); got != c.want {
			t.Errorf("%s.Satisfies(%s) = %v, want %v", c.v.String(), req.String(), got, c.want)
		}
	}
}

func TestReadVersionFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "version.txt")

	if got := ReadVersionFile(path); got != "0.0.0" {
		t.Errorf("missing file: got %q, want 0.0.0", got)
	}

	if err := os.WriteFile(path, []byte("1.2.3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := ReadVersionFile(path); got != "1.2.3" {
		t.Errorf("got %q, want 1.2.3", got)
	}

	if err := os.WriteFile(path, []byte("   \n"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := ReadVersionFile(path); got != "0.0.0" {
		t.Errorf("blank file: got %q, want 0.0.0", got)
	}
}

func genVersion() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 20),
		gen.IntRange(0, 30),
		gen.IntRange(0, 50),
	).Map(func(vals []interface{}) Version {
		return Version{Major: vals[0].(int), Minor: vals[1].(int), Patch: vals[2].(int)}
	})
}

func TestVersionCompare_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("compare is antisymmetric", prop.ForAll(
		func(a, b Version) bool {
			return a.Compare(b) == -b.Compare(a)
		},
		genVersion(), genVersion(),
	))

	properties.Property("compare with self is zero", prop.ForAll(
		func(a Version) bool {
			return a.Compare(a) == 0
		},
		genVersion(),
	))

	properties.Property("string round-trips through parse", prop.ForAll(
		func(a Version) bool {
			parsed, err := ParseVersion(a.String())
			return err == nil && parsed.Compare(a) == 0
		},
		genVersion(),
	))

	properties.TestingRun(t)
}
