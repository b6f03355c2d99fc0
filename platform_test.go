package deskboot

import "testing"

func TestDetectPlatform(t *testing.T) {
	cases := []struct {
		goos string
		want Platform
	}{
		{"linux", PlatformLinux},
		{"darwin", PlatformMac},
		{"windows", PlatformWindows},
	}
	for _, c := range cases {
		got, err := DetectPlatform(c.goos)
		if err != nil {
			t.Errorf("DetectPlatform(%q) returned error: %v", c.goos, err)
			continue
		}
		if got != c.want {
			t.Errorf("DetectPlatform(%q) = %v, want %v", c.goos, got, c.want)
		}
	}
}

func TestDetectPlatformUnsupported(t *testing.T) {
	for _, goos := range []string{"plan9", "js", "freebsd", ""} {
		if _, err := DetectPlatform(goos); err == nil {
			t.Errorf("DetectPlatform(%q) should fail", goos)
		}
	}
}

func TestPlatformString(t *testing.T) {
	if PlatformLinux.String() != "linux" || PlatformMac.String() != "macos" || PlatformWindows.String() != "windows" {
		t.Errorf("unexpected platform tags: %s %s %s", PlatformLinux, PlatformMac, PlatformWindows)
	}
	if PlatformUnknown.String() != "unknown" {
		t.Errorf("zero platform should stringify as unknown, got %s", PlatformUnknown)
	}
}
