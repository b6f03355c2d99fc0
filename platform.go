package deskboot

import "fmt"

// Platform identifies a supported desktop platform family.
// The zero value is not a valid platform.
type Platform int

const (
	// PlatformUnknown is the zero value; DetectPlatform never returns it
	// without an error.
	PlatformUnknown Platform = iota

	// PlatformLinux covers desktop Linux distributions with apt and
	// freedesktop launch metadata.
	PlatformLinux

	// PlatformMac covers macOS.
	PlatformMac

	// PlatformWindows covers desktop Windows.
	PlatformWindows
)

// String returns the platform tag used in logs and generated files.
func (p Platform) String() string {
	switch p {
	case PlatformLinux:
		return "linux"
	case PlatformMac:
		return "macos"
	case PlatformWindows:
		return "windows"
	default:
		return "unknown"
	}
}

// DetectPlatform maps a GOOS identifier to a platform tag.
// Unsupported identifiers are an error; callers treat it as fatal before
// any side effect is performed.
func DetectPlatform(goos string) (Platform, error) {
	switch goos {
	case "linux":
		return PlatformLinux, nil
	case "darwin":
		return PlatformMac, nil
	case "windows":
		return PlatformWindows, nil
	default:
		return PlatformUnknown, fmt.Errorf("unsupported platform: %s", goos)
	}
}
