package stage

import (
	"errors"
	"fmt"
	"strings"
)

// Platform is an Electron platform name.
type Platform string

const (
	// PlatformDarwin is macOS outside the Mac App Store.
	PlatformDarwin Platform = "darwin"
	// PlatformMAS is the Mac App Store variant of macOS.
	PlatformMAS Platform = "mas"
	// PlatformLinux is Linux.
	PlatformLinux Platform = "linux"
	// PlatformWindows is Windows, named the way Electron release archives name it.
	PlatformWindows Platform = "win32"
)

// ErrUnsupportedPlatform is returned for platform or arch names outside the known set.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Platforms lists every supported platform in a stable order.
func Platforms() []Platform {
	return []Platform{PlatformDarwin, PlatformMAS, PlatformLinux, PlatformWindows}
}

// ParsePlatform accepts Electron names as well as Go and common aliases
// ("mac", "macos", "win", "windows").
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "darwin", "mac", "macos", "osx":
		return PlatformDarwin, nil
	case "mas":
		return PlatformMAS, nil
	case "linux":
		return PlatformLinux, nil
	case "win32", "win", "windows":
		return PlatformWindows, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, s)
	}
}

// String returns the Electron name of the platform.
func (p Platform) String() string {
	return string(p)
}

// IsMac reports whether the platform produces a macOS bundle (darwin or mas).
func (p Platform) IsMac() bool {
	return p == PlatformDarwin || p == PlatformMAS
}

// Valid reports whether p is one of Platforms().
func (p Platform) Valid() bool {
	switch p {
	case PlatformDarwin, PlatformMAS, PlatformLinux, PlatformWindows:
		return true
	default:
		return false
	}
}

// ParseArch maps Go GOARCH values and Electron arch names to Electron arch names.
func ParseArch(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x64", "amd64", "x86_64":
		return "x64", nil
	case "ia32", "386", "x86":
		return "ia32", nil
	case "arm64", "aarch64":
		return "arm64", nil
	case "armv7l", "arm":
		return "armv7l", nil
	case "universal":
		return "universal", nil
	default:
		return "", fmt.Errorf("%w: arch %q", ErrUnsupportedPlatform, s)
	}
}
