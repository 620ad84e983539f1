package toolchain

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Platform identifies a supported host toolchain family.
type Platform int

const (
	Darwin Platform = iota + 1
	Linux
)

var ErrUnsupportedPlatform = errors.New("unsupported platform")

// UnsupportedPlatformError reports a platform no toolchain is known for.
type UnsupportedPlatformError struct {
	Name string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform %q", e.Name)
}

func (e *UnsupportedPlatformError) Is(target error) bool {
	return target == ErrUnsupportedPlatform
}

func (p Platform) String() string {
	switch p {
	case Darwin:
		return "darwin"
	case Linux:
		return "linux"
	default:
		return fmt.Sprintf("Platform(%d)", int(p))
	}
}

// ParsePlatform maps a GOOS-style name to a Platform.
func ParsePlatform(name string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "darwin", "macos":
		return Darwin, nil
	case "linux":
		return Linux, nil
	default:
		return 0, &UnsupportedPlatformError{Name: name}
	}
}

// HostPlatform returns the platform the process runs on.
func HostPlatform() (Platform, error) {
	return ParsePlatform(runtime.GOOS)
}
