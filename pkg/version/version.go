// Package version exposes the coinboard build version.
package version

// Version is the coinboard version string. It is overridden at release
// build time via -ldflags "-X github.com/coinboard/coinboard/pkg/version.Version=...".
//
//nolint:gochecknoglobals // Set by the linker.
var Version = "0.1.0-dev"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
