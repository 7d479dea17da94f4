// Package buildinfo provides build-time version information.
//
// Variables are set via ldflags during build:
//
//	go build -ldflags "-X github.com/rubyelders/rb/pkg/buildinfo.Version=v0.1.0 \
//	    -X github.com/rubyelders/rb/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/rubyelders/rb/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release version (e.g., "v0.1.0").
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// Platform returns the GOOS/GOARCH pair the binary was built for.
func Platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// String returns the formatted build information.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s\nplatform: %s\ngo: %s",
		Version, Commit, Date, Platform(), runtime.Version())
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
