// Package version reports build information injected at link time.
package version

import (
	"fmt"
	"runtime"
)

// Set with -ldflags "-X github.com/rshade/datasetctl/pkg/version.version=v1.2.3".
//
//nolint:gochecknoglobals // Populated by the linker.
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// GetVersion returns the release version.
func GetVersion() string {
	return version
}

// GetGitCommit returns the commit the binary was built from.
func GetGitCommit() string {
	return gitCommit
}

// GetBuildDate returns the build timestamp.
func GetBuildDate() string {
	return buildDate
}

// String returns the full version line printed by "datasetctl version".
func String() string {
	return fmt.Sprintf("datasetctl %s (commit %s, built %s, %s %s/%s)",
		version, gitCommit, buildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
