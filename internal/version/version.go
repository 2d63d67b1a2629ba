// Package version provides version information for sndctl.
package version

import "fmt"

// These variables are set at build time using -ldflags
var (
	// Version is the semantic version (e.g., v1.0.0)
	Version = "dev"

	// BuildTime is the time the binary was built
	BuildTime = "unknown"

	// GitCommit is the git commit hash
	GitCommit = "unknown"
)

// Info returns version information as a map
func Info() map[string]string {
	return map[string]string{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}
}

// String formats the build information on one line.
func String() string {
	return fmt.Sprintf("sndctl %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
