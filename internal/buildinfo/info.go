// Package buildinfo carries version metadata stamped in via ldflags.
package buildinfo

var (
	// Version of the bankfeed binary, set during release builds.
	Version = "dev"
	// Commit hash the binary was built from.
	Commit = "none"
	// Date of the build.
	Date = "unknown"
)
