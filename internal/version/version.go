// Package version holds build-time version information.
package version

// Populated at build time via -ldflags. Defaults identify development builds.
var (
	// Version is the semantic version of the build (e.g. "1.4.2").
	Version = "dev"

	// Commit is the short git commit hash of the build.
	Commit = "none"

	// BuildDate is the UTC build timestamp in RFC3339 format.
	BuildDate = "unknown"
)

// String returns the full version string for logs and the status API.
func String() string {
	return Version + " (" + Commit + ", " + BuildDate + ")"
}
