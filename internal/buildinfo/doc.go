// Package buildinfo carries the version metadata stamped into the specsync
// binary at build time. The Makefile injects values with -ldflags -X; the
// defaults below are what a plain `go build` produces.
package buildinfo

var (
	// Version is the release tag or git describe output.
	Version = "dev"

	// Commit is the short git commit SHA.
	Commit = "unknown"

	// Date is the UTC build timestamp in RFC3339 format.
	Date = "unknown"
)
