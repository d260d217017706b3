// Package version holds build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/studysearch/internal/version.Version=v1.2.0
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String returns a one-line build description.
func String() string {
	return fmt.Sprintf("studysearch %s (commit: %s, built: %s)", Version, Commit, Date)
}
