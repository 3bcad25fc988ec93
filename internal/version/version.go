// Package version holds build metadata, set at link time:
//
//	go build -ldflags "-X github.com/banshee-data/navmodel/internal/version.Version=v0.3.0" ./cmd/navmodeld
package version

import "fmt"

var (
	// Version is the release version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build metadata for startup logs.
func String() string {
	return fmt.Sprintf("%s (%s, built %s)", Version, GitSHA, BuildTime)
}
