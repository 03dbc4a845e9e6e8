// Package version exposes build information for the relay binaries.
//
// The variables are overridden at build time with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/darklock/relay/internal/version.Version=v1.2.0"
package version

var (
	// Version is the semantic version of the build.
	Version = "dev"

	// GitCommit is the short commit hash the binary was built from.
	GitCommit = "unknown"

	// BuildDate is the UTC build timestamp (RFC3339).
	BuildDate = "unknown"
)

// Info contains the build information for the running binary.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
}

// Get returns the build information.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	}
}
