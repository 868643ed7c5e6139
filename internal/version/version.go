// Package version reports the build identity of the topology binaries.
//
// Release builds stamp Version and Commit with ldflags:
//
//	go build -ldflags="-X github.com/muurk/synapse-topology/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/synapse-topology/internal/version.Commit=1f3a9c2"
//
// Anything left empty is filled from the module's VCS stamp, and failing
// that from the clock.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

var (
	Version = ""
	Commit  = ""
)

// Info is the build identity printed by the version subcommands.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Dirty   bool   `json:"dirty,omitempty"`
}

var dirty bool

func init() {
	if bi, ok := debug.ReadBuildInfo(); ok {
		fill(bi.Settings)
	}
	if Version == "" {
		Version = "dev-" + time.Now().Format("20060102-150405")
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fill copies whatever the VCS stamp knows into the unset variables.
func fill(settings []debug.BuildSetting) {
	vcs := make(map[string]string, len(settings))
	for _, s := range settings {
		vcs[s.Key] = s.Value
	}

	if Commit == "" {
		if rev := vcs["vcs.revision"]; rev != "" {
			Commit = shortHash(rev)
			dirty = vcs["vcs.modified"] == "true"
		}
	}

	// build info carries no tags, so a dev build is named after its commit date
	if Version == "" {
		if t, err := time.Parse(time.RFC3339, vcs["vcs.time"]); err == nil {
			Version = "dev-" + t.Format("20060102")
		}
	}
}

func shortHash(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// Get returns the current build identity.
func Get() Info {
	return Info{Version: Version, Commit: Commit, Dirty: dirty}
}

// String formats the identity the way the version subcommands print it.
func (i Info) String() string {
	commit := i.Commit
	if i.Dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (commit: %s)", i.Version, commit)
}

// UserAgent is sent by topology-cfg on every API request.
func UserAgent() string {
	return "topology-cfg/" + Version
}
