// Package version reports the anthemctl build.
//
// Release builds set Version and Commit through ldflags:
//
//	go build -ldflags="-X github.com/muurk/anthemctl/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/anthemctl/internal/version.Commit=abc123"
//
// Other builds fall back to the VCS stamp the Go toolchain embeds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"
)

// Set at build time.
var (
	Version = ""
	Commit  = ""
)

// BuildInfo is the version information reported by the relay hello message
// and the version command.
type BuildInfo struct {
	Version   string    `json:"version"`
	Commit    string    `json:"commit"`
	Dirty     bool      `json:"dirty,omitempty"`
	BuiltAt   time.Time `json:"built_at"`
	GoVersion string    `json:"go_version"`
}

// String formats the build as "v1.2.3 (commit: abc1234)".
func (b BuildInfo) String() string {
	commit := b.Commit
	if b.Dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (commit: %s)", b.Version, commit)
}

var (
	infoOnce sync.Once
	info     BuildInfo
)

// Info returns the build information, resolving it on first use.
func Info() BuildInfo {
	infoOnce.Do(func() {
		bi, _ := debug.ReadBuildInfo()
		info = resolve(Version, Commit, bi)
	})
	return info
}

// resolve merges ldflags values with the embedded VCS settings.
func resolve(version, commit string, bi *debug.BuildInfo) BuildInfo {
	out := BuildInfo{Version: version, Commit: commit, GoVersion: runtime.Version()}

	if bi != nil {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if out.Commit == "" {
					out.Commit = shortHash(s.Value)
				}
			case "vcs.modified":
				out.Dirty = s.Value == "true"
			case "vcs.time":
				if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
					out.BuiltAt = t
				}
			}
		}
		if out.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			out.Version = bi.Main.Version
		}
	}

	if out.Version == "" {
		out.Version = "dev"
		if !out.BuiltAt.IsZero() {
			out.Version = "dev-" + out.BuiltAt.Format("20060102")
		}
	}
	if out.Commit == "" {
		out.Commit = "unknown"
	}
	return out
}

func shortHash(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
