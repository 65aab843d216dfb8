package version

import (
	"runtime/debug"
	"strings"
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	stamped := &debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "vcs.time", Value: "2026-03-04T05:06:07Z"},
		},
	}

	tests := []struct {
		name        string
		version     string
		commit      string
		bi          *debug.BuildInfo
		wantVersion string
		wantCommit  string
		wantDirty   bool
	}{
		{"ldflags win", "v1.2.3", "abc1234", stamped, "v1.2.3", "abc1234", true},
		{"vcs stamp", "", "", stamped, "dev-20260304", "0123456", true},
		{"module version", "", "", &debug.BuildInfo{Main: debug.Module{Version: "v0.4.0"}}, "v0.4.0", "unknown", false},
		{"nothing", "", "", nil, "dev", "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolve(tt.version, tt.commit, tt.bi)
			if got.Version != tt.wantVersion {
				t.Errorf("Version = %q, want %q", got.Version, tt.wantVersion)
			}
			if got.Commit != tt.wantCommit {
				t.Errorf("Commit = %q, want %q", got.Commit, tt.wantCommit)
			}
			if got.Dirty != tt.wantDirty {
				t.Errorf("Dirty = %v, want %v", got.Dirty, tt.wantDirty)
			}
			if got.GoVersion == "" {
				t.Error("GoVersion is empty")
			}
		})
	}
}

func TestBuildInfoString(t *testing.T) {
	b := BuildInfo{Version: "v1.0.0", Commit: "abc1234", Dirty: true, BuiltAt: time.Now()}
	if got := b.String(); got != "v1.0.0 (commit: abc1234-dirty)" {
		t.Errorf("String() = %q", got)
	}
	if !strings.HasPrefix(Info().String(), Info().Version) {
		t.Errorf("Info().String() = %q", Info().String())
	}
}
