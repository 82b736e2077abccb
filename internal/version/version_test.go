package version

import (
	"runtime/debug"
	"testing"
)

func TestResolve(t *testing.T) {
	origRead := readBuildInfo
	origVersion, origCommit, origTime := Version, Commit, BuildTime
	t.Cleanup(func() {
		readBuildInfo = origRead
		Version, Commit, BuildTime = origVersion, origCommit, origTime
	})

	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			Main: debug.Module{Version: "(devel)"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef0123"},
				{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
				{Key: "vcs.modified", Value: "true"},
			},
		}, true
	}

	tests := []struct {
		name                    string
		version, commit, built  string
		wantVersion, wantString string
		wantCommit, wantBuilt   string
	}{
		{
			name:        "build info fallback",
			wantVersion: "dev",
			wantCommit:  "0123456789abcdef0123",
			wantBuilt:   "2026-10-01T12:00:00Z",
			wantString:  "dev (0123456789ab-dirty)",
		},
		{
			name:        "ldflags win",
			version:     "v0.3.0",
			commit:      "abc",
			built:       "yesterday",
			wantVersion: "v0.3.0",
			wantCommit:  "abc",
			wantBuilt:   "yesterday",
			wantString:  "v0.3.0 (abc-dirty)",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			Version, Commit, BuildTime = tc.version, tc.commit, tc.built
			info := Resolve()
			if info.Version != tc.wantVersion || info.Commit != tc.wantCommit || info.BuildTime != tc.wantBuilt {
				t.Fatalf("Resolve() = %+v", info)
			}
			if info.GoVersion == "" {
				t.Fatalf("missing go version")
			}
			if got := String(); got != tc.wantString {
				t.Fatalf("String() = %q, want %q", got, tc.wantString)
			}
		})
	}
}

func TestResolveWithoutBuildInfo(t *testing.T) {
	origRead := readBuildInfo
	origVersion, origCommit := Version, Commit
	t.Cleanup(func() {
		readBuildInfo = origRead
		Version, Commit = origVersion, origCommit
	})
	readBuildInfo = func() (*debug.BuildInfo, bool) { return nil, false }
	Version, Commit = "", ""

	if got := String(); got != "dev" {
		t.Fatalf("String() = %q, want dev", got)
	}
}
