package config

import (
	"runtime/debug"
	"testing"
)

func stubBuild(t *testing.T, ver, sha, at string, settings ...debug.BuildSetting) {
	t.Helper()
	oldV, oldC, oldT, oldRead := version, commit, buildTime, readBuildInfo
	t.Cleanup(func() { version, commit, buildTime, readBuildInfo = oldV, oldC, oldT, oldRead })
	version, commit, buildTime = ver, sha, at
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: settings}, len(settings) > 0
	}
}

func TestNewBuildInfo(t *testing.T) {
	vcs := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		{Key: "vcs.time", Value: "2024-05-30T08:00:00Z"},
		{Key: "vcs.modified", Value: "true"},
	}

	tests := []struct {
		name     string
		ver, sha string
		at       string
		settings []debug.BuildSetting
		want     BuildInfo
		wantStr  string
		wantRel  bool
	}{
		{
			name:    "nothing stamped",
			want:    BuildInfo{Version: "dev"},
			wantStr: "dev",
		},
		{
			name:     "vcs fallback",
			settings: vcs,
			want:     BuildInfo{Version: "dev", Commit: "0123456789ab", BuildTime: "2024-05-30T08:00:00Z", Modified: true},
			wantStr:  "dev (0123456789ab+dirty)",
		},
		{
			name:     "ldflags win over vcs",
			ver:      "v1.4.0",
			sha:      "a1b2c3d",
			at:       "2024-06-01T12:00:00Z",
			settings: vcs[:2],
			want:     BuildInfo{Version: "v1.4.0", Commit: "a1b2c3d", BuildTime: "2024-06-01T12:00:00Z"},
			wantStr:  "v1.4.0 (a1b2c3d)",
			wantRel:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubBuild(t, tt.ver, tt.sha, tt.at, tt.settings...)

			got := NewBuildInfo()
			if got != tt.want {
				t.Errorf("NewBuildInfo() = %+v, want %+v", got, tt.want)
			}
			if s := got.String(); s != tt.wantStr {
				t.Errorf("String() = %q, want %q", s, tt.wantStr)
			}
			if got.Released() != tt.wantRel {
				t.Errorf("Released() = %v, want %v", got.Released(), tt.wantRel)
			}
		})
	}
}
