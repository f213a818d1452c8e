package config

import (
	"runtime/debug"
	"strings"
)

// Release builds stamp these with
//
//	-ldflags "-X pokewatch/internal/config.version=v1.4.0 -X pokewatch/internal/config.commit=<sha> -X pokewatch/internal/config.buildTime=<rfc3339>"
//
// Unstamped builds fall back to the VCS settings the go tool embeds.
var (
	version   = ""
	commit    = ""
	buildTime = ""

	readBuildInfo = debug.ReadBuildInfo
)

const devVersion = "dev"

// BuildInfo identifies the running binary. It is never read from the
// environment.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
	Modified  bool
}

// NewBuildInfo reports the stamped build metadata, filling gaps from the
// embedded VCS settings.
func NewBuildInfo() BuildInfo {
	b := BuildInfo{Version: version, Commit: commit, BuildTime: buildTime}
	if bi, ok := readBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if b.Commit == "" {
					b.Commit = s.Value
				}
			case "vcs.time":
				if b.BuildTime == "" {
					b.BuildTime = s.Value
				}
			case "vcs.modified":
				b.Modified = s.Value == "true"
			}
		}
	}
	if b.Version == "" {
		b.Version = devVersion
	}
	if len(b.Commit) > 12 {
		b.Commit = b.Commit[:12]
	}
	return b
}

// Released reports whether the binary carries a stamped version.
func (b BuildInfo) Released() bool {
	return b.Version != "" && b.Version != devVersion
}

// String renders the version as "v1.4.0 (a1b2c3d)", with "+dirty" for builds
// from a modified tree.
func (b BuildInfo) String() string {
	var sb strings.Builder
	sb.WriteString(b.Version)
	if b.Commit != "" {
		sb.WriteString(" (")
		sb.WriteString(b.Commit)
		if b.Modified {
			sb.WriteString("+dirty")
		}
		sb.WriteString(")")
	}
	return sb.String()
}
