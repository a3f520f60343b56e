// Package buildinfo carries the build stamp, set with
//
//	-ldflags "-X quarktrail/internal/buildinfo.Version=v0.3.0 -X quarktrail/internal/buildinfo.Commit=abc1234"
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Short returns a compact build identifier for the HUD and logs: the version
// when stamped, else the commit, else the VCS revision recorded by the Go
// toolchain, else "dev".
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	if rev := vcsRevision(); rev != "" {
		return rev
	}
	return "dev"
}

// Long describes the build for -version.
func Long() string {
	return fmt.Sprintf("quarktrail %s (commit %s, built %s)", Version, Commit, Date)
}

func vcsRevision() string {
	bi, ok := readBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			if len(s.Value) > 7 {
				return s.Value[:7]
			}
			return s.Value
		}
	}
	return ""
}
