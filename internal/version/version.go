// Package version reports how the runlens binary was built.
//
// Release builds set the values below with -ldflags "-X". Builds made with
// go install fall back to the VCS stamp in the embedded build info.
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/Masterminds/semver/v3"

	"github.com/hupe1980/runlens/internal/pipelinerun"
)

var (
	version   = "dev"
	gitCommit = ""
	buildDate = ""
)

const unknown = "unknown"

// Info describes the running binary.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"gitCommit"`
	BuildDate  string `json:"buildDate"`
	GoVersion  string `json:"goVersion"`
	Platform   string `json:"platform"`
	TektonAPI  string `json:"tektonApi"`
	Prerelease bool   `json:"prerelease"`
}

// GetInfo returns the build information of the running binary.
func GetInfo() Info {
	commit, date := gitCommit, buildDate

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && commit == "":
				commit = s.Value
			case s.Key == "vcs.time" && date == "":
				date = s.Value
			}
		}
	}

	return newInfo(version, commit, date)
}

func newInfo(v, commit, date string) Info {
	if len(commit) > 7 {
		commit = commit[:7]
	}

	info := Info{
		Version:   v,
		GitCommit: orUnknown(commit),
		BuildDate: orUnknown(date),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		TektonAPI: pipelinerun.DefaultAPIVersion,
	}

	// Anything that is not a release version counts as a prerelease.
	sv, err := semver.NewVersion(v)
	info.Prerelease = err != nil || sv.Prerelease() != ""

	return info
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}

	return s
}

func (i Info) String() string {
	return fmt.Sprintf("runlens %s (commit: %s, built: %s, %s %s, %s)",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform, i.TektonAPI)
}

// JSON renders i as indented JSON.
func (i Info) JSON() (string, error) {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling version info: %w", err)
	}

	return string(data), nil
}
