// Package version holds the build version reported by the CLI, the HTTP
// API and the mDNS advertisement.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/skylog/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/skylog/internal/version.Commit=abc123"
//
// Unset values come from the module's VCS build info, then "dev-<date>".
var (
	Version = ""
	Commit  = ""
)

func init() {
	if Version == "" || Commit == "" {
		v, c := fromBuildInfo()
		if Version == "" {
			Version = v
		}
		if Commit == "" {
			Commit = c
		}
	}
	if Version == "" {
		Version = fmt.Sprintf("dev-%s", time.Now().Format("20060102-150405"))
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fromBuildInfo derives a dev version from the commit time and a short,
// dirty-marked commit hash.
func fromBuildInfo() (version, commit string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}

	var revision, modified, vcsTime string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		case "vcs.time":
			vcsTime = s.Value
		}
	}

	if revision != "" {
		commit = revision
		if len(commit) > 7 {
			commit = commit[:7]
		}
		if modified == "true" {
			commit += "-dirty"
		}
	}
	if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
		version = "dev-" + t.Format("20060102")
	}
	return version, commit
}

// Info is the version payload of `skylog version --json` and /api/health.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the running binary's Info.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent is sent with outbound API requests.
func UserAgent() string {
	return "skylog/" + Version
}
