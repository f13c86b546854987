package version

import "runtime/debug"

// These vars are set at build time via:
//
//	go build -ldflags "-X rowdb/version.Tag=v1.0.0 -X rowdb/version.GitCommit=abc1234 -X rowdb/version.BuildTime=2026-02-26T00:00:00Z"
var (
	Tag       = "dev"
	GitCommit = "" // empty = auto-detect from build info
	BuildTime = "" // empty = auto-detect from build info
)

func buildInfo() (commit, buildTime string) {
	commit, buildTime = GitCommit, BuildTime
	if commit == "" || buildTime == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					if commit == "" && len(s.Value) >= 8 {
						commit = s.Value[:8]
					}
				case "vcs.time":
					if buildTime == "" {
						buildTime = s.Value
					}
				}
			}
		}
	}
	if commit == "" {
		commit = "unknown"
	}
	if buildTime == "" {
		buildTime = "unknown"
	}
	return commit, buildTime
}

// String returns the version line shown in the shell banner.
func String() string {
	commit, buildTime := buildInfo()
	return "rowdb " + Tag + " (commit " + commit + ", built " + buildTime + ")"
}

// ServerVersion is reported to wire clients as server_version. Clients
// such as psql parse the leading number, so it starts with a PostgreSQL
// release.
func ServerVersion() string {
	return "15.0 (rowdb " + Tag + ")"
}
