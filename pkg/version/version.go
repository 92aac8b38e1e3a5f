// Package version reports which build of lexmind is running. The commit
// hash comes from -ldflags when injected, otherwise from the VCS stamp the
// Go toolchain embeds, otherwise "dev".
package version

import "runtime/debug"

// AppName appears in version strings, log lines and the health endpoint.
const AppName = "lexmind"

// commitOverride is injected with
// -ldflags "-X .../pkg/version.commitOverride=<sha>" for builds that have
// no .git directory, such as container image builds.
var commitOverride string

// GitCommit is the short commit hash of this build, or "dev" when no
// revision is available (go test, non-git checkouts).
var GitCommit = resolveCommit()

// Full returns "lexmind/<commit>" for log lines and user-agent strings.
func Full() string {
	return AppName + "/" + GitCommit
}

func resolveCommit() string {
	if commitOverride != "" {
		return shortHash(commitOverride)
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				return shortHash(setting.Value)
			}
		}
	}
	return "dev"
}

func shortHash(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}
