// Package buildinfo exposes the build-time identity of the extform binary
// itself, as opposed to the product version the resolver computes.
package buildinfo

import "runtime"

// Injected via -ldflags; the defaults identify a from-source dev build.
var (
	version   = "0.1.0-dev"
	commit    = ""
	date      = ""
	builtBy   = ""
	goVersion = ""
)

// Version returns the semantic version string.
func Version() string {
	return version
}

// VersionSimple returns the version with an abbreviated commit hash, the
// form printed by --version.
func VersionSimple() string {
	v := version
	if commit != "" {
		short := commit
		if len(short) > 7 {
			short = short[:7]
		}
		v += " (" + short + ")"
	}
	return v
}

// VersionDetailed returns the version with full build metadata when present.
func VersionDetailed() string {
	v := version
	if commit != "" {
		v += " (" + commit
		if date != "" {
			v += ", " + date
		}
		if builtBy != "" {
			v += ", " + builtBy
		}
		v += ")"
	}
	return v
}

// GoVersion returns the toolchain recorded at build time, falling back to
// the runtime's version for dev builds.
func GoVersion() string {
	if goVersion != "" {
		return goVersion
	}
	return runtime.Version()
}

// Commit returns the full commit hash, empty for dev builds.
func Commit() string { return commit }

// BuildDate returns the build date, empty for dev builds.
func BuildDate() string { return date }

// BuiltBy returns the builder identifier, empty for dev builds.
func BuiltBy() string { return builtBy }
