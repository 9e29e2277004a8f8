// Package version reports the build version set at link time.
package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Version is overridden with -ldflags "-X deskbridge/internal/shared/version.Version=v1.2.3".
var Version = "dev"

// Normalize ensures version string has "v" prefix for semver compatibility.
// Examples: "1.2.3" -> "v1.2.3", "v1.2.3" -> "v1.2.3"
func Normalize(version string) string {
	if version == "" {
		return ""
	}
	version = strings.TrimSpace(version)
	if !strings.HasPrefix(version, "v") {
		return "v" + version
	}
	return version
}

// Get returns the canonical build version, or "dev" for unversioned builds.
func Get() string {
	v := Normalize(Version)
	if !semver.IsValid(v) {
		return "dev"
	}
	return semver.Canonical(v)
}

// IsRelease reports whether the build carries a release version without a
// prerelease suffix.
func IsRelease() bool {
	v := Get()
	return v != "dev" && semver.Prerelease(v) == ""
}
