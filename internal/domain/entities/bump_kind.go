package entities

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// BumpKind is the magnitude of a version change.
type BumpKind int

const (
	BumpNonSemver BumpKind = iota
	BumpPrerelease
	BumpPatch
	BumpMinor
	BumpMajor
)

// String returns the lowercase name of the kind.
func (k BumpKind) String() string {
	switch k {
	case BumpMajor:
		return "major"
	case BumpMinor:
		return "minor"
	case BumpPatch:
		return "patch"
	case BumpPrerelease:
		return "prerelease"
	default:
		return "non-semver"
	}
}

// Marker returns the glyph shown next to a header for this kind. Prerelease and
// non-semver changes have no glyph.
func (k BumpKind) Marker() string {
	switch k {
	case BumpMajor:
		return "⚠️"
	case BumpMinor:
		return "🌈"
	case BumpPatch:
		return "🐛"
	default:
		return ""
	}
}

// Classify compares two version strings. Both must be strict MAJOR.MINOR.PATCH
// versions (an optional leading "v" is accepted) or the result is
// BumpNonSemver. A 0.x major bump is still BumpMajor. The result does not
// depend on argument order.
func Classify(oldVersion, newVersion string) BumpKind {
	older, err := parseStrict(oldVersion)
	if err != nil {
		return BumpNonSemver
	}
	newer, err := parseStrict(newVersion)
	if err != nil {
		return BumpNonSemver
	}

	switch {
	case older.Major() != newer.Major():
		return BumpMajor
	case older.Minor() != newer.Minor():
		return BumpMinor
	case older.Patch() != newer.Patch():
		return BumpPatch
	case older.Prerelease() != newer.Prerelease() || older.Metadata() != newer.Metadata():
		return BumpPrerelease
	default:
		// same parsed value, different literal
		return BumpNonSemver
	}
}

func parseStrict(version string) (*semver.Version, error) {
	return semver.StrictNewVersion(strings.TrimPrefix(strings.TrimSpace(version), "v"))
}
