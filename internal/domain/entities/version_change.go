package entities

import (
	"regexp"
	"sort"
	"strings"
)

// VersionChange is a package whose pinned version moved between two snapshots.
// OldVersion and NewVersion are never equal; either side may be AbsentVersion.
type VersionChange struct {
	Package    string
	OldVersion string
	NewVersion string
}

// IsAddition reports whether the package only exists in the newer snapshot.
func (c VersionChange) IsAddition() bool {
	return c.OldVersion == AbsentVersion
}

// IsRemoval reports whether the package only exists in the older snapshot.
func (c VersionChange) IsRemoval() bool {
	return c.NewVersion == AbsentVersion
}

// Bump classifies the magnitude of the change.
func (c VersionChange) Bump() BumpKind {
	return Classify(c.OldVersion, c.NewVersion)
}

// Diff returns the packages matching namePattern whose version differs between
// older and newer, ordered by package name. Packages declared on one side only
// are reported with the other side set to AbsentVersion.
func Diff(older, newer DependencySnapshot, namePattern string) []VersionChange {
	seen := make(map[string]struct{}, older.Len()+newer.Len())
	for _, name := range older.Names() {
		seen[name] = struct{}{}
	}
	for _, name := range newer.Names() {
		seen[name] = struct{}{}
	}

	changes := make([]VersionChange, 0)
	for name := range seen {
		if !MatchesPattern(name, namePattern) {
			continue
		}

		oldVersion, _ := older.Version(name)
		newVersion, _ := newer.Version(name)
		if oldVersion == newVersion {
			continue
		}

		changes = append(changes, VersionChange{
			Package:    name,
			OldVersion: oldVersion,
			NewVersion: newVersion,
		})
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Package < changes[j].Package
	})
	return changes
}

// MatchesPattern applies the package filter. A pattern holding glob wildcards
// must match the whole name, where "*" matches any run of characters (slashes
// included) and "?" exactly one. Any other pattern is a substring filter and
// the empty pattern matches everything.
func MatchesPattern(name, pattern string) bool {
	if pattern == "" {
		return true
	}
	if !strings.ContainsAny(pattern, "*?") {
		return strings.Contains(name, pattern)
	}

	expr := regexp.QuoteMeta(pattern)
	expr = strings.ReplaceAll(expr, `\*`, ".*")
	expr = strings.ReplaceAll(expr, `\?`, ".")
	return regexp.MustCompile("^" + expr + "$").MatchString(name)
}
