package entities

import "sort"

// AbsentVersion marks the missing side of a dependency that was added or removed
// between two snapshots.
const AbsentVersion = ""

// DependencySnapshot is the package name -> pinned version mapping declared by a
// lockfile at one revision. It is never mutated after construction.
type DependencySnapshot struct {
	Revision string
	versions map[string]string
}

// NewDependencySnapshot copies the given versions into a new snapshot.
// Entries with an empty name or version are dropped.
func NewDependencySnapshot(revision string, versions map[string]string) DependencySnapshot {
	copied := make(map[string]string, len(versions))
	for name, version := range versions {
		if name == "" || version == AbsentVersion {
			continue
		}
		copied[name] = version
	}
	return DependencySnapshot{Revision: revision, versions: copied}
}

// Version returns the pinned version of a package and whether it is declared.
func (s DependencySnapshot) Version(name string) (string, bool) {
	version, ok := s.versions[name]
	return version, ok
}

// Names returns every declared package name in lexicographic order.
func (s DependencySnapshot) Names() []string {
	names := make([]string, 0, len(s.versions))
	for name := range s.versions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AnyMatches reports whether at least one declared package matches pattern.
func (s DependencySnapshot) AnyMatches(pattern string) bool {
	for name := range s.versions {
		if MatchesPattern(name, pattern) {
			return true
		}
	}
	return false
}

// Len returns the number of declared packages.
func (s DependencySnapshot) Len() int {
	return len(s.versions)
}
