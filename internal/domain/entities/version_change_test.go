//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
)

func TestDiff(t *testing.T) {
	t.Parallel()

	t.Run("should report changed, added and removed packages ordered by name", func(t *testing.T) {
		t.Parallel()

		// given
		older := entities.NewDependencySnapshot("HEAD", map[string]string{
			"requests": "2.31.0",
			"django":   "4.2.1",
			"six":      "1.16.0",
			"urllib3":  "2.0.7",
		})
		newer := entities.NewDependencySnapshot("", map[string]string{
			"requests": "2.32.0",
			"django":   "5.0.0",
			"urllib3":  "2.0.7",
			"attrs":    "23.2.0",
		})

		// when
		changes := entities.Diff(older, newer, "")

		// then
		assert.Equal(t, []entities.VersionChange{
			{Package: "attrs", OldVersion: entities.AbsentVersion, NewVersion: "23.2.0"},
			{Package: "django", OldVersion: "4.2.1", NewVersion: "5.0.0"},
			{Package: "requests", OldVersion: "2.31.0", NewVersion: "2.32.0"},
			{Package: "six", OldVersion: "1.16.0", NewVersion: entities.AbsentVersion},
		}, changes)
	})

	t.Run("should never report a package whose version is unchanged", func(t *testing.T) {
		t.Parallel()

		// given
		versions := map[string]string{"a": "1.0.0", "b": "not-semver", "c": "v2"}
		older := entities.NewDependencySnapshot("HEAD", versions)
		newer := entities.NewDependencySnapshot("", versions)

		// when
		changes := entities.Diff(older, newer, "")

		// then
		assert.Empty(t, changes)
	})

	t.Run("should return an empty result when only packages outside the filter changed", func(t *testing.T) {
		t.Parallel()

		// given
		older := entities.NewDependencySnapshot("HEAD", map[string]string{"invenio-app": "1.0.0", "flask": "2.0.0"})
		newer := entities.NewDependencySnapshot("", map[string]string{"invenio-app": "1.0.0", "flask": "3.0.0"})

		// when
		changes := entities.Diff(older, newer, "invenio")

		// then
		require.NotNil(t, changes)
		assert.Empty(t, changes)
	})

	t.Run("should keep only packages matching a glob filter", func(t *testing.T) {
		t.Parallel()

		// given
		older := entities.NewDependencySnapshot("HEAD", map[string]string{
			"github.com/acme/lib":  "v1.0.0",
			"github.com/other/lib": "v1.0.0",
			"golang.org/x/mod":     "v0.30.0",
		})
		newer := entities.NewDependencySnapshot("", map[string]string{
			"github.com/acme/lib":  "v1.1.0",
			"github.com/other/lib": "v2.0.0",
			"golang.org/x/mod":     "v0.34.0",
		})

		// when
		changes := entities.Diff(older, newer, "github.com/acme/*")

		// then
		require.Len(t, changes, 1)
		assert.Equal(t, "github.com/acme/lib", changes[0].Package)
	})

	t.Run("should not depend on map iteration order", func(t *testing.T) {
		t.Parallel()

		// given
		older := entities.NewDependencySnapshot("HEAD", map[string]string{"z": "1", "m": "1", "a": "1", "q": "1"})
		newer := entities.NewDependencySnapshot("", map[string]string{"z": "2", "m": "2", "a": "2", "q": "2"})

		// when
		first := entities.Diff(older, newer, "")
		second := entities.Diff(older, newer, "")

		// then
		assert.Equal(t, first, second)
		assert.Equal(t, "a", first[0].Package)
		assert.Equal(t, "z", first[3].Package)
	})
}

func TestVersionChange(t *testing.T) {
	t.Parallel()

	t.Run("should recognize additions and removals", func(t *testing.T) {
		t.Parallel()

		// given
		added := entities.VersionChange{Package: "a", NewVersion: "1.0.0"}
		removed := entities.VersionChange{Package: "b", OldVersion: "1.0.0"}

		// when / then
		assert.True(t, added.IsAddition())
		assert.False(t, added.IsRemoval())
		assert.True(t, removed.IsRemoval())
		assert.False(t, removed.IsAddition())
	})

	t.Run("should classify its own bump", func(t *testing.T) {
		t.Parallel()

		// given
		change := entities.VersionChange{Package: "django", OldVersion: "4.0.0", NewVersion: "5.0.0"}

		// when
		bump := change.Bump()

		// then
		assert.Equal(t, entities.BumpMajor, bump)
	})
}

func TestMatchesPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pkg      string
		pattern  string
		expected bool
	}{
		{name: "should match everything with an empty pattern", pkg: "requests", pattern: "", expected: true},
		{name: "should match a substring", pkg: "invenio-records", pattern: "records", expected: true},
		{name: "should not match a missing substring", pkg: "requests", pattern: "django", expected: false},
		{name: "should match a prefix glob", pkg: "invenio-app", pattern: "invenio-*", expected: true},
		{name: "should anchor globs", pkg: "my-invenio-app", pattern: "invenio-*", expected: false},
		{name: "should match across slashes", pkg: "github.com/acme/tool", pattern: "github.com/*", expected: true},
		{name: "should match a single character", pkg: "lib1", pattern: "lib?", expected: true},
		{name: "should treat regexp characters literally", pkg: "a+b", pattern: "a+*", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// when
			result := entities.MatchesPattern(tt.pkg, tt.pattern)

			// then
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestDependencySnapshot(t *testing.T) {
	t.Parallel()

	t.Run("should copy its input and drop empty entries", func(t *testing.T) {
		t.Parallel()

		// given
		versions := map[string]string{"a": "1.0.0", "b": "", "": "2.0.0"}

		// when
		snapshot := entities.NewDependencySnapshot("HEAD", versions)
		versions["a"] = "9.9.9"

		// then
		version, ok := snapshot.Version("a")
		assert.True(t, ok)
		assert.Equal(t, "1.0.0", version)
		assert.Equal(t, []string{"a"}, snapshot.Names())
		assert.Equal(t, 1, snapshot.Len())
	})
}
