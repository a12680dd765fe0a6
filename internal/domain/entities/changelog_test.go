//go:build unit

package entities_test

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
)

func mixedReport() entities.ChangelogReport {
	return entities.NewChangelogReport([]entities.ChangelogSection{
		{
			Change: entities.VersionChange{Package: "requests", OldVersion: "2.31.0", NewVersion: "2.32.0"},
			Bump:   entities.BumpMinor,
			Commits: []entities.CommitRecord{
				entities.NewUnavailableRecord("requests", "rate limit exceeded"),
			},
		},
		{
			Change: entities.VersionChange{Package: "oldpkg", OldVersion: "2.0.0", NewVersion: entities.AbsentVersion},
			Bump:   entities.BumpNonSemver,
		},
		{
			Change: entities.VersionChange{Package: "django", OldVersion: "4.2.1", NewVersion: "5.0.0"},
			Bump:   entities.BumpMajor,
			Commits: []entities.CommitRecord{
				{Package: "django", Summary: "release: v5.0.0"},
				{
					Package: "django",
					Summary: "Fixed ORM regression (django/django#123)",
					Body:    []string{"item one", "item two"},
				},
				{Package: "django", Summary: "Added async views"},
			},
		},
		{
			Change: entities.VersionChange{Package: "newpkg", OldVersion: entities.AbsentVersion, NewVersion: "1.0.0"},
			Bump:   entities.BumpNonSemver,
		},
	})
}

func TestRenderChangelog(t *testing.T) {
	t.Parallel()

	t.Run("should render a report with every kind of section", func(t *testing.T) {
		t.Parallel()

		// given
		report := mixedReport()

		// when
		rendered := entities.RenderChangelog(report, entities.RenderOptions{})

		// then
		g := goldie.New(t)
		g.Assert(t, "changelog_mixed", []byte(rendered))
	})

	t.Run("should group release announcements and drop duplicate summaries", func(t *testing.T) {
		t.Parallel()

		// given
		report := entities.NewChangelogReport([]entities.ChangelogSection{{
			Change: entities.VersionChange{Package: "invenio-app", OldVersion: "1.0.0", NewVersion: "1.0.2"},
			Bump:   entities.BumpPatch,
			Commits: []entities.CommitRecord{
				{Package: "invenio-app", Summary: "Fixed a"},
				{Package: "invenio-app", Summary: "release: v1.0.1"},
				{Package: "invenio-app", Summary: "Release: 1.0.2"},
				{Package: "invenio-app", Summary: "Fixed a "},
				{Package: "invenio-app", Summary: "Fixed b"},
				entities.NewWarningRecord("invenio-app", "no tag for 1.0.2, history ends at the latest known commit"),
			},
		}})

		// when
		rendered := entities.RenderChangelog(report, entities.RenderOptions{})

		// then
		g := goldie.New(t)
		g.Assert(t, "changelog_release_groups", []byte(rendered))
	})

	t.Run("should render an empty report as empty text", func(t *testing.T) {
		t.Parallel()

		// when
		rendered := entities.RenderChangelog(entities.NewChangelogReport(nil), entities.RenderOptions{})

		// then
		assert.Empty(t, rendered)
	})

	t.Run("should decorate headers only", func(t *testing.T) {
		t.Parallel()

		// given
		report := mixedReport()
		decorate := func(s string) string { return "<u>" + s + "</u>" }

		// when
		rendered := entities.RenderChangelog(report, entities.RenderOptions{Decorate: decorate})

		// then
		assert.Contains(t, rendered, "<u>📁 django (4.2.1 -> 5.0.0 ⚠️)</u>\n")
		assert.Equal(t, len(report.Sections), strings.Count(rendered, "<u>"))
		assert.NotContains(t, rendered, "<u>    ")
	})

	t.Run("should produce identical output for identical reports", func(t *testing.T) {
		t.Parallel()

		// when
		first := entities.RenderChangelog(mixedReport(), entities.RenderOptions{})
		second := entities.RenderChangelog(mixedReport(), entities.RenderOptions{})

		// then
		assert.Equal(t, first, second)
	})

	t.Run("should emit a header only section for a package without history", func(t *testing.T) {
		t.Parallel()

		// given
		report := entities.NewChangelogReport([]entities.ChangelogSection{{
			Change: entities.VersionChange{Package: "attrs", OldVersion: "23.1.0", NewVersion: "23.2.0"},
			Bump:   entities.BumpMinor,
		}})

		// when
		rendered := entities.RenderChangelog(report, entities.RenderOptions{})

		// then
		assert.Equal(t, "📁 attrs (23.1.0 -> 23.2.0 🌈)\n", rendered)
	})
}

func TestParseSectionHeader(t *testing.T) {
	t.Parallel()

	t.Run("should recover every rendered version change", func(t *testing.T) {
		t.Parallel()

		for _, section := range mixedReport().Sections {
			// given
			header := entities.SectionHeader(section)

			// when
			change, ok := entities.ParseSectionHeader(header)

			// then
			require.True(t, ok, header)
			assert.Equal(t, section.Change, change)
		}
	})

	t.Run("should recover a change without marker", func(t *testing.T) {
		t.Parallel()

		// given
		section := entities.ChangelogSection{
			Change: entities.VersionChange{Package: "pkg", OldVersion: "1.0.0-rc.1", NewVersion: "1.0.0"},
			Bump:   entities.BumpPrerelease,
		}

		// when
		header := entities.SectionHeader(section)
		change, ok := entities.ParseSectionHeader(header)

		// then
		assert.Equal(t, "📁 pkg (1.0.0-rc.1 -> 1.0.0)", header)
		require.True(t, ok)
		assert.Equal(t, section.Change, change)
	})

	t.Run("should reject other lines", func(t *testing.T) {
		t.Parallel()

		// when
		_, ok := entities.ParseSectionHeader("    Fixed a bug (1.0 -> 2.0)")

		// then
		assert.False(t, ok)
	})
}

func TestIsReleaseAnnouncement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		summary  string
		expected bool
	}{
		{summary: "release: v1.2.3", expected: true},
		{summary: "Release: 1.2.3", expected: true},
		{summary: "release:v2.0.0-rc.1", expected: true},
		{summary: "  release: v1.0.0+build.5  ", expected: true},
		{summary: "release: v1.2", expected: false},
		{summary: "release: v1.2.3 with notes", expected: false},
		{summary: "prepare release: v1.2.3", expected: false},
	}

	for _, tt := range tests {
		t.Run("should classify "+tt.summary, func(t *testing.T) {
			t.Parallel()

			// when
			result := entities.IsReleaseAnnouncement(tt.summary)

			// then
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestChangelogEntries(t *testing.T) {
	t.Parallel()

	t.Run("should describe each change as a bullet", func(t *testing.T) {
		t.Parallel()

		// when
		entries := entities.ChangelogEntries(mixedReport())

		// then
		assert.Equal(t, []string{
			"- changed `django` from `4.2.1` to `5.0.0`",
			"- added `newpkg` at `1.0.0`",
			"- removed `oldpkg` (was `2.0.0`)",
			"- changed `requests` from `2.31.0` to `2.32.0`",
		}, entries)
	})
}

func TestInsertChangelogEntry(t *testing.T) {
	t.Parallel()

	t.Run("should insert entry into empty Unreleased section", func(t *testing.T) {
		t.Parallel()

		// given
		content := "# Changelog\n\n## [Unreleased]\n\n## [1.0.0] - 2026-01-01\n\n### Added\n\n- initial release\n"
		entries := []string{"- changed `django` from `4.2.1` to `5.0.0`"}

		// when
		result := entities.InsertChangelogEntry(content, entries)

		// then
		assert.Contains(t, result, "## [Unreleased]\n\n### Changed\n\n- changed `django`")
		assert.Contains(t, result, "## [1.0.0] - 2026-01-01")
	})

	t.Run("should append entries to existing Changed subsection", func(t *testing.T) {
		t.Parallel()

		// given
		content := "# Changelog\n\n## [Unreleased]\n\n### Changed\n\n- existing change\n\n## [1.0.0] - 2026-01-01\n"
		entries := []string{"- added `attrs` at `23.2.0`", "- removed `six` (was `1.16.0`)"}

		// when
		result := entities.InsertChangelogEntry(content, entries)

		// then
		assert.Contains(t, result, "- existing change\n- added `attrs` at `23.2.0`\n- removed `six`")
		assert.Contains(t, result, "## [1.0.0] - 2026-01-01")
	})

	t.Run("should return content unchanged when Unreleased section is missing", func(t *testing.T) {
		t.Parallel()

		// given
		content := "# Changelog\n\n## [1.0.0] - 2026-01-01\n"

		// when
		result := entities.InsertChangelogEntry(content, []string{"- changed `a` from `1` to `2`"})

		// then
		assert.Equal(t, content, result)
	})
}
