package entities

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

const (
	unreleasedHeading = "## [Unreleased]"
	changedSubheading = "### Changed"
	releasePrefix     = "## ["
	bulletPrefix      = "- "

	sectionIcon   = "📁"
	addedMarker   = "✨"
	removedMarker = "🔥"
	absentDisplay = "∅"
	warningIcon   = "⚠️"
	indent        = "    "
	bodyBullet    = "* "
)

var (
	// releasePattern is the accepted shape of a release announcement summary:
	// "release: v1.2.3", case-insensitive keyword, optional "v", optional
	// prerelease/build suffix. Nothing else is grouped.
	releasePattern = regexp.MustCompile(`(?i)^release:\s*v?\d+\.\d+\.\d+(?:[-+][0-9A-Za-z.+-]+)?$`)

	headerPattern = regexp.MustCompile(`^` + sectionIcon + ` (\S+) \((\S+) -> (\S+)(?: (\S+))?\)$`)
)

// RenderOptions tunes the text output. Decorate, when set, is applied to each
// section header line (terminal styling).
type RenderOptions struct {
	Decorate func(string) string
}

// RenderChangelog renders the report as plain text: one section per package in
// report order, separated by a blank line. A section with no history is a
// single header line.
func RenderChangelog(report ChangelogReport, opts RenderOptions) string {
	sections := make([]string, 0, len(report.Sections))
	for _, section := range report.Sections {
		sections = append(sections, renderSection(section, opts))
	}
	return strings.Join(sections, "\n")
}

// SectionHeader formats the header line of a section:
// "📁 <package> (<old> -> <new> <marker>)".
func SectionHeader(section ChangelogSection) string {
	versions := fmt.Sprintf("%s -> %s",
		displayVersion(section.Change.OldVersion),
		displayVersion(section.Change.NewVersion),
	)
	if marker := sectionMarker(section); marker != "" {
		versions += " " + marker
	}
	return fmt.Sprintf("%s %s (%s)", sectionIcon, section.Change.Package, versions)
}

// ParseSectionHeader recovers the version change from a header line produced
// by SectionHeader.
func ParseSectionHeader(line string) (VersionChange, bool) {
	match := headerPattern.FindStringSubmatch(strings.TrimSpace(line))
	if match == nil {
		return VersionChange{}, false
	}
	return VersionChange{
		Package:    match[1],
		OldVersion: parseDisplayVersion(match[2]),
		NewVersion: parseDisplayVersion(match[3]),
	}, true
}

// IsReleaseAnnouncement reports whether a summary is a "release: vX.Y.Z" line.
func IsReleaseAnnouncement(summary string) bool {
	return releasePattern.MatchString(strings.TrimSpace(summary))
}

// ChangelogEntries converts a report into Keep-a-Changelog bullet lines.
func ChangelogEntries(report ChangelogReport) []string {
	entries := make([]string, 0, len(report.Sections))
	for _, section := range report.Sections {
		change := section.Change
		switch {
		case change.IsAddition():
			entries = append(entries, fmt.Sprintf("%sadded `%s` at `%s`", bulletPrefix, change.Package, change.NewVersion))
		case change.IsRemoval():
			entries = append(entries, fmt.Sprintf("%sremoved `%s` (was `%s`)", bulletPrefix, change.Package, change.OldVersion))
		default:
			entries = append(entries, fmt.Sprintf(
				"%schanged `%s` from `%s` to `%s`",
				bulletPrefix, change.Package, change.OldVersion, change.NewVersion,
			))
		}
	}
	return entries
}

func renderSection(section ChangelogSection, opts RenderOptions) string {
	header := SectionHeader(section)
	if opts.Decorate != nil {
		header = opts.Decorate(header)
	}

	body := renderCommits(dedupCommits(section.Commits))
	if len(body) == 0 {
		return header + "\n"
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for _, line := range body {
		if line != "" {
			b.WriteString(indent)
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderCommits lays out the entries of a section. Consecutive release
// announcements form a group header preceded by a blank line, summaries
// follow each other directly, and a commit body is a bulleted block wrapped
// in blank lines.
func renderCommits(commits []CommitRecord) []string {
	var lines []string
	blank := func() {
		if len(lines) > 0 && lines[len(lines)-1] != "" {
			lines = append(lines, "")
		}
	}

	inRelease := false
	for _, commit := range commits {
		switch {
		case commit.Warning:
			inRelease = false
			lines = append(lines, warningIcon+" "+commit.Summary)
		case IsReleaseAnnouncement(commit.Summary):
			if !inRelease {
				blank()
			}
			inRelease = true
			lines = append(lines, commit.Summary)
		default:
			inRelease = false
			lines = append(lines, commit.Summary)
			if len(commit.Body) > 0 {
				lines = append(lines, "")
				for _, item := range commit.Body {
					lines = append(lines, bodyBullet+item)
				}
				lines = append(lines, "")
			}
		}
	}

	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// dedupCommits drops records whose trimmed summary was already seen, keeping
// the first occurrence.
func dedupCommits(commits []CommitRecord) []CommitRecord {
	seen := make(map[string]struct{}, len(commits))
	result := make([]CommitRecord, 0, len(commits))
	for _, commit := range commits {
		key := strings.TrimSpace(commit.Summary)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		commit.Summary = key
		result = append(result, commit)
	}
	return result
}

func sectionMarker(section ChangelogSection) string {
	switch {
	case section.Change.IsAddition():
		return addedMarker
	case section.Change.IsRemoval():
		return removedMarker
	default:
		return section.Bump.Marker()
	}
}

func displayVersion(version string) string {
	if version == AbsentVersion {
		return absentDisplay
	}
	return version
}

func parseDisplayVersion(display string) string {
	if display == absentDisplay {
		return AbsentVersion
	}
	return display
}

// InsertChangelogEntry adds entries after the last bullet of the
// "### Changed" subsection of the "## [Unreleased]" release of a
// Keep-a-Changelog document, creating the subsection when it is missing.
// A document without an Unreleased release is returned unchanged.
func InsertChangelogEntry(content string, entries []string) string {
	if len(entries) == 0 {
		return content
	}

	lines := strings.Split(content, "\n")
	start := slices.IndexFunc(lines, func(line string) bool {
		return strings.TrimSpace(line) == unreleasedHeading
	})
	if start < 0 {
		return content
	}

	end := len(lines)
	if next := slices.IndexFunc(lines[start+1:], isReleaseHeading); next >= 0 {
		end = start + 1 + next
	}

	changed := slices.IndexFunc(lines[start:end], func(line string) bool {
		return strings.TrimSpace(line) == changedSubheading
	})
	if changed < 0 {
		// no ### Changed subsection yet, create one after ## [Unreleased]
		block := append([]string{"", changedSubheading, ""}, entries...)
		return strings.Join(slices.Insert(lines, start+1, block...), "\n")
	}

	bodyStart := start + changed + 1
	at := bodyStart + lastBulletOffset(lines[bodyStart:end])
	return strings.Join(slices.Insert(lines, at, entries...), "\n")
}

func isReleaseHeading(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), releasePrefix)
}

// lastBulletOffset counts the lines of a subsection body up to and including
// its last bullet. Blank lines between bullets are skipped and any other line
// ends the subsection.
func lastBulletOffset(body []string) int {
	offset := 0
	for i, line := range body {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
		case strings.HasPrefix(trimmed, bulletPrefix):
			offset = i + 1
		default:
			return offset
		}
	}
	return offset
}
