package entities

import "sort"

// ChangelogSection holds the rendered history of one changed package.
type ChangelogSection struct {
	Change  VersionChange
	Bump    BumpKind
	Commits []CommitRecord
}

// ChangelogReport is the ordered set of sections produced by one run.
type ChangelogReport struct {
	Sections []ChangelogSection
}

// NewChangelogReport orders the sections by package name so the report does not
// depend on the order in which histories were retrieved.
func NewChangelogReport(sections []ChangelogSection) ChangelogReport {
	ordered := make([]ChangelogSection, len(sections))
	copy(ordered, sections)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Change.Package < ordered[j].Change.Package
	})
	return ChangelogReport{Sections: ordered}
}

// IsEmpty reports whether the report has no sections.
func (r ChangelogReport) IsEmpty() bool {
	return len(r.Sections) == 0
}
