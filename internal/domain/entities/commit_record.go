package entities

import (
	"regexp"
	"strings"
)

const unavailablePrefix = "history unavailable: "

var (
	// a bare "#123" that follows the start of the text, a space or "(".
	bareReferencePattern = regexp.MustCompile(`(^|[\s(])#(\d+)`)
	// "owner/repo#123" or a bare "#123" at the same positions.
	referencePattern = regexp.MustCompile(`(?:^|[\s(])((?:[\w.-]+/[\w.-]+)?#\d+)`)
	coAuthoredPattern = regexp.MustCompile(`(?i)co-authored`)
)

// Commit is a raw commit as returned by a source provider.
type Commit struct {
	SHA     string
	Message string
}

// CommitRecord is one rendered history entry of a package.
type CommitRecord struct {
	Package   string
	Summary   string
	Body      []string
	Reference string
	Warning   bool
}

// NewCommitRecord builds a record from a full commit message. The first line
// becomes the summary and the remaining non-empty lines the body, without
// co-author trailers. When repoFullName is set, bare "#123" references are
// rewritten to "owner/repo#123".
func NewCommitRecord(pkg, message, repoFullName string) CommitRecord {
	if repoFullName != "" {
		message = bareReferencePattern.ReplaceAllString(message, "${1}"+repoFullName+"#${2}")
	}

	lines := strings.Split(strings.TrimSpace(message), "\n")
	record := CommitRecord{
		Package:   pkg,
		Summary:   strings.TrimSpace(lines[0]),
		Reference: ExtractReference(message),
	}

	for _, line := range lines[1:] {
		if coAuthoredPattern.MatchString(line) {
			continue
		}
		trimmed := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*"))
		if trimmed == "" {
			continue
		}
		record.Body = append(record.Body, trimmed)
	}

	return record
}

// NewWarningRecord builds a synthetic record rendered as an inline warning.
func NewWarningRecord(pkg, message string) CommitRecord {
	return CommitRecord{
		Package: pkg,
		Summary: message,
		Warning: true,
	}
}

// NewUnavailableRecord builds the warning used when a package history cannot
// be retrieved at all.
func NewUnavailableRecord(pkg, reason string) CommitRecord {
	return NewWarningRecord(pkg, unavailablePrefix+reason)
}

// ExtractReference returns the first issue or pull request reference found in
// text, or an empty string.
func ExtractReference(text string) string {
	match := referencePattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}
