package snapshot

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	// PEP 503: runs of "-", "_" and "." are equivalent.
	separatorRunPattern = regexp.MustCompile(`[-_.]+`)
	extrasPattern       = regexp.MustCompile(`\[[^\]]*]`)
)

type pipfileLock struct {
	Default map[string]pipfileEntry `json:"default"`
}

type pipfileEntry struct {
	Version string `json:"version"`
	Git     string `json:"git"`
	Ref     string `json:"ref"`
}

// ParsePipfileLock reads the "default" section of a Pipfile.lock. Packages
// installed from git are named by their "git+" URL and pinned to their ref.
func ParsePipfileLock(content []byte) (map[string]string, error) {
	var lock pipfileLock
	if err := json.Unmarshal(content, &lock); err != nil {
		return nil, fmt.Errorf("failed to decode Pipfile.lock: %w", err)
	}

	versions := make(map[string]string, len(lock.Default))
	for name, entry := range lock.Default {
		switch {
		case entry.Version != "":
			versions[CanonicalizePythonName(name)] = strings.TrimLeft(entry.Version, "=")
		case entry.Git != "" && entry.Ref != "":
			versions["git+"+entry.Git] = entry.Ref
		}
	}
	return versions, nil
}

// ParseRequirements reads pinned "name==version" lines. Comments, options,
// environment markers, extras and hashes are ignored, and so are unpinned
// requirements. "name @ git+URL@ref" lines are named by their URL.
func ParseRequirements(content []byte) (map[string]string, error) {
	versions := make(map[string]string)
	for _, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(raw)
		if idx := strings.Index(line, " #"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		line = strings.TrimSpace(strings.TrimSuffix(line, "\\"))
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		if idx := strings.Index(line, ";"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}

		if name, version, ok := parseDirectReference(line); ok {
			versions[name] = version
			continue
		}

		name, version, found := strings.Cut(line, "==")
		if !found {
			continue
		}
		name = strings.TrimSpace(extrasPattern.ReplaceAllString(name, ""))
		version = strings.TrimLeft(version, "=")
		if fields := strings.Fields(version); len(fields) > 0 {
			version = fields[0]
		}
		if name == "" || version == "" {
			continue
		}
		versions[CanonicalizePythonName(name)] = version
	}
	return versions, nil
}

// parseDirectReference handles "name @ git+https://host/repo.git@ref".
func parseDirectReference(line string) (string, string, bool) {
	_, target, found := strings.Cut(line, " @ ")
	if !found {
		return "", "", false
	}
	target = strings.TrimSpace(target)
	if idx := strings.Index(target, "#"); idx >= 0 {
		target = target[:idx]
	}

	schemeEnd := strings.Index(target, "://")
	at := strings.LastIndex(target, "@")
	if schemeEnd < 0 || at < schemeEnd || strings.Contains(target[at:], "/") {
		return "", "", false
	}
	return target[:at], target[at+1:], true
}

// CanonicalizePythonName normalizes a Python distribution name per PEP 503.
func CanonicalizePythonName(name string) string {
	return strings.ToLower(separatorRunPattern.ReplaceAllString(strings.TrimSpace(name), "-"))
}
