package snapshot

import (
	"encoding/json"
	"fmt"
	"strings"
)

const nodeModules = "node_modules/"

type packageLock struct {
	Packages     map[string]packageLockEntry `json:"packages"`
	Dependencies map[string]packageLockEntry `json:"dependencies"`
}

type packageLockEntry struct {
	Version string `json:"version"`
	Link    bool   `json:"link"`
}

// ParsePackageLock reads the top-level packages of an npm lockfile, from the
// "packages" map (lockfile v2 and v3) or the "dependencies" map (v1).
func ParsePackageLock(content []byte) (map[string]string, error) {
	var lock packageLock
	if err := json.Unmarshal(content, &lock); err != nil {
		return nil, fmt.Errorf("failed to decode package-lock.json: %w", err)
	}

	versions := make(map[string]string)
	if len(lock.Packages) > 0 {
		for path, entry := range lock.Packages {
			name, ok := strings.CutPrefix(path, nodeModules)
			if !ok || strings.Contains(name, nodeModules) || entry.Link || entry.Version == "" {
				continue
			}
			versions[name] = entry.Version
		}
		return versions, nil
	}

	for name, entry := range lock.Dependencies {
		if entry.Version != "" {
			versions[name] = entry.Version
		}
	}
	return versions, nil
}
