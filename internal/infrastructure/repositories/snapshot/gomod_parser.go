package snapshot

import (
	"fmt"

	"golang.org/x/mod/modfile"
)

// ParseGoMod reads the require directives of a go.mod file, indirect ones
// included. Replacements are not applied.
func ParseGoMod(content []byte) (map[string]string, error) {
	file, err := modfile.ParseLax("go.mod", content, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.mod: %w", err)
	}

	versions := make(map[string]string, len(file.Require))
	for _, require := range file.Require {
		versions[require.Mod.Path] = require.Mod.Version
	}
	return versions, nil
}
