package snapshot

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
)

// Parser turns lockfile content into package name -> version.
type Parser func(content []byte) (map[string]string, error)

// ParserFor picks the parser for a lockfile by its file name.
func ParserFor(lockfile string) (Parser, error) {
	name := filepath.Base(lockfile)
	switch {
	case name == "Pipfile.lock":
		return ParsePipfileLock, nil
	case matches("requirements*.txt", name):
		return ParseRequirements, nil
	case name == "go.mod":
		return ParseGoMod, nil
	case name == "package-lock.json", name == "npm-shrinkwrap.json":
		return ParsePackageLock, nil
	case name == ".terraform.lock.hcl":
		return ParseTerraformLock, nil
	case strings.HasSuffix(name, ".tf"):
		return func(content []byte) (map[string]string, error) {
			return ParseTerraform(content, name)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", entities.ErrUnsupportedLockfile, name)
	}
}

func matches(pattern, name string) bool {
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}
