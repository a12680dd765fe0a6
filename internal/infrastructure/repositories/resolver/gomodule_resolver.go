package resolver

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
)

var (
	majorSuffixPattern = regexp.MustCompile(`^v\d+$`)
	gopkgPattern       = regexp.MustCompile(`^gopkg\.in/(?:([\w-]+)/)?([\w.-]+?)\.v\d+`)
)

// GoModuleResolver resolves Go module paths hosted on GitHub or GitLab, plus
// the gopkg.in and golang.org/x vanity paths. It needs no network.
type GoModuleResolver struct{}

// NewGoModuleResolver creates a new GoModuleResolver.
func NewGoModuleResolver() *GoModuleResolver {
	return &GoModuleResolver{}
}

func (r *GoModuleResolver) Name() string { return entities.RegistryGo }

func (r *GoModuleResolver) Resolve(_ context.Context, pkg string) (entities.SourceRepository, error) {
	segments := strings.Split(pkg, "/")
	if len(segments) > 1 && majorSuffixPattern.MatchString(segments[len(segments)-1]) {
		segments = segments[:len(segments)-1]
	}

	switch {
	case segments[0] == "github.com" && len(segments) >= 3:
		return entities.NewSourceRepository("https://" + strings.Join(segments[:3], "/"))
	case segments[0] == "gitlab.com" && len(segments) >= 3:
		return entities.NewSourceRepository("https://" + strings.Join(segments, "/"))
	case segments[0] == "golang.org" && len(segments) >= 3 && segments[1] == "x":
		return entities.NewSourceRepository("https://github.com/golang/" + segments[2])
	}

	if matches := gopkgPattern.FindStringSubmatch(pkg); matches != nil {
		owner := matches[1]
		if owner == "" {
			owner = "go-" + matches[2]
		}
		return entities.NewSourceRepository("https://github.com/" + owner + "/" + matches[2])
	}

	return entities.SourceRepository{}, fmt.Errorf("%w: %s is not a known Go module host", entities.ErrRepositoryNotResolved, pkg)
}
