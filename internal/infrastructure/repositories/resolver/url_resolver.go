package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
)

// URLResolver resolves packages whose name already is a repository URL,
// such as "git+https://github.com/owner/repo.git".
type URLResolver struct{}

// NewURLResolver creates a new URLResolver.
func NewURLResolver() *URLResolver {
	return &URLResolver{}
}

func (r *URLResolver) Name() string { return "url" }

func (r *URLResolver) Resolve(_ context.Context, pkg string) (entities.SourceRepository, error) {
	for _, prefix := range []string{"git+", "git::", "git@", "https://", "http://"} {
		if strings.HasPrefix(pkg, prefix) {
			return entities.NewSourceRepository(pkg)
		}
	}
	return entities.SourceRepository{}, fmt.Errorf("%w: %s is not a URL", entities.ErrRepositoryNotResolved, pkg)
}
