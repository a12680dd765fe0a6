package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
)

// StaticResolver resolves packages listed explicitly in the configuration.
type StaticResolver struct {
	packages map[string]string
}

// NewStaticResolver creates a resolver over package name -> repository URL.
func NewStaticResolver(packages map[string]string) *StaticResolver {
	return &StaticResolver{packages: packages}
}

func (r *StaticResolver) Name() string { return "packages" }

func (r *StaticResolver) Resolve(_ context.Context, pkg string) (entities.SourceRepository, error) {
	if url, ok := r.packages[pkg]; ok {
		return entities.NewSourceRepository(url)
	}
	for name, url := range r.packages {
		if strings.EqualFold(name, pkg) {
			return entities.NewSourceRepository(url)
		}
	}
	return entities.SourceRepository{}, fmt.Errorf("%w: %s is not configured", entities.ErrRepositoryNotResolved, pkg)
}
