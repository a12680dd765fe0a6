package repositories

import (
	"context"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
)

// ResolverRepository maps a package name to the repository holding its source.
// Implementations return entities.ErrRepositoryNotResolved when they do not know
// the package, so resolvers can be chained.
type ResolverRepository interface {
	Name() string
	Resolve(ctx context.Context, pkg string) (entities.SourceRepository, error)
}
