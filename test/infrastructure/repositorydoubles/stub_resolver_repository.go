//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
	"github.com/rios0rios0/bumplog/internal/domain/repositories"
)

// StubResolverRepository implements repositories.ResolverRepository over a
// fixed package -> repository table.
type StubResolverRepository struct {
	Repositories map[string]entities.SourceRepository
	// Errs forces the error returned for a package.
	Errs map[string]error
}

var _ repositories.ResolverRepository = (*StubResolverRepository)(nil)

func (r *StubResolverRepository) Name() string { return "stub" }

func (r *StubResolverRepository) Resolve(
	_ context.Context, pkg string,
) (entities.SourceRepository, error) {
	if err, ok := r.Errs[pkg]; ok {
		return entities.SourceRepository{}, err
	}
	if repo, ok := r.Repositories[pkg]; ok {
		return repo, nil
	}
	return entities.SourceRepository{}, fmt.Errorf("%w: %s", entities.ErrRepositoryNotResolved, pkg)
}
