package resolver

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
	"github.com/rios0rios0/bumplog/internal/domain/repositories"
)

// ChainResolver asks each resolver in turn. A resolver failing for another
// reason than not knowing the package does not stop the chain, but its error
// is reported when no later resolver succeeds.
type ChainResolver struct {
	resolvers []repositories.ResolverRepository
}

// NewChainResolver creates a resolver trying resolvers in order.
func NewChainResolver(resolvers ...repositories.ResolverRepository) *ChainResolver {
	return &ChainResolver{resolvers: resolvers}
}

func (r *ChainResolver) Name() string { return "chain" }

func (r *ChainResolver) Resolve(ctx context.Context, pkg string) (entities.SourceRepository, error) {
	var failure error
	for _, resolver := range r.resolvers {
		repo, err := resolver.Resolve(ctx, pkg)
		if err == nil {
			logger.Debugf("[resolve] %s -> %s (%s)", pkg, repo.RemoteURL, resolver.Name())
			return repo, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return entities.SourceRepository{}, ctxErr
		}
		if !errors.Is(err, entities.ErrRepositoryNotResolved) && failure == nil {
			failure = fmt.Errorf("%s lookup failed: %w", resolver.Name(), err)
		}
	}

	if failure != nil {
		return entities.SourceRepository{}, failure
	}
	return entities.SourceRepository{}, fmt.Errorf("%w: %s", entities.ErrRepositoryNotResolved, pkg)
}
