package commands

import (
	"context"
	"fmt"
	"sync"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
	"github.com/rios0rios0/bumplog/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/bumplog/internal/infrastructure/repositories"
)

// Changelog is the interface for the changelog command.
type Changelog interface {
	Execute(ctx context.Context, settings *entities.Settings, opts DiffOptions) (entities.ChangelogReport, error)
}

// ChangelogCommand orchestrates a full run:
// read snapshots -> diff -> fetch every history concurrently -> ordered report.
type ChangelogCommand struct {
	diff             Diff
	providerRegistry *infraRepos.ProviderRegistry
	resolverRegistry *infraRepos.ResolverRegistry
}

// NewChangelogCommand creates a new ChangelogCommand with the given registries.
func NewChangelogCommand(
	diff Diff,
	providerRegistry *infraRepos.ProviderRegistry,
	resolverRegistry *infraRepos.ResolverRegistry,
) *ChangelogCommand {
	return &ChangelogCommand{
		diff:             diff,
		providerRegistry: providerRegistry,
		resolverRegistry: resolverRegistry,
	}
}

// Execute builds the changelog report. Only input errors are returned; a
// package whose history cannot be fetched still gets a section holding a
// warning. When ctx ends early, the outstanding packages are reported as
// interrupted instead of discarding the report.
func (it *ChangelogCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts DiffOptions,
) (entities.ChangelogReport, error) {
	filter, err := settings.CompiledMessageFilter()
	if err != nil {
		return entities.ChangelogReport{}, err
	}

	result, err := it.diff.Execute(ctx, opts)
	if err != nil {
		return entities.ChangelogReport{}, err
	}
	if len(result.Changes) == 0 {
		logger.Info("No dependency changes matched, nothing to report.")
		return entities.NewChangelogReport(nil), nil
	}

	fetcher := NewHistoryFetcher(
		it.resolverRegistry.Build(settings, result.Lockfile),
		it.providerLookup(settings),
		NewRateBudget(settings.RequestsPerSecond, settings.Workers),
		FetchOptions{
			MessageFilter: filter,
			MaxCommits:    settings.MaxCommits,
			MaxRetries:    settings.MaxRetries,
		},
	)

	sections := make([]entities.ChangelogSection, len(result.Changes))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(settings.Workers)
	for i, change := range result.Changes {
		group.Go(func() error {
			logger.Infof("[fetch] %s %s -> %s", change.Package, change.OldVersion, change.NewVersion)
			sections[i] = entities.ChangelogSection{
				Change:  change,
				Bump:    change.Bump(),
				Commits: fetcher.Fetch(groupCtx, change),
			}
			return nil
		})
	}
	if waitErr := group.Wait(); waitErr != nil {
		return entities.ChangelogReport{}, waitErr
	}

	return entities.NewChangelogReport(sections), nil
}

// providerLookup instantiates each provider once per run.
func (it *ChangelogCommand) providerLookup(settings *entities.Settings) ProviderLookup {
	var mu sync.Mutex
	cache := make(map[string]repositories.ProviderRepository)

	return func(name string) (repositories.ProviderRepository, error) {
		mu.Lock()
		defer mu.Unlock()

		if provider, ok := cache[name]; ok {
			return provider, nil
		}
		provider, err := it.providerRegistry.Get(name, settings)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", entities.ErrProviderNotFound, err)
		}
		cache[name] = provider
		return provider, nil
	}
}
