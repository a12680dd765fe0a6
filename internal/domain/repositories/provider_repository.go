package repositories

import (
	"context"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
)

// ProviderRepository abstracts a source host (GitHub, GitLab, a plain Git remote)
// holding the upstream history of a dependency.
type ProviderRepository interface {
	// Name returns the provider identifier (e.g. "github", "gitlab", "git").
	Name() string

	// GetTags returns all tags for a repository, sorted by semantic version descending.
	GetTags(ctx context.Context, repo entities.SourceRepository) ([]string, error)

	// ListCommits returns at most limit commits reachable from head and not from
	// base, newest first. An empty base means "from the earliest known commit"
	// and an empty head means the default branch.
	ListCommits(
		ctx context.Context,
		repo entities.SourceRepository,
		base, head string,
		limit int,
	) ([]entities.Commit, error)
}
