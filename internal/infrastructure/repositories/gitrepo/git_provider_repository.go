package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
	"github.com/rios0rios0/bumplog/internal/domain/repositories"
)

const providerName = entities.ProviderGit

// DefaultCacheDir is where bare clones live unless configured otherwise.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "bumplog", "git_repos")
}

// GitProviderRepository implements repositories.ProviderRepository for any
// git remote by keeping bare clones in a local cache. Each clone is fetched
// at most once per run.
type GitProviderRepository struct {
	cacheDir string

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	fetched map[string]bool
}

// NewGitProviderRepository creates a git provider caching clones in cacheDir.
func NewGitProviderRepository(cacheDir string) repositories.ProviderRepository {
	if cacheDir == "" {
		cacheDir = DefaultCacheDir()
	}
	return &GitProviderRepository{
		cacheDir: cacheDir,
		locks:    make(map[string]*sync.Mutex),
		fetched:  make(map[string]bool),
	}
}

func (p *GitProviderRepository) Name() string { return providerName }

func (p *GitProviderRepository) GetTags(
	ctx context.Context,
	repo entities.SourceRepository,
) ([]string, error) {
	clone, err := p.open(ctx, repo)
	if err != nil {
		return nil, err
	}

	iter, err := clone.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	sort.Strings(tags)
	return tags, nil
}

// ListCommits returns at most limit commits reachable from head and not from
// base, newest first.
func (p *GitProviderRepository) ListCommits(
	ctx context.Context,
	repo entities.SourceRepository,
	base, head string,
	limit int,
) ([]entities.Commit, error) {
	clone, err := p.open(ctx, repo)
	if err != nil {
		return nil, err
	}

	headHash, err := resolve(clone, head)
	if err != nil {
		return nil, err
	}

	excluded := make(map[plumbing.Hash]bool)
	if base != "" {
		baseHash, resolveErr := resolve(clone, base)
		if resolveErr != nil {
			return nil, resolveErr
		}
		if walkErr := walk(clone, baseHash, func(commit *object.Commit) error {
			excluded[commit.Hash] = true
			return nil
		}); walkErr != nil {
			return nil, walkErr
		}
	}

	var commits []entities.Commit
	err = walk(clone, headHash, func(commit *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if excluded[commit.Hash] {
			return nil
		}
		commits = append(commits, entities.Commit{SHA: commit.Hash.String(), Message: commit.Message})
		if len(commits) >= limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return commits, nil
}

// open clones repo on first use and fetches it once per run afterwards.
func (p *GitProviderRepository) open(ctx context.Context, repo entities.SourceRepository) (*git.Repository, error) {
	dir := p.cloneDir(repo)
	lock := p.lockFor(dir)
	lock.Lock()
	defer lock.Unlock()

	clone, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		logger.Debugf("[git] cloning %s into %s", repo.RemoteURL, dir)
		clone, err = git.PlainCloneContext(ctx, dir, true, &git.CloneOptions{
			URL:  repo.RemoteURL,
			Tags: git.AllTags,
		})
		if err != nil {
			_ = os.RemoveAll(dir)
			return nil, translateError(err, "clone "+repo.RemoteURL)
		}
		p.markFetched(dir)
		return clone, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open cached clone %s: %w", dir, err)
	}

	if !p.isFetched(dir) {
		logger.Debugf("[git] fetching %s", repo.RemoteURL)
		fetchErr := clone.FetchContext(ctx, &git.FetchOptions{
			RemoteName: git.DefaultRemoteName,
			Tags:       git.AllTags,
			Force:      true,
			RefSpecs:   []config.RefSpec{"+refs/heads/*:refs/heads/*"},
		})
		if fetchErr != nil && !errors.Is(fetchErr, git.NoErrAlreadyUpToDate) {
			return nil, translateError(fetchErr, "fetch "+repo.RemoteURL)
		}
		p.markFetched(dir)
	}
	return clone, nil
}

func (p *GitProviderRepository) cloneDir(repo entities.SourceRepository) string {
	name := entities.FullName(repo)
	if name == "" {
		name = repo.Name
	}
	host := "local"
	if idx := strings.Index(repo.RemoteURL, "://"); idx >= 0 {
		host, _, _ = strings.Cut(repo.RemoteURL[idx+3:], "/")
	}
	return filepath.Join(p.cacheDir, host, filepath.FromSlash(name)+".git")
}

func (p *GitProviderRepository) lockFor(dir string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.locks[dir]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[dir] = lock
	}
	return lock
}

func (p *GitProviderRepository) isFetched(dir string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetched[dir]
}

func (p *GitProviderRepository) markFetched(dir string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetched[dir] = true
}

// resolve finds the commit named by revision; an empty revision is HEAD,
// which a bare clone points at the default branch.
func resolve(clone *git.Repository, revision string) (plumbing.Hash, error) {
	if revision == "" {
		ref, err := clone.Head()
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("failed to resolve HEAD: %w", err)
		}
		return ref.Hash(), nil
	}

	for _, candidate := range []string{"refs/tags/" + revision, revision} {
		if hash, err := clone.ResolveRevision(plumbing.Revision(candidate)); err == nil {
			return *hash, nil
		}
	}
	return plumbing.ZeroHash, fmt.Errorf("failed to resolve %q", revision)
}

func walk(clone *git.Repository, from plumbing.Hash, visit func(*object.Commit) error) error {
	iter, err := clone.Log(&git.LogOptions{From: from, Order: git.LogOrderCommitterTime})
	if err != nil {
		return fmt.Errorf("failed to read history from %s: %w", from, err)
	}
	defer iter.Close()

	err = iter.ForEach(visit)
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return err
	}
	return nil
}

func translateError(err error, action string) error {
	switch {
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return fmt.Errorf("%w: %w", entities.ErrRepositoryNotResolved, err)
	case errors.Is(err, transport.ErrAuthenticationRequired), errors.Is(err, transport.ErrAuthorizationFailed):
		return fmt.Errorf("%w: %w", entities.ErrUnauthorized, err)
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}
