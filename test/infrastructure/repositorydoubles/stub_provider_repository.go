//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, dummies) for
// repository interfaces. These are hand-crafted implementations, no mock frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
	"github.com/rios0rios0/bumplog/internal/domain/repositories"
)

// SpyProviderRepository implements repositories.ProviderRepository as a configurable spy.
// It is safe for concurrent use.
type SpyProviderRepository struct {
	// --- identity ---
	ProviderName string

	// --- GetTags ---
	Tags []string
	// GetTagsErrs are returned by successive calls; once exhausted GetTags succeeds.
	GetTagsErrs []error

	// --- ListCommits ---
	// Commits are returned newest first, as a source host would.
	Commits []entities.Commit
	// ListCommitsErrs are returned by successive calls; once exhausted ListCommits succeeds.
	ListCommitsErrs  []error
	ListCommitsCalls []ListCommitsCall
	// OnListCommits, when set, runs after each ListCommits call is recorded.
	OnListCommits func(call ListCommitsCall)

	mu           sync.Mutex
	getTagsCalls int
}

// ListCommitsCall records a single invocation of ListCommits.
type ListCommitsCall struct {
	Repo  entities.SourceRepository
	Base  string
	Head  string
	Limit int
}

var _ repositories.ProviderRepository = (*SpyProviderRepository)(nil)

func (p *SpyProviderRepository) Name() string { return p.ProviderName }

func (p *SpyProviderRepository) GetTags(
	_ context.Context, _ entities.SourceRepository,
) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	call := p.getTagsCalls
	p.getTagsCalls++
	if call < len(p.GetTagsErrs) && p.GetTagsErrs[call] != nil {
		return nil, p.GetTagsErrs[call]
	}
	return p.Tags, nil
}

func (p *SpyProviderRepository) ListCommits(
	_ context.Context, repo entities.SourceRepository, base, head string, limit int,
) ([]entities.Commit, error) {
	recorded := ListCommitsCall{Repo: repo, Base: base, Head: head, Limit: limit}
	if p.OnListCommits != nil {
		defer p.OnListCommits(recorded)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	call := len(p.ListCommitsCalls)
	p.ListCommitsCalls = append(p.ListCommitsCalls, recorded)
	if call < len(p.ListCommitsErrs) && p.ListCommitsErrs[call] != nil {
		return nil, p.ListCommitsErrs[call]
	}
	if len(p.Commits) > limit {
		return p.Commits[:limit], nil
	}
	return p.Commits, nil
}

// GetTagsCallCount returns how many times GetTags was called.
func (p *SpyProviderRepository) GetTagsCallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.getTagsCalls
}

// DummyProviderRepository is a no-op implementation of repositories.ProviderRepository.
type DummyProviderRepository struct{}

var _ repositories.ProviderRepository = (*DummyProviderRepository)(nil)

func (d *DummyProviderRepository) Name() string { return "dummy" }

func (d *DummyProviderRepository) GetTags(
	_ context.Context, _ entities.SourceRepository,
) ([]string, error) {
	return nil, nil
}

func (d *DummyProviderRepository) ListCommits(
	_ context.Context, _ entities.SourceRepository, _, _ string, _ int,
) ([]entities.Commit, error) {
	return nil, nil
}
