package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
	"golang.org/x/mod/semver"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
	"github.com/rios0rios0/bumplog/internal/domain/repositories"
)

const (
	providerName = entities.ProviderGitHub
	perPage      = 100
)

// GitHubProviderRepository implements repositories.ProviderRepository for GitHub.
type GitHubProviderRepository struct {
	client *gh.Client
}

// NewGitHubProviderRepository creates a new GitHub provider with the given
// token. An empty token makes unauthenticated requests.
func NewGitHubProviderRepository(token string) repositories.ProviderRepository {
	return &GitHubProviderRepository{client: newClient(token)}
}

// NewGitHubProviderRepositoryWithBaseURL creates a GitHub provider talking to
// the API served at baseURL, as GitHub Enterprise installations do.
func NewGitHubProviderRepositoryWithBaseURL(token, baseURL string) (repositories.ProviderRepository, error) {
	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("failed to parse GitHub API URL %q: %w", baseURL, err)
	}
	client := newClient(token)
	client.BaseURL = parsed
	return &GitHubProviderRepository{client: client}, nil
}

func newClient(token string) *gh.Client {
	client := gh.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return client
}

func (p *GitHubProviderRepository) Name() string { return providerName }

func (p *GitHubProviderRepository) GetTags(
	ctx context.Context,
	repo entities.SourceRepository,
) ([]string, error) {
	var allTags []string
	opts := &gh.ListOptions{PerPage: perPage}

	for {
		tags, resp, err := p.client.Repositories.ListTags(
			ctx, repo.Organization, repo.Name, opts,
		)
		if err != nil {
			return nil, translateError(err, "list tags")
		}

		for _, tag := range tags {
			allTags = append(allTags, tag.GetName())
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	sortVersionsDescending(allTags)
	return allTags, nil
}

// ListCommits returns at most limit commits reachable from head and not from
// base, newest first.
func (p *GitHubProviderRepository) ListCommits(
	ctx context.Context,
	repo entities.SourceRepository,
	base, head string,
	limit int,
) ([]entities.Commit, error) {
	if head == "" {
		defaultBranch, err := p.defaultBranch(ctx, repo)
		if err != nil {
			return nil, err
		}
		head = defaultBranch
	}

	if base == "" {
		return p.listHistory(ctx, repo, head, limit)
	}
	return p.compare(ctx, repo, base, head, limit)
}

func (p *GitHubProviderRepository) defaultBranch(
	ctx context.Context,
	repo entities.SourceRepository,
) (string, error) {
	if repo.DefaultBranch != "" {
		return strings.TrimPrefix(repo.DefaultBranch, "refs/heads/"), nil
	}
	remote, _, err := p.client.Repositories.Get(ctx, repo.Organization, repo.Name)
	if err != nil {
		return "", translateError(err, "get repository")
	}
	return remote.GetDefaultBranch(), nil
}

// listHistory walks the history of head, which GitHub serves newest first.
func (p *GitHubProviderRepository) listHistory(
	ctx context.Context,
	repo entities.SourceRepository,
	head string,
	limit int,
) ([]entities.Commit, error) {
	var commits []entities.Commit
	opts := &gh.CommitsListOptions{
		SHA:         head,
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	for len(commits) < limit {
		page, resp, err := p.client.Repositories.ListCommits(
			ctx, repo.Organization, repo.Name, opts,
		)
		if err != nil {
			return nil, translateError(err, "list commits")
		}

		for _, commit := range page {
			commits = append(commits, toCommit(commit))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if len(commits) > limit {
		commits = commits[:limit]
	}
	return commits, nil
}

// compare lists base...head, which GitHub serves oldest first.
func (p *GitHubProviderRepository) compare(
	ctx context.Context,
	repo entities.SourceRepository,
	base, head string,
	limit int,
) ([]entities.Commit, error) {
	var commits []entities.Commit
	opts := &gh.ListOptions{PerPage: perPage}

	for {
		comparison, resp, err := p.client.Repositories.CompareCommits(
			ctx, repo.Organization, repo.Name, base, head, opts,
		)
		if err != nil {
			return nil, translateError(err, "compare "+base+"..."+head)
		}

		for _, commit := range comparison.Commits {
			commits = append(commits, toCommit(commit))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	slices.Reverse(commits)
	if len(commits) > limit {
		commits = commits[:limit]
	}
	return commits, nil
}

func toCommit(commit *gh.RepositoryCommit) entities.Commit {
	return entities.Commit{
		SHA:     commit.GetSHA(),
		Message: commit.GetCommit().GetMessage(),
	}
}

// translateError maps GitHub API failures onto the domain errors the history
// fetcher knows how to report.
func translateError(err error, action string) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return &entities.RateLimitError{RetryAfter: time.Until(rateErr.Rate.Reset.Time), Err: err}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &entities.RateLimitError{RetryAfter: abuseErr.GetRetryAfter(), Err: err}
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", entities.ErrUnauthorized, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", entities.ErrRepositoryNotResolved, err)
		case http.StatusTooManyRequests:
			return &entities.RateLimitError{Err: err}
		}
		if respErr.Response.StatusCode >= http.StatusInternalServerError {
			return &entities.SourceHostError{StatusCode: respErr.Response.StatusCode, Err: err}
		}
	}

	return fmt.Errorf("failed to %s: %w", action, err)
}

// --- version sorting ---

func sortVersionsDescending(versions []string) {
	sort.Slice(versions, func(i, j int) bool {
		v1 := normalizeVersion(versions[i])
		v2 := normalizeVersion(versions[j])
		if semver.IsValid(v1) && semver.IsValid(v2) {
			return semver.Compare(v1, v2) > 0
		}
		return versions[i] > versions[j]
	})
}

func normalizeVersion(version string) string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}
