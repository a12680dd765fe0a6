package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	gl "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/mod/semver"
	"golang.org/x/time/rate"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
	"github.com/rios0rios0/bumplog/internal/domain/repositories"
)

const (
	providerName = entities.ProviderGitLab
	perPage      = 100
)

var errClientNotInitialized = errors.New("gitlab client not initialized")

// GitLabProviderRepository implements repositories.ProviderRepository for GitLab.
type GitLabProviderRepository struct {
	client *gl.Client
}

// NewGitLabProviderRepository creates a new GitLab provider with the given token.
func NewGitLabProviderRepository(token string) repositories.ProviderRepository {
	return NewGitLabProviderRepositoryWithBaseURL(token, "")
}

// NewGitLabProviderRepositoryWithBaseURL creates a GitLab provider for a
// self-hosted instance. An empty baseURL targets gitlab.com.
func NewGitLabProviderRepositoryWithBaseURL(token, baseURL string) repositories.ProviderRepository {
	// rate limits and server errors go back to the caller, which retries
	// against the shared budget
	options := []gl.ClientOptionFunc{
		gl.WithCustomRetryMax(0),
		gl.WithCustomRetry(neverRetry),
		gl.WithCustomLimiter(rate.NewLimiter(rate.Inf, 0)),
	}
	if baseURL != "" {
		options = append(options, gl.WithBaseURL(baseURL))
	}

	client, err := gl.NewClient(token, options...)
	if err != nil {
		// Return a provider that will fail on use rather than panicking at construction
		return &GitLabProviderRepository{client: nil}
	}
	return &GitLabProviderRepository{client: client}
}

func neverRetry(ctx context.Context, _ *http.Response, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	return false, err
}

func (p *GitLabProviderRepository) Name() string { return providerName }

func (p *GitLabProviderRepository) GetTags(
	ctx context.Context,
	repo entities.SourceRepository,
) ([]string, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	var allTags []string
	opts := &gl.ListTagsOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
	}

	for {
		tags, resp, err := p.client.Tags.ListTags(
			projectID(repo), opts, gl.WithContext(ctx),
		)
		if err != nil {
			return nil, translateError(err, "list tags")
		}

		for _, tag := range tags {
			allTags = append(allTags, tag.Name)
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
func (p *GitLabProviderRepository) ListCommits(
	ctx context.Context,
	repo entities.SourceRepository,
	base, head string,
	limit int,
) ([]entities.Commit, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}
	if base == "" {
		return p.listHistory(ctx, repo, head, limit)
	}

	if head == "" {
		project, _, err := p.client.Projects.GetProject(
			projectID(repo), nil, gl.WithContext(ctx),
		)
		if err != nil {
			return nil, translateError(err, "get project")
		}
		head = project.DefaultBranch
	}

	comparison, _, err := p.client.Repositories.Compare(
		projectID(repo),
		&gl.CompareOptions{From: gl.Ptr(base), To: gl.Ptr(head), Straight: gl.Ptr(false)},
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, translateError(err, "compare "+base+"..."+head)
	}

	// compare answers oldest first
	commits := make([]entities.Commit, 0, len(comparison.Commits))
	for _, commit := range comparison.Commits {
		commits = append(commits, toCommit(commit))
	}
	slices.Reverse(commits)
	if len(commits) > limit {
		commits = commits[:limit]
	}
	return commits, nil
}

// listHistory walks the history of head, or of the default branch when head
// is empty.
func (p *GitLabProviderRepository) listHistory(
	ctx context.Context,
	repo entities.SourceRepository,
	head string,
	limit int,
) ([]entities.Commit, error) {
	var commits []entities.Commit
	opts := &gl.ListCommitsOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
	}
	if head != "" {
		opts.RefName = gl.Ptr(head)
	}

	for len(commits) < limit {
		page, resp, err := p.client.Commits.ListCommits(
			projectID(repo), opts, gl.WithContext(ctx),
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

func projectID(repo entities.SourceRepository) string {
	return repo.Organization + "/" + repo.Name
}

func toCommit(commit *gl.Commit) entities.Commit {
	message := commit.Message
	if message == "" {
		message = commit.Title
	}
	return entities.Commit{SHA: commit.ID, Message: message}
}

// translateError maps GitLab API failures onto the domain errors the history
// fetcher knows how to report.
func translateError(err error, action string) error {
	var respErr *gl.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %w", entities.ErrUnauthorized, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", entities.ErrRepositoryNotResolved, err)
		case http.StatusTooManyRequests:
			return &entities.RateLimitError{RetryAfter: retryAfter(respErr.Response.Header), Err: err}
		}
		if respErr.Response.StatusCode >= http.StatusInternalServerError {
			return &entities.SourceHostError{StatusCode: respErr.Response.StatusCode, Err: err}
		}
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// retryAfter reads the wait GitLab asks for, either as Retry-After seconds or
// as the RateLimit-Reset epoch.
func retryAfter(header http.Header) time.Duration {
	if seconds, err := strconv.Atoi(header.Get("Retry-After")); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if epoch, err := strconv.ParseInt(header.Get("RateLimit-Reset"), 10, 64); err == nil {
		return time.Until(time.Unix(epoch, 0))
	}
	return 0
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
