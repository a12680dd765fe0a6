package azuredevops

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
	"github.com/rios0rios0/bumplog/internal/domain/repositories"
)

const (
	providerName   = entities.ProviderAzureDevOps
	apiVersion     = "7.0"
	perPage        = 100
	requestTimeout = 30 * time.Second

	// DefaultBaseURL is the Azure DevOps Services endpoint.
	DefaultBaseURL = "https://dev.azure.com"
)

// AzureDevOpsProviderRepository implements repositories.ProviderRepository
// for Azure DevOps Git repositories.
type AzureDevOpsProviderRepository struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewAzureDevOpsProviderRepository creates a provider authenticating with a
// personal access token. An empty token makes anonymous requests, which only
// public projects answer.
func NewAzureDevOpsProviderRepository(token string) repositories.ProviderRepository {
	return NewAzureDevOpsProviderRepositoryWithBaseURL(token, DefaultBaseURL)
}

// NewAzureDevOpsProviderRepositoryWithBaseURL creates a provider for an Azure
// DevOps Server collection served at baseURL.
func NewAzureDevOpsProviderRepositoryWithBaseURL(token, baseURL string) repositories.ProviderRepository {
	return &AzureDevOpsProviderRepository{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

func (p *AzureDevOpsProviderRepository) Name() string { return providerName }

type gitRef struct {
	Name     string `json:"name"`
	ObjectID string `json:"objectId"`
}

type gitCommit struct {
	CommitID         string `json:"commitId"`
	Comment          string `json:"comment"`
	CommentTruncated bool   `json:"commentTruncated"`
}

// GetTags returns every tag of the repository, following the continuation
// token Azure DevOps sends while more refs remain.
func (p *AzureDevOpsProviderRepository) GetTags(
	ctx context.Context,
	repo entities.SourceRepository,
) ([]string, error) {
	var tags []string
	continuationToken := ""

	for {
		query := url.Values{"filter": {"tags"}, "$top": {strconv.Itoa(perPage)}}
		if continuationToken != "" {
			query.Set("continuationToken", continuationToken)
		}

		var page struct {
			Value []gitRef `json:"value"`
		}
		headers, err := p.getJSON(ctx, p.repositoryPath(repo)+"/refs", query, &page)
		if err != nil {
			return nil, translateError(err, "list tags")
		}

		for _, ref := range page.Value {
			tags = append(tags, strings.TrimPrefix(ref.Name, "refs/tags/"))
		}

		continuationToken = headers.Get("x-ms-continuationtoken")
		if continuationToken == "" {
			break
		}
	}

	sortVersionsDescending(tags)
	return tags, nil
}

// ListCommits returns at most limit commits reachable from head and not from
// base, newest first, as the commits API serves them.
func (p *AzureDevOpsProviderRepository) ListCommits(
	ctx context.Context,
	repo entities.SourceRepository,
	base, head string,
	limit int,
) ([]entities.Commit, error) {
	query := url.Values{}
	if head == "" {
		defaultBranch, err := p.defaultBranch(ctx, repo)
		if err != nil {
			return nil, err
		}
		query.Set("searchCriteria.itemVersion.version", defaultBranch)
		query.Set("searchCriteria.itemVersion.versionType", "branch")
	} else {
		query.Set("searchCriteria.itemVersion.version", head)
		query.Set("searchCriteria.itemVersion.versionType", "tag")
	}
	if base != "" {
		query.Set("searchCriteria.compareVersion.version", base)
		query.Set("searchCriteria.compareVersion.versionType", "tag")
	}

	var commits []entities.Commit
	for len(commits) < limit {
		top := min(perPage, limit-len(commits))
		query.Set("searchCriteria.$top", strconv.Itoa(top))
		query.Set("searchCriteria.$skip", strconv.Itoa(len(commits)))

		var page struct {
			Value []gitCommit `json:"value"`
		}
		if _, err := p.getJSON(ctx, p.repositoryPath(repo)+"/commits", query, &page); err != nil {
			return nil, translateError(err, "list commits")
		}

		for _, commit := range page.Value {
			message, err := p.fullMessage(ctx, repo, commit)
			if err != nil {
				return nil, err
			}
			commits = append(commits, entities.Commit{SHA: commit.CommitID, Message: message})
		}

		if len(page.Value) < top {
			break
		}
	}

	return commits, nil
}

// fullMessage fetches the whole commit message when the listing cut it short.
func (p *AzureDevOpsProviderRepository) fullMessage(
	ctx context.Context,
	repo entities.SourceRepository,
	commit gitCommit,
) (string, error) {
	if !commit.CommentTruncated {
		return commit.Comment, nil
	}

	var detail gitCommit
	path := p.repositoryPath(repo) + "/commits/" + url.PathEscape(commit.CommitID)
	if _, err := p.getJSON(ctx, path, url.Values{}, &detail); err != nil {
		return "", translateError(err, "get commit "+commit.CommitID)
	}
	return detail.Comment, nil
}

func (p *AzureDevOpsProviderRepository) defaultBranch(
	ctx context.Context,
	repo entities.SourceRepository,
) (string, error) {
	if repo.DefaultBranch != "" {
		return strings.TrimPrefix(repo.DefaultBranch, "refs/heads/"), nil
	}

	var remote struct {
		DefaultBranch string `json:"defaultBranch"`
	}
	if _, err := p.getJSON(ctx, p.repositoryPath(repo), url.Values{}, &remote); err != nil {
		return "", translateError(err, "get repository")
	}
	if remote.DefaultBranch == "" {
		return "", fmt.Errorf("%w: %s has no default branch", entities.ErrRepositoryNotResolved, entities.FullName(repo))
	}
	return strings.TrimPrefix(remote.DefaultBranch, "refs/heads/"), nil
}

func (p *AzureDevOpsProviderRepository) repositoryPath(repo entities.SourceRepository) string {
	return fmt.Sprintf("/%s/%s/_apis/git/repositories/%s",
		url.PathEscape(repo.Organization), url.PathEscape(repo.Project), url.PathEscape(repo.Name))
}

// apiError carries the status of a non-2xx answer.
type apiError struct {
	StatusCode int
	Header     http.Header
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

func (p *AzureDevOpsProviderRepository) getJSON(
	ctx context.Context,
	path string,
	query url.Values,
	out any,
) (http.Header, error) {
	query.Set("api-version", apiVersion)
	endpoint := p.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if p.token != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(":" + p.token))
		req.Header.Set("Authorization", "Basic "+auth)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// an expired PAT is answered with a 203 sign-in page instead of a 401
	if resp.StatusCode == http.StatusNonAuthoritativeInfo ||
		resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &apiError{StatusCode: resp.StatusCode, Header: resp.Header, Body: string(body)}
	}

	if unmarshalErr := json.Unmarshal(body, out); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse response: %w", unmarshalErr)
	}
	return resp.Header, nil
}

// translateError maps Azure DevOps API failures onto the domain errors the
// history fetcher knows how to report.
func translateError(err error, action string) error {
	var respErr *apiError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNonAuthoritativeInfo:
			return fmt.Errorf("%w: %w", entities.ErrUnauthorized, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", entities.ErrRepositoryNotResolved, err)
		case http.StatusTooManyRequests:
			return &entities.RateLimitError{RetryAfter: retryAfter(respErr.Header), Err: err}
		}
		if respErr.StatusCode >= http.StatusInternalServerError {
			return &entities.SourceHostError{StatusCode: respErr.StatusCode, Err: err}
		}
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func retryAfter(header http.Header) time.Duration {
	if seconds, err := strconv.Atoi(header.Get("Retry-After")); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
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
