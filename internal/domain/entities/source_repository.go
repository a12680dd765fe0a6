package entities

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	gitforgeEntities "github.com/rios0rios0/gitforge/domain/entities"
)

const (
	ProviderGitHub      = "github"
	ProviderGitLab      = "gitlab"
	ProviderAzureDevOps = "azuredevops"
	ProviderGit         = "git"
)

// SourceRepository is re-exported from gitforge.
type SourceRepository = gitforgeEntities.Repository

// FullName returns "owner/name" for a source repository, or
// "organization/project/name" when the host groups repositories by project.
func FullName(repo SourceRepository) string {
	if repo.Project != "" {
		return repo.Organization + "/" + repo.Project + "/" + repo.Name
	}
	return repo.Organization + "/" + repo.Name
}

// NewSourceRepository parses a repository URL. Accepted forms are plain
// HTTPS URLs, "git+https://" and "git::https://" prefixed URLs and SCP-like
// "git@host:owner/repo" addresses. Azure DevOps URLs also carry a project.
// Trailing ".git" and sub-paths after "//" are dropped.
func NewSourceRepository(rawURL string) (SourceRepository, error) {
	cleaned := strings.TrimSpace(rawURL)
	cleaned = strings.TrimPrefix(cleaned, "git+")
	cleaned = strings.TrimPrefix(cleaned, "git::")
	if idx := strings.Index(cleaned, "?"); idx != -1 {
		cleaned = cleaned[:idx]
	}

	var host, pathPart string
	if strings.HasPrefix(cleaned, "git@") {
		hostPart, rest, ok := strings.Cut(strings.TrimPrefix(cleaned, "git@"), ":")
		if !ok {
			return SourceRepository{}, fmt.Errorf("invalid SSH URL %q: %w", rawURL, ErrRepositoryNotResolved)
		}
		host, pathPart = hostPart, rest
	} else {
		if !strings.Contains(cleaned, "://") {
			cleaned = "https://" + cleaned
		}
		parsed, err := url.Parse(cleaned)
		if err != nil {
			return SourceRepository{}, fmt.Errorf("invalid repository URL %q: %w", rawURL, ErrRepositoryNotResolved)
		}
		host, pathPart = parsed.Host, parsed.Path
	}

	// "//" separates a module sub-directory, "/-/" starts a GitLab page path
	for _, separator := range []string{"//", "/-/"} {
		if idx := strings.Index(pathPart, separator); idx > 0 {
			pathPart = pathPart[:idx]
		}
	}
	pathPart = strings.TrimSuffix(strings.Trim(pathPart, "/"), ".git")

	segments := strings.Split(pathPart, "/")
	if host == "" || len(segments) < 2 { //nolint:mnd // need owner + repo
		return SourceRepository{}, fmt.Errorf("cannot extract owner/repo from %q: %w", rawURL, ErrRepositoryNotResolved)
	}

	provider := providerForHost(host)
	if provider == ProviderAzureDevOps {
		return newAzureDevOpsRepository(rawURL, host, segments)
	}
	if provider != ProviderGitLab {
		// only GitLab nests groups; drop "/tree/main" and similar suffixes
		segments = segments[:2]
	}

	owner := strings.Join(segments[:len(segments)-1], "/")
	name := segments[len(segments)-1]
	return SourceRepository{
		ID:           owner + "/" + name,
		Name:         name,
		Organization: owner,
		RemoteURL:    fmt.Sprintf("https://%s/%s/%s.git", host, owner, name),
		ProviderName: provider,
	}, nil
}

// newAzureDevOpsRepository reads "org/project/_git/repo" on dev.azure.com,
// "project/_git/repo" on org.visualstudio.com and "v3/org/project/repo" over SSH.
func newAzureDevOpsRepository(rawURL, host string, segments []string) (SourceRepository, error) {
	segments = slices.DeleteFunc(segments, func(segment string) bool { return segment == "_git" })
	if len(segments) > 0 && segments[0] == "v3" {
		segments = segments[1:]
	}
	if org, found := strings.CutSuffix(host, ".visualstudio.com"); found {
		segments = append([]string{org}, segments...)
	}
	if len(segments) < 3 { //nolint:mnd // organization + project + repo
		return SourceRepository{}, fmt.Errorf(
			"cannot extract organization/project/repo from %q: %w", rawURL, ErrRepositoryNotResolved,
		)
	}

	org, project, name := segments[0], segments[1], segments[2]
	return SourceRepository{
		ID:           org + "/" + project + "/" + name,
		Name:         name,
		Organization: org,
		Project:      project,
		RemoteURL:    fmt.Sprintf("https://dev.azure.com/%s/%s/_git/%s", org, project, name),
		ProviderName: ProviderAzureDevOps,
	}, nil
}

func providerForHost(host string) string {
	switch {
	case strings.HasSuffix(host, "dev.azure.com") || strings.HasSuffix(host, ".visualstudio.com"):
		return ProviderAzureDevOps
	case strings.Contains(host, "github.com"):
		return ProviderGitHub
	case strings.Contains(host, "gitlab"):
		return ProviderGitLab
	default:
		return ProviderGit
	}
}
