package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
)

// DefaultPyPIURL is the public Python package index.
const DefaultPyPIURL = "https://pypi.org"

// projectURLKeys lists the PyPI project URL labels pointing at source code,
// best first.
//
//nolint:gochecknoglobals // read-only lookup table
var projectURLKeys = []string{"source", "source code", "repository", "code", "github", "gitlab", "homepage"}

type pypiProject struct {
	Info struct {
		HomePage    string            `json:"home_page"`
		ProjectURLs map[string]string `json:"project_urls"`
	} `json:"info"`
}

// PyPIResolver resolves Python packages from their PyPI metadata.
type PyPIResolver struct {
	client  *retryablehttp.Client
	baseURL string
}

// NewPyPIResolver creates a resolver querying the index at baseURL.
func NewPyPIResolver(client *retryablehttp.Client, baseURL string) *PyPIResolver {
	return &PyPIResolver{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (r *PyPIResolver) Name() string { return entities.RegistryPyPI }

func (r *PyPIResolver) Resolve(ctx context.Context, pkg string) (entities.SourceRepository, error) {
	var project pypiProject
	endpoint := fmt.Sprintf("%s/pypi/%s/json", r.baseURL, url.PathEscape(pkg))
	if err := getJSON(ctx, r.client, endpoint, &project); err != nil {
		return entities.SourceRepository{}, err
	}

	labelled := make(map[string]string, len(project.Info.ProjectURLs))
	for label, link := range project.Info.ProjectURLs {
		labelled[strings.ToLower(label)] = link
	}

	candidates := make([]string, 0, len(projectURLKeys)+1)
	for _, key := range projectURLKeys {
		if link, ok := labelled[key]; ok {
			candidates = append(candidates, link)
		}
	}
	candidates = append(candidates, project.Info.HomePage)
	for _, link := range project.Info.ProjectURLs {
		candidates = append(candidates, link)
	}

	if repo, ok := firstHostedRepository(candidates); ok {
		return repo, nil
	}
	return entities.SourceRepository{}, fmt.Errorf("%w: PyPI lists no source repository for %s", entities.ErrRepositoryNotResolved, pkg)
}

// firstHostedRepository returns the first candidate pointing at a known
// source host.
func firstHostedRepository(candidates []string) (entities.SourceRepository, bool) {
	for _, candidate := range candidates {
		if !strings.Contains(candidate, "github.com") && !strings.Contains(candidate, "gitlab.com") {
			continue
		}
		if repo, err := entities.NewSourceRepository(candidate); err == nil {
			return repo, true
		}
	}
	return entities.SourceRepository{}, false
}
