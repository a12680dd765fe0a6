package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
)

// DefaultNpmURL is the public npm registry.
const DefaultNpmURL = "https://registry.npmjs.org"

type npmPackage struct {
	Repository json.RawMessage `json:"repository"`
	Homepage   string          `json:"homepage"`
}

// NpmResolver resolves npm packages from the "repository" field of their
// registry document.
type NpmResolver struct {
	client  *retryablehttp.Client
	baseURL string
}

// NewNpmResolver creates a resolver querying the registry at baseURL.
func NewNpmResolver(client *retryablehttp.Client, baseURL string) *NpmResolver {
	return &NpmResolver{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (r *NpmResolver) Name() string { return entities.RegistryNpm }

func (r *NpmResolver) Resolve(ctx context.Context, pkg string) (entities.SourceRepository, error) {
	var document npmPackage
	// scoped names keep their "@" but escape the separator
	endpoint := r.baseURL + "/" + strings.Replace(pkg, "/", "%2F", 1)
	if err := getJSON(ctx, r.client, endpoint, &document); err != nil {
		return entities.SourceRepository{}, err
	}

	candidates := []string{repositoryURL(document.Repository), document.Homepage}
	if repo, ok := firstHostedRepository(candidates); ok {
		return repo, nil
	}
	return entities.SourceRepository{}, fmt.Errorf("%w: npm lists no source repository for %s", entities.ErrRepositoryNotResolved, pkg)
}

// repositoryURL reads the "repository" field, either a string or an object
// with a "url", expanding the "github:owner/repo" and "owner/repo" shorthands.
func repositoryURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var link string
	if err := json.Unmarshal(raw, &link); err != nil {
		var object struct {
			URL string `json:"url"`
		}
		if objectErr := json.Unmarshal(raw, &object); objectErr != nil {
			return ""
		}
		link = object.URL
	}

	switch {
	case strings.HasPrefix(link, "github:"):
		return "https://github.com/" + strings.TrimPrefix(link, "github:")
	case strings.HasPrefix(link, "gitlab:"):
		return "https://gitlab.com/" + strings.TrimPrefix(link, "gitlab:")
	case !strings.Contains(link, ":") && strings.Count(link, "/") == 1:
		return "https://github.com/" + link
	default:
		return strings.Replace(strings.TrimPrefix(link, "git+"), "git://", "https://", 1)
	}
}
