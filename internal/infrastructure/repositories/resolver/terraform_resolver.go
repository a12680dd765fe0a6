package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
)

//nolint:gochecknoglobals // read-only lookup table
var gitHosts = map[string]bool{"github.com": true, "gitlab.com": true, "bitbucket.org": true}

// TerraformResolver maps Terraform registry addresses to the GitHub
// repositories the registry publishes from:
// "<host>/<namespace>/<type>" providers live in "<namespace>/terraform-provider-<type>",
// "<namespace>/<name>/<provider>" modules live in "<namespace>/terraform-<provider>-<name>".
// Git module sources without a scheme ("github.com/owner/repo") resolve to themselves.
type TerraformResolver struct{}

// NewTerraformResolver creates a new TerraformResolver.
func NewTerraformResolver() *TerraformResolver {
	return &TerraformResolver{}
}

func (r *TerraformResolver) Name() string { return entities.RegistryTerraform }

func (r *TerraformResolver) Resolve(_ context.Context, pkg string) (entities.SourceRepository, error) {
	segments := strings.Split(pkg, "/")
	// "." and ".." start local paths, not hosts
	hasHost := strings.Contains(segments[0], ".") && strings.Trim(segments[0], ".") != ""

	switch {
	case gitHosts[segments[0]]:
		return entities.NewSourceRepository("https://" + pkg)
	case hasHost && len(segments) == 3:
		return entities.NewSourceRepository(
			fmt.Sprintf("https://github.com/%s/terraform-provider-%s", segments[1], segments[2]),
		)
	case hasHost && len(segments) == 4:
		segments = segments[1:]
		fallthrough
	case !hasHost && len(segments) == 3:
		return entities.NewSourceRepository(
			fmt.Sprintf("https://github.com/%s/terraform-%s-%s", segments[0], segments[2], segments[1]),
		)
	}
	return entities.SourceRepository{}, fmt.Errorf("%w: %s is not a registry address", entities.ErrRepositoryNotResolved, pkg)
}
