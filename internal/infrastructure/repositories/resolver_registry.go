package repositories

import (
	"path/filepath"
	"strings"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
	domainRepos "github.com/rios0rios0/bumplog/internal/domain/repositories"
	"github.com/rios0rios0/bumplog/internal/infrastructure/repositories/resolver"
)

// ResolverFactory builds a resolver from the run settings. It may return nil
// when the settings leave nothing for it to do.
type ResolverFactory func(settings *entities.Settings) domainRepos.ResolverRepository

// ResolverRegistry assembles the resolver chain of a run: generic resolvers
// first, in registration order, then the registry lookup matching the
// lockfile ecosystem when it is enabled.
type ResolverRegistry struct {
	generic    []ResolverFactory
	registries map[string]ResolverFactory
}

// NewResolverRegistry creates an empty resolver registry.
func NewResolverRegistry() *ResolverRegistry {
	return &ResolverRegistry{
		registries: make(map[string]ResolverFactory),
	}
}

// RegisterGeneric adds a resolver used for every ecosystem.
func (r *ResolverRegistry) RegisterGeneric(factory ResolverFactory) {
	r.generic = append(r.generic, factory)
}

// RegisterRegistry adds the lookup for one package registry (e.g. "pypi").
func (r *ResolverRegistry) RegisterRegistry(name string, factory ResolverFactory) {
	r.registries[name] = factory
}

// Build returns the resolver chain for a run over lockfile.
func (r *ResolverRegistry) Build(settings *entities.Settings, lockfile string) domainRepos.ResolverRepository {
	var chain []domainRepos.ResolverRepository
	for _, factory := range r.generic {
		if built := factory(settings); built != nil {
			chain = append(chain, built)
		}
	}

	ecosystem := EcosystemOf(lockfile)
	if factory, ok := r.registries[ecosystem]; ok && settings.RegistryEnabled(ecosystem) {
		if built := factory(settings); built != nil {
			chain = append(chain, built)
		}
	}
	return resolver.NewChainResolver(chain...)
}

// EcosystemOf names the package registry serving the packages of a lockfile,
// or returns an empty string when none applies.
func EcosystemOf(lockfile string) string {
	name := filepath.Base(lockfile)
	switch {
	case name == "Pipfile.lock", strings.HasPrefix(name, "requirements") && strings.HasSuffix(name, ".txt"):
		return entities.RegistryPyPI
	case name == "package-lock.json", name == "npm-shrinkwrap.json":
		return entities.RegistryNpm
	case name == "go.mod":
		return entities.RegistryGo
	case name == ".terraform.lock.hcl", strings.HasSuffix(name, ".tf"):
		return entities.RegistryTerraform
	default:
		return ""
	}
}
