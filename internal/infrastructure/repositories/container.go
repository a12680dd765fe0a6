package repositories

import (
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/dig"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
	domainRepos "github.com/rios0rios0/bumplog/internal/domain/repositories"
	adoRepo "github.com/rios0rios0/bumplog/internal/infrastructure/repositories/azuredevops"
	ghRepo "github.com/rios0rios0/bumplog/internal/infrastructure/repositories/github"
	gitRepo "github.com/rios0rios0/bumplog/internal/infrastructure/repositories/gitrepo"
	glRepo "github.com/rios0rios0/bumplog/internal/infrastructure/repositories/gitlab"
	"github.com/rios0rios0/bumplog/internal/infrastructure/repositories/resolver"
	"github.com/rios0rios0/bumplog/internal/infrastructure/repositories/snapshot"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(resolver.NewHTTPClient); err != nil {
		return err
	}

	// Register provider registry with all source host factories
	if err := container.Provide(func() *ProviderRegistry {
		reg := NewProviderRegistry()
		reg.Register(entities.ProviderGitHub, func(settings *entities.Settings) domainRepos.ProviderRepository {
			return ghRepo.NewGitHubProviderRepository(settings.TokenFor(entities.ProviderGitHub))
		})
		reg.Register(entities.ProviderGitLab, func(settings *entities.Settings) domainRepos.ProviderRepository {
			return glRepo.NewGitLabProviderRepository(settings.TokenFor(entities.ProviderGitLab))
		})
		reg.Register(entities.ProviderAzureDevOps, func(settings *entities.Settings) domainRepos.ProviderRepository {
			return adoRepo.NewAzureDevOpsProviderRepository(settings.TokenFor(entities.ProviderAzureDevOps))
		})
		reg.Register(entities.ProviderGit, func(settings *entities.Settings) domainRepos.ProviderRepository {
			return gitRepo.NewGitProviderRepository(settings.CacheDir)
		})
		return reg
	}); err != nil {
		return err
	}

	// Register resolver registry: configuration first, then the package registries
	if err := container.Provide(func(client *retryablehttp.Client) *ResolverRegistry {
		return NewDefaultResolverRegistry(client)
	}); err != nil {
		return err
	}

	// Register the lockfile reader and bind it to its port
	if err := container.Provide(snapshot.NewGitSnapshotRepository); err != nil {
		return err
	}
	if err := container.Provide(func(impl *snapshot.GitSnapshotRepository) domainRepos.SnapshotRepository {
		return impl
	}); err != nil {
		return err
	}

	return nil
}

// NewDefaultResolverRegistry registers every resolver the tool ships with.
func NewDefaultResolverRegistry(client *retryablehttp.Client) *ResolverRegistry {
	reg := NewResolverRegistry()
	reg.RegisterGeneric(func(settings *entities.Settings) domainRepos.ResolverRepository {
		if len(settings.Packages) == 0 {
			return nil
		}
		return resolver.NewStaticResolver(settings.Packages)
	})
	reg.RegisterGeneric(func(settings *entities.Settings) domainRepos.ResolverRepository {
		if len(settings.Rules) == 0 {
			return nil
		}
		return resolver.NewRuleResolver(settings.Rules)
	})
	reg.RegisterGeneric(func(*entities.Settings) domainRepos.ResolverRepository {
		return resolver.NewURLResolver()
	})
	reg.RegisterRegistry(entities.RegistryPyPI, func(*entities.Settings) domainRepos.ResolverRepository {
		return resolver.NewPyPIResolver(client, resolver.DefaultPyPIURL)
	})
	reg.RegisterRegistry(entities.RegistryNpm, func(*entities.Settings) domainRepos.ResolverRepository {
		return resolver.NewNpmResolver(client, resolver.DefaultNpmURL)
	})
	reg.RegisterRegistry(entities.RegistryGo, func(*entities.Settings) domainRepos.ResolverRepository {
		return resolver.NewGoModuleResolver()
	})
	reg.RegisterRegistry(entities.RegistryTerraform, func(*entities.Settings) domainRepos.ResolverRepository {
		return resolver.NewTerraformResolver()
	})
	return reg
}
