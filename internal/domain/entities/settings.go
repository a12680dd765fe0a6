package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMessageFilter     = `(tests?|chore):`
	DefaultWorkers           = 8
	DefaultRequestsPerSecond = 10
	DefaultMaxRetries        = 3
	DefaultTimeout           = 5 * time.Minute
	DefaultMaxCommits        = 250

	RegistryPyPI = "pypi"
	RegistryNpm  = "npm"
	RegistryGo   = "go"
	// RegistryTerraform maps Terraform registry addresses to their conventional GitHub repositories.
	RegistryTerraform = "terraform"
)

// Settings is the run configuration. It is built once per invocation and only
// read afterwards.
type Settings struct {
	Tokens            TokenSettings     `yaml:"tokens"`
	Packages          map[string]string `yaml:"packages"`   // package name -> repository URL
	Rules             []ResolverRule    `yaml:"rules"`      // prefix -> repository URL template
	Registries        []string          `yaml:"registries"` // registry lookups to enable
	Lockfile          string            `yaml:"lockfile"`
	PackageFilter     string            `yaml:"package_filter"`
	MessageFilter     string            `yaml:"message_filter"`
	Workers           int               `yaml:"workers"`
	RequestsPerSecond float64           `yaml:"requests_per_second"`
	MaxRetries        int               `yaml:"max_retries"`
	Timeout           time.Duration     `yaml:"timeout"`
	MaxCommits        int               `yaml:"max_commits"`
	CacheDir          string            `yaml:"cache_dir"`
}

// TokenSettings holds the source host credentials. Each value may be inline,
// a ${ENV_VAR} reference or a path to a file holding the token.
type TokenSettings struct {
	GitHub      string `yaml:"github"`
	GitLab      string `yaml:"gitlab"`
	AzureDevOps string `yaml:"azure_devops"`
}

// ResolverRule maps every package starting with Prefix to a repository URL.
// "{name}" in URL is replaced by the package name.
type ResolverRule struct {
	Prefix string `yaml:"prefix"`
	URL    string `yaml:"url"`
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// NewDefaultSettings returns the settings used when no config file is found.
func NewDefaultSettings() *Settings {
	return &Settings{
		Packages:          map[string]string{},
		Registries:        []string{RegistryPyPI, RegistryNpm, RegistryGo, RegistryTerraform},
		MessageFilter:     DefaultMessageFilter,
		Workers:           DefaultWorkers,
		RequestsPerSecond: DefaultRequestsPerSecond,
		MaxRetries:        DefaultMaxRetries,
		Timeout:           DefaultTimeout,
		MaxCommits:        DefaultMaxCommits,
	}
}

// NewSettings reads a configuration file on top of the defaults, expanding
// environment variables and resolving token file paths. An empty path yields
// the defaults.
func NewSettings(path string) (*Settings, error) {
	settings := NewDefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	if unmarshalErr := yaml.Unmarshal(data, settings); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	settings.Tokens.GitHub = ResolveToken(settings.Tokens.GitHub)
	settings.Tokens.GitLab = ResolveToken(settings.Tokens.GitLab)
	settings.Tokens.AzureDevOps = ResolveToken(settings.Tokens.AzureDevOps)

	if validateErr := settings.Validate(); validateErr != nil {
		return nil, validateErr
	}

	return settings, nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".bumplog.yaml",
		".bumplog.yml",
		"bumplog.yaml",
		"bumplog.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// TokenFor returns the token configured for a provider, falling back to the
// conventional environment variables.
func (s *Settings) TokenFor(provider string) string {
	switch provider {
	case ProviderGitHub:
		return firstNonEmpty(s.Tokens.GitHub, os.Getenv("GITHUB_TOKEN"), os.Getenv("GH_TOKEN"))
	case ProviderGitLab:
		return firstNonEmpty(s.Tokens.GitLab, os.Getenv("GITLAB_TOKEN"), os.Getenv("GL_TOKEN"))
	case ProviderAzureDevOps:
		return firstNonEmpty(
			s.Tokens.AzureDevOps, os.Getenv("AZURE_DEVOPS_EXT_PAT"), os.Getenv("AZURE_DEVOPS_TOKEN"),
		)
	default:
		return ""
	}
}

// RegistryEnabled reports whether a registry lookup is enabled.
func (s *Settings) RegistryEnabled(name string) bool {
	for _, registry := range s.Registries {
		if strings.EqualFold(registry, name) {
			return true
		}
	}
	return false
}

// CompiledMessageFilter compiles the message filter, or returns nil when it is empty.
func (s *Settings) CompiledMessageFilter() (*regexp.Regexp, error) {
	if s.MessageFilter == "" {
		return nil, nil //nolint:nilnil // no filter configured
	}
	filter, err := regexp.Compile(s.MessageFilter)
	if err != nil {
		return nil, fmt.Errorf("invalid message_filter %q: %w", s.MessageFilter, err)
	}
	return filter, nil
}

// Validate checks the configuration values.
func (s *Settings) Validate() error {
	if s.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", s.Workers)
	}
	if s.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative, got %v", s.RequestsPerSecond)
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", s.MaxRetries)
	}
	if s.MaxCommits < 1 {
		return fmt.Errorf("max_commits must be at least 1, got %d", s.MaxCommits)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", s.Timeout)
	}
	if _, err := s.CompiledMessageFilter(); err != nil {
		return err
	}
	for i, rule := range s.Rules {
		if rule.Prefix == "" || rule.URL == "" {
			return fmt.Errorf("rules[%d] needs both prefix and url", i)
		}
	}
	return nil
}

// ResolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func ResolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})
	if resolved == "" {
		return resolved
	}

	if _, statErr := os.Stat(resolved); statErr == nil {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Debugf("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
