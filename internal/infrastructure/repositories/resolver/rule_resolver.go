package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
)

const namePlaceholder = "{name}"

// RuleResolver resolves packages by name prefix. The first matching rule wins.
type RuleResolver struct {
	rules []entities.ResolverRule
}

// NewRuleResolver creates a resolver over the configured prefix rules.
func NewRuleResolver(rules []entities.ResolverRule) *RuleResolver {
	return &RuleResolver{rules: rules}
}

func (r *RuleResolver) Name() string { return "rules" }

func (r *RuleResolver) Resolve(_ context.Context, pkg string) (entities.SourceRepository, error) {
	for _, rule := range r.rules {
		if strings.HasPrefix(pkg, rule.Prefix) {
			return entities.NewSourceRepository(strings.ReplaceAll(rule.URL, namePlaceholder, pkg))
		}
	}
	return entities.SourceRepository{}, fmt.Errorf("%w: no rule matches %s", entities.ErrRepositoryNotResolved, pkg)
}
