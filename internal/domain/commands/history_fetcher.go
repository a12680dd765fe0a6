package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"slices"
	"strings"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/mod/semver"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
	"github.com/rios0rios0/bumplog/internal/domain/repositories"
)

// ProviderLookup returns the provider serving the given provider name.
type ProviderLookup func(name string) (repositories.ProviderRepository, error)

// FetchOptions tunes a HistoryFetcher.
type FetchOptions struct {
	MessageFilter *regexp.Regexp
	MaxCommits    int
	MaxRetries    int
}

// HistoryFetcher retrieves the upstream history of one changed package. It
// never fails: every problem becomes a warning record in the returned history.
type HistoryFetcher struct {
	resolver  repositories.ResolverRepository
	providers ProviderLookup
	budget    *RateBudget
	opts      FetchOptions
}

// NewHistoryFetcher creates a fetcher sharing budget with every other fetch of the run.
func NewHistoryFetcher(
	resolver repositories.ResolverRepository,
	providers ProviderLookup,
	budget *RateBudget,
	opts FetchOptions,
) *HistoryFetcher {
	if opts.MaxCommits < 1 {
		opts.MaxCommits = entities.DefaultMaxCommits
	}
	return &HistoryFetcher{
		resolver:  resolver,
		providers: providers,
		budget:    budget,
		opts:      opts,
	}
}

// Fetch returns the commit records between the old and new version of change,
// oldest first. Removed packages and equal tags yield no records.
func (f *HistoryFetcher) Fetch(ctx context.Context, change entities.VersionChange) []entities.CommitRecord {
	if change.IsRemoval() {
		return nil
	}

	repo, err := f.resolver.Resolve(ctx, change.Package)
	if err != nil {
		return f.degrade(change, err)
	}

	provider, err := f.providers(repo.ProviderName)
	if err != nil {
		return f.degrade(change, err)
	}

	var tags []string
	err = f.withRetry(ctx, change.Package, func() error {
		var tagsErr error
		tags, tagsErr = provider.GetTags(ctx, repo)
		return tagsErr
	})
	if err != nil {
		return f.degrade(change, err)
	}

	var records []entities.CommitRecord

	base := ""
	if !change.IsAddition() {
		base = FindTag(tags, change.OldVersion)
		if base == "" {
			logger.Warnf("[fetch] %s: no tag for %s, starting from the earliest known commit", change.Package, change.OldVersion)
			records = append(records, entities.NewWarningRecord(
				change.Package, fmt.Sprintf("no tag for %s, history starts at the earliest known commit", change.OldVersion),
			))
		}
	}

	head := FindTag(tags, change.NewVersion)
	if head == "" {
		logger.Warnf("[fetch] %s: no tag for %s, using the latest known commit", change.Package, change.NewVersion)
		records = append(records, entities.NewWarningRecord(
			change.Package, fmt.Sprintf("no tag for %s, history ends at the latest known commit", change.NewVersion),
		))
	}

	if base != "" && base == head {
		return records
	}

	var commits []entities.Commit
	err = f.withRetry(ctx, change.Package, func() error {
		var listErr error
		commits, listErr = provider.ListCommits(ctx, repo, base, head, f.opts.MaxCommits)
		return listErr
	})
	if err != nil {
		return append(records, f.degrade(change, err)...)
	}

	logger.Debugf("[fetch] %s: %d commits between %q and %q", change.Package, len(commits), base, head)

	// providers answer newest first; the report reads oldest first
	fullName := entities.FullName(repo)
	for _, commit := range slices.Backward(commits) {
		if f.opts.MessageFilter != nil && f.opts.MessageFilter.MatchString(commit.Message) {
			continue
		}
		if strings.TrimSpace(commit.Message) == "" {
			continue
		}
		records = append(records, entities.NewCommitRecord(change.Package, commit.Message, fullName))
	}
	return records
}

// withRetry runs op under the shared budget, retrying rate-limited attempts
// with backoff up to MaxRetries times.
func (f *HistoryFetcher) withRetry(ctx context.Context, pkg string, op func() error) error {
	for attempt := 0; ; attempt++ {
		if err := f.budget.Wait(ctx); err != nil {
			return err
		}

		err := op()
		rateErr, limited := entities.AsRateLimitError(err)
		if !limited || attempt >= f.opts.MaxRetries {
			return err
		}

		delay := f.budget.Backoff(rateErr.RetryAfter, attempt)
		logger.Debugf("[fetch] %s: rate limited, retrying in %s (attempt %d/%d)", pkg, delay, attempt+1, f.opts.MaxRetries)
	}
}

func (f *HistoryFetcher) degrade(change entities.VersionChange, err error) []entities.CommitRecord {
	reason := describeFailure(err)
	logger.Warnf("[fetch] %s: history unavailable: %s: %v", change.Package, reason, err)
	return []entities.CommitRecord{entities.NewUnavailableRecord(change.Package, reason)}
}

// describeFailure turns a fetch error into a short human-readable reason.
// Client error text never reaches the report; it is only logged.
func describeFailure(err error) string {
	if _, limited := entities.AsRateLimitError(err); limited {
		return "rate limit exceeded"
	}

	var hostErr *entities.SourceHostError
	var netErr net.Error
	switch {
	case errors.Is(err, entities.ErrRepositoryNotResolved):
		return "source repository not found"
	case errors.Is(err, entities.ErrProviderNotFound):
		return "no provider for source repository"
	case errors.Is(err, entities.ErrUnauthorized):
		return "authentication failed"
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	case errors.Is(err, context.Canceled):
		return "interrupted"
	case errors.As(err, &hostErr):
		return fmt.Sprintf("source host error (HTTP %d)", hostErr.StatusCode)
	case errors.As(err, &netErr):
		return "network error"
	default:
		return "unexpected error"
	}
}

// FindTag returns the tag naming version: the literal version, its "v"
// prefixed variant, or any tag equal to the version once a leading "v" is
// stripped. It returns an empty string when no tag matches.
func FindTag(tags []string, version string) string {
	if version == entities.AbsentVersion {
		return ""
	}

	for _, candidate := range []string{version, "v" + version} {
		if slices.Contains(tags, candidate) {
			return candidate
		}
	}

	bare := strings.TrimPrefix(version, "v")
	for _, tag := range tags {
		if strings.TrimPrefix(tag, "v") == bare {
			return tag
		}
	}

	// "1.2" and "v1.2.0" name the same release
	canonical := semver.Canonical("v" + bare)
	if canonical == "" {
		return ""
	}
	for _, tag := range tags {
		if semver.Canonical("v"+strings.TrimPrefix(tag, "v")) == canonical {
			return tag
		}
	}
	return ""
}
