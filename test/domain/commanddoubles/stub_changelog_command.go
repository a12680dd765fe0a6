//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/bumplog/internal/domain/commands"
	"github.com/rios0rios0/bumplog/internal/domain/entities"
)

// StubChangelogCommand is a stub implementation of commands.Changelog.
type StubChangelogCommand struct {
	ExecuteCallCount int
	Report           entities.ChangelogReport
	ExecuteErr       error
	LastSettings     *entities.Settings
	LastOpts         commands.DiffOptions
}

var _ commands.Changelog = (*StubChangelogCommand)(nil)

func (s *StubChangelogCommand) Execute(
	_ context.Context,
	settings *entities.Settings,
	opts commands.DiffOptions,
) (entities.ChangelogReport, error) {
	s.ExecuteCallCount++
	s.LastSettings = settings
	s.LastOpts = opts
	return s.Report, s.ExecuteErr
}
