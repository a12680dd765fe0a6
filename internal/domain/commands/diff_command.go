package commands

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
	"github.com/rios0rios0/bumplog/internal/domain/repositories"
)

const defaultSinceRevision = "HEAD"

// Diff is the interface for the diff command.
type Diff interface {
	Execute(ctx context.Context, opts DiffOptions) (*DiffResult, error)
}

// DiffOptions selects the lockfile and the revision range to compare.
type DiffOptions struct {
	Dir           string // where to look for a lockfile when Lockfile is empty
	Lockfile      string
	Since         string // older revision, HEAD when empty
	Until         string // newer revision, the working tree when empty
	PackageFilter string
}

// DiffResult holds both snapshots and the changes between them.
type DiffResult struct {
	Lockfile string
	Older    entities.DependencySnapshot
	Newer    entities.DependencySnapshot
	Changes  []entities.VersionChange
}

// DiffCommand extracts the version changes of a lockfile between two revisions.
type DiffCommand struct {
	snapshots repositories.SnapshotRepository
}

// NewDiffCommand creates a new DiffCommand reading snapshots from the given repository.
func NewDiffCommand(snapshots repositories.SnapshotRepository) *DiffCommand {
	return &DiffCommand{snapshots: snapshots}
}

// Execute reads both snapshots and diffs them. Failing to read either
// snapshot, or a filter matching no package on either side, is an input
// error and aborts the run.
func (it *DiffCommand) Execute(ctx context.Context, opts DiffOptions) (*DiffResult, error) {
	lockfile := opts.Lockfile
	if lockfile == "" {
		dir := opts.Dir
		if dir == "" {
			dir = "."
		}
		detected, err := it.snapshots.DetectLockfile(dir)
		if err != nil {
			return nil, err
		}
		lockfile = detected
	}
	logger.Infof("Using lockfile: %s", lockfile)

	since := opts.Since
	if since == "" {
		since = defaultSinceRevision
	}

	older, err := it.snapshots.Snapshot(ctx, lockfile, since)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s at %q: %w", lockfile, since, err)
	}

	newer, err := it.snapshots.Snapshot(ctx, lockfile, opts.Until)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s at %q: %w", lockfile, revisionLabel(opts.Until), err)
	}

	// a filter naming nothing is a typo, unlike one whose packages did not move
	if opts.PackageFilter != "" && !older.AnyMatches(opts.PackageFilter) && !newer.AnyMatches(opts.PackageFilter) {
		return nil, fmt.Errorf("%w: %q in %s", entities.ErrNoPackageMatched, opts.PackageFilter, lockfile)
	}

	changes := entities.Diff(older, newer, opts.PackageFilter)
	logger.Infof(
		"Compared %d -> %d packages between %s and %s: %d changed",
		older.Len(), newer.Len(), since, revisionLabel(opts.Until), len(changes),
	)

	return &DiffResult{
		Lockfile: lockfile,
		Older:    older,
		Newer:    newer,
		Changes:  changes,
	}, nil
}

func revisionLabel(revision string) string {
	if revision == "" {
		return "working tree"
	}
	return revision
}
