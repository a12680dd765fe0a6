//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
	"github.com/rios0rios0/bumplog/internal/domain/repositories"
)

// StubSnapshotRepository implements repositories.SnapshotRepository over
// in-memory lockfile contents keyed by revision ("" is the working tree).
type StubSnapshotRepository struct {
	// --- DetectLockfile ---
	Lockfile     string
	DetectErr    error
	DetectedDirs []string

	// --- Snapshot ---
	Versions      map[string]map[string]string
	SnapshotErr   error
	SnapshotCalls []SnapshotCall
}

// SnapshotCall records a single invocation of Snapshot.
type SnapshotCall struct {
	Lockfile string
	Revision string
}

var _ repositories.SnapshotRepository = (*StubSnapshotRepository)(nil)

func (s *StubSnapshotRepository) DetectLockfile(dir string) (string, error) {
	s.DetectedDirs = append(s.DetectedDirs, dir)
	return s.Lockfile, s.DetectErr
}

func (s *StubSnapshotRepository) Snapshot(
	_ context.Context, lockfile, revision string,
) (entities.DependencySnapshot, error) {
	s.SnapshotCalls = append(s.SnapshotCalls, SnapshotCall{Lockfile: lockfile, Revision: revision})
	if s.SnapshotErr != nil {
		return entities.DependencySnapshot{}, s.SnapshotErr
	}
	versions, ok := s.Versions[revision]
	if !ok {
		return entities.DependencySnapshot{}, fmt.Errorf("%w: %s", entities.ErrRevisionNotFound, revision)
	}
	return entities.NewDependencySnapshot(revision, versions), nil
}
