package repositories

import (
	"context"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
)

// SnapshotRepository reads the dependency snapshot declared by a lockfile.
type SnapshotRepository interface {
	// DetectLockfile returns the first supported lockfile found in dir.
	DetectLockfile(dir string) (string, error)

	// Snapshot parses the lockfile as it existed at revision. An empty revision
	// reads the current working tree.
	Snapshot(ctx context.Context, lockfile, revision string) (entities.DependencySnapshot, error)
}
