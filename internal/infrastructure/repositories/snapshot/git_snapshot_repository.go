package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
)

// detectionOrder lists the lockfiles looked for when none is given.
//
//nolint:gochecknoglobals // read-only lookup table
var detectionOrder = []string{
	"Pipfile.lock",
	"requirements.txt",
	"go.mod",
	"package-lock.json",
	".terraform.lock.hcl",
}

// GitSnapshotRepository reads lockfiles from the working tree or from any
// revision of the git repository holding them.
type GitSnapshotRepository struct{}

// NewGitSnapshotRepository creates a new GitSnapshotRepository.
func NewGitSnapshotRepository() *GitSnapshotRepository {
	return &GitSnapshotRepository{}
}

// DetectLockfile returns the first known lockfile present in dir.
func (r *GitSnapshotRepository) DetectLockfile(dir string) (string, error) {
	for _, name := range detectionOrder {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			logger.Debugf("[snapshot] detected lockfile %s", path)
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: none of %v in %s", entities.ErrLockfileNotFound, detectionOrder, dir)
}

// Snapshot parses lockfile as it was at revision. An empty revision reads the
// working tree.
func (r *GitSnapshotRepository) Snapshot(
	ctx context.Context,
	lockfile, revision string,
) (entities.DependencySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return entities.DependencySnapshot{}, err
	}

	parse, err := ParserFor(lockfile)
	if err != nil {
		return entities.DependencySnapshot{}, err
	}

	content, err := r.read(lockfile, revision)
	if err != nil {
		return entities.DependencySnapshot{}, err
	}

	versions, err := parse(content)
	if err != nil {
		return entities.DependencySnapshot{}, fmt.Errorf("failed to parse %s: %w", lockfile, err)
	}
	return entities.NewDependencySnapshot(revision, versions), nil
}

func (r *GitSnapshotRepository) read(lockfile, revision string) ([]byte, error) {
	if revision == "" {
		content, err := os.ReadFile(lockfile)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", entities.ErrLockfileNotFound, lockfile)
		}
		return content, err
	}

	absolute, err := absolutePath(lockfile)
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainOpenWithOptions(filepath.Dir(absolute), &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open the git repository holding %s: %w", lockfile, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	root, err := absolutePath(worktree.Filesystem.Root())
	if err != nil {
		return nil, err
	}
	relative, err := filepath.Rel(root, absolute)
	if err != nil {
		return nil, fmt.Errorf("failed to locate %s in %s: %w", lockfile, root, err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", entities.ErrRevisionNotFound, revision, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", entities.ErrRevisionNotFound, revision, err)
	}

	file, err := commit.File(filepath.ToSlash(relative))
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, fmt.Errorf("%w: %s at %s", entities.ErrLockfileNotFound, relative, revision)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s at %s: %w", relative, revision, err)
	}

	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s at %s: %w", relative, revision, err)
	}
	return []byte(contents), nil
}

// absolutePath resolves symlinks so that paths compare with the worktree root.
func absolutePath(path string) (string, error) {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	dir, name := filepath.Split(absolute)
	if resolved, evalErr := filepath.EvalSymlinks(dir); evalErr == nil {
		return filepath.Join(resolved, name), nil
	}
	return absolute, nil
}
