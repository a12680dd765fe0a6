//go:build unit

package snapshot_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bumplog/internal/domain/entities"
	"github.com/rios0rios0/bumplog/internal/infrastructure/repositories/snapshot"
)

const (
	goModV1 = "module example.com/app\n\ngo 1.22\n\nrequire github.com/spf13/cobra v1.8.0\n"
	goModV2 = "module example.com/app\n\ngo 1.22\n\nrequire (\n\tgithub.com/spf13/cobra v1.10.2\n\tgolang.org/x/mod v0.34.0\n)\n"
)

// commitFile writes content to name inside the worktree and commits it.
func commitFile(t *testing.T, repo *git.Repository, dir, name, content, message string) {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	worktree, err := repo.Worktree()
	require.NoError(t, err)
	_, err = worktree.Add(name)
	require.NoError(t, err)
	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

// newProject creates a repository whose go.mod changes between tag v1.0.0 and HEAD.
func newProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	commitFile(t, repo, dir, "go.mod", goModV1, "initial")
	head, err := repo.Head()
	require.NoError(t, err)
	_, err = repo.CreateTag("v1.0.0", head.Hash(), nil)
	require.NoError(t, err)

	commitFile(t, repo, dir, "go.mod", goModV2, "bump cobra")
	return dir
}

func TestGitSnapshotRepositorySnapshot(t *testing.T) {
	t.Parallel()

	t.Run("should read the lockfile at a tag and at HEAD", func(t *testing.T) {
		t.Parallel()

		// given
		dir := newProject(t)
		repository := snapshot.NewGitSnapshotRepository()
		lockfile := filepath.Join(dir, "go.mod")

		// when
		older, olderErr := repository.Snapshot(context.Background(), lockfile, "v1.0.0")
		newer, newerErr := repository.Snapshot(context.Background(), lockfile, "HEAD")

		// then
		require.NoError(t, olderErr)
		require.NoError(t, newerErr)
		version, _ := older.Version("github.com/spf13/cobra")
		assert.Equal(t, "v1.8.0", version)
		assert.Equal(t, 1, older.Len())
		version, _ = newer.Version("github.com/spf13/cobra")
		assert.Equal(t, "v1.10.2", version)
		assert.Equal(t, 2, newer.Len())
	})

	t.Run("should read uncommitted changes from the working tree", func(t *testing.T) {
		t.Parallel()

		// given
		dir := newProject(t)
		lockfile := filepath.Join(dir, "go.mod")
		require.NoError(t, os.WriteFile(lockfile, []byte(goModV1), 0o600))
		repository := snapshot.NewGitSnapshotRepository()

		// when
		current, err := repository.Snapshot(context.Background(), lockfile, "")

		// then
		require.NoError(t, err)
		version, _ := current.Version("github.com/spf13/cobra")
		assert.Equal(t, "v1.8.0", version)
	})

	t.Run("should read a lockfile in a sub-directory", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		repo, err := git.PlainInit(dir, false)
		require.NoError(t, err)
		commitFile(t, repo, dir, "services/api/package-lock.json",
			`{"packages": {"node_modules/react": {"version": "18.2.0"}}}`, "add api")
		repository := snapshot.NewGitSnapshotRepository()

		// when
		current, err := repository.Snapshot(context.Background(), filepath.Join(dir, "services", "api", "package-lock.json"), "HEAD")

		// then
		require.NoError(t, err)
		version, _ := current.Version("react")
		assert.Equal(t, "18.2.0", version)
	})

	t.Run("should fail for an unknown revision", func(t *testing.T) {
		t.Parallel()

		// given
		dir := newProject(t)
		repository := snapshot.NewGitSnapshotRepository()

		// when
		_, err := repository.Snapshot(context.Background(), filepath.Join(dir, "go.mod"), "v9.9.9")

		// then
		require.ErrorIs(t, err, entities.ErrRevisionNotFound)
	})

	t.Run("should fail when the lockfile did not exist at the revision", func(t *testing.T) {
		t.Parallel()

		// given
		dir := newProject(t)
		repo, err := git.PlainOpen(dir)
		require.NoError(t, err)
		commitFile(t, repo, dir, "Pipfile.lock", `{"default": {}}`, "add pipenv")
		repository := snapshot.NewGitSnapshotRepository()

		// when
		_, err = repository.Snapshot(context.Background(), filepath.Join(dir, "Pipfile.lock"), "v1.0.0")

		// then
		require.ErrorIs(t, err, entities.ErrLockfileNotFound)
	})

	t.Run("should fail when the working tree has no lockfile", func(t *testing.T) {
		t.Parallel()

		// given
		repository := snapshot.NewGitSnapshotRepository()

		// when
		_, err := repository.Snapshot(context.Background(), filepath.Join(t.TempDir(), "go.mod"), "")

		// then
		require.ErrorIs(t, err, entities.ErrLockfileNotFound)
	})

	t.Run("should reject an unsupported lockfile", func(t *testing.T) {
		t.Parallel()

		// given
		repository := snapshot.NewGitSnapshotRepository()

		// when
		_, err := repository.Snapshot(context.Background(), "Cargo.lock", "HEAD")

		// then
		require.ErrorIs(t, err, entities.ErrUnsupportedLockfile)
	})
}

func TestGitSnapshotRepositoryDetectLockfile(t *testing.T) {
	t.Parallel()

	t.Run("should prefer the first lockfile in detection order", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte(goModV1), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "Pipfile.lock"), []byte(`{}`), 0o600))

		// when
		lockfile, err := snapshot.NewGitSnapshotRepository().DetectLockfile(dir)

		// then
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "Pipfile.lock"), lockfile)
	})

	t.Run("should fail when no lockfile is present", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := snapshot.NewGitSnapshotRepository().DetectLockfile(t.TempDir())

		// then
		require.ErrorIs(t, err, entities.ErrLockfileNotFound)
	})
}
