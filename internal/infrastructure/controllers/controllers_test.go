//go:build unit

package controllers_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bumplog/internal/domain/commands"
	"github.com/rios0rios0/bumplog/internal/domain/entities"
	"github.com/rios0rios0/bumplog/internal/infrastructure/controllers"
	"github.com/rios0rios0/bumplog/test/domain/commanddoubles"
)

// runController wires controller into a standalone cobra command with an
// empty config file and executes it with args.
func runController(t *testing.T, controller entities.Controller, args ...string) (string, error) {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "bumplog.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("workers: 3\n"), 0o600))

	bind := controller.GetBind()
	cmd := &cobra.Command{
		Use:          bind.Use,
		RunE:         controller.Execute,
		SilenceUsage: true,
	}
	cmd.Flags().StringP("config", "c", configPath, "")
	controller.AddFlags(cmd)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func sampleReport() entities.ChangelogReport {
	return entities.NewChangelogReport([]entities.ChangelogSection{
		{
			Change:  entities.VersionChange{Package: "requests", OldVersion: "2.31.0", NewVersion: "2.32.0"},
			Bump:    entities.BumpMinor,
			Commits: []entities.CommitRecord{entities.NewCommitRecord("requests", "Fix proxy handling", "")},
		},
		{
			Change: entities.VersionChange{Package: "attrs", OldVersion: entities.AbsentVersion, NewVersion: "23.1.0"},
			Bump:   entities.BumpNonSemver,
		},
	})
}

func TestChangelogController(t *testing.T) {
	t.Parallel()

	t.Run("should print the report to stdout", func(t *testing.T) {
		t.Parallel()

		// given
		command := &commanddoubles.StubChangelogCommand{Report: sampleReport()}
		controller := controllers.NewChangelogController(command)

		// when
		out, err := runController(t, controller, "--plain")

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.RenderChangelog(sampleReport(), entities.RenderOptions{}), out)
		assert.Equal(t, 1, command.ExecuteCallCount)
		assert.Equal(t, 3, command.LastSettings.Workers)
	})

	t.Run("should apply the flags on top of the configuration", func(t *testing.T) {
		t.Parallel()

		// given
		command := &commanddoubles.StubChangelogCommand{}
		controller := controllers.NewChangelogController(command)

		// when
		_, err := runController(t, controller,
			"services/api/Pipfile.lock",
			"--since", "v1.0.0",
			"--until", "v1.1.0",
			"-p", "invenio-*",
			"-w", "5",
			"--message-filter", "^wip",
			"--github-token", "ghp_flag",
		)

		// then
		require.NoError(t, err)
		assert.Equal(t, commands.DiffOptions{
			Lockfile:      "services/api/Pipfile.lock",
			Since:         "v1.0.0",
			Until:         "v1.1.0",
			PackageFilter: "invenio-*",
		}, command.LastOpts)
		assert.Equal(t, 5, command.LastSettings.Workers)
		assert.Equal(t, "^wip", command.LastSettings.MessageFilter)
		assert.Equal(t, "ghp_flag", command.LastSettings.Tokens.GitHub)
	})

	t.Run("should write the report to the output file", func(t *testing.T) {
		t.Parallel()

		// given
		command := &commanddoubles.StubChangelogCommand{Report: sampleReport()}
		controller := controllers.NewChangelogController(command)
		output := filepath.Join(t.TempDir(), "report.txt")

		// when
		out, err := runController(t, controller, "-o", output)

		// then
		require.NoError(t, err)
		assert.Empty(t, out)
		written, readErr := os.ReadFile(output)
		require.NoError(t, readErr)
		assert.Equal(t, entities.RenderChangelog(sampleReport(), entities.RenderOptions{}), string(written))
	})

	t.Run("should insert the changes into a changelog file", func(t *testing.T) {
		t.Parallel()

		// given
		command := &commanddoubles.StubChangelogCommand{Report: sampleReport()}
		controller := controllers.NewChangelogController(command)
		changelog := filepath.Join(t.TempDir(), "CHANGELOG.md")
		require.NoError(t, os.WriteFile(changelog, []byte("# Changelog\n\n## [Unreleased]\n\n## [1.0.0] - 2024-01-01\n"), 0o600))

		// when
		_, err := runController(t, controller, "--plain", "--changelog-file", changelog)

		// then
		require.NoError(t, err)
		content, readErr := os.ReadFile(changelog)
		require.NoError(t, readErr)
		assert.Contains(t, string(content), "### Changed\n\n- added `attrs` at `23.1.0`\n- changed `requests` from `2.31.0` to `2.32.0`\n")
	})

	t.Run("should print nothing for an empty report", func(t *testing.T) {
		t.Parallel()

		// given
		command := &commanddoubles.StubChangelogCommand{}
		controller := controllers.NewChangelogController(command)

		// when
		out, err := runController(t, controller)

		// then
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("should print the cache directory without running", func(t *testing.T) {
		t.Parallel()

		// given
		command := &commanddoubles.StubChangelogCommand{}
		controller := controllers.NewChangelogController(command)
		cacheDir := filepath.Join(t.TempDir(), "clones")

		// when
		out, err := runController(t, controller, "--cache-dir", cacheDir, "--print-cache-dir")

		// then
		require.NoError(t, err)
		assert.Equal(t, cacheDir+"\n", out)
		assert.Zero(t, command.ExecuteCallCount)
	})

	t.Run("should return input errors", func(t *testing.T) {
		t.Parallel()

		// given
		command := &commanddoubles.StubChangelogCommand{ExecuteErr: entities.ErrLockfileNotFound}
		controller := controllers.NewChangelogController(command)

		// when
		_, err := runController(t, controller)

		// then
		require.ErrorIs(t, err, entities.ErrLockfileNotFound)
	})

	t.Run("should reject invalid flag values", func(t *testing.T) {
		t.Parallel()

		// given
		command := &commanddoubles.StubChangelogCommand{}
		controller := controllers.NewChangelogController(command)

		// when
		_, err := runController(t, controller, "--workers", "0")

		// then
		require.Error(t, err)
		assert.Zero(t, command.ExecuteCallCount)
	})
}

func TestDiffController(t *testing.T) {
	t.Parallel()

	t.Run("should print one header per change", func(t *testing.T) {
		t.Parallel()

		// given
		command := &commanddoubles.StubDiffCommand{Result: &commands.DiffResult{
			Lockfile: "Pipfile.lock",
			Changes: []entities.VersionChange{
				{Package: "django", OldVersion: "4.2.1", NewVersion: "5.0.0"},
				{Package: "six", OldVersion: "1.16.0", NewVersion: entities.AbsentVersion},
			},
		}}
		controller := controllers.NewDiffController(command)

		// when
		out, err := runController(t, controller, "--plain", "Pipfile.lock")

		// then
		require.NoError(t, err)
		assert.Equal(t, "📁 django (4.2.1 -> 5.0.0 ⚠️)\n📁 six (1.16.0 -> ∅ 🔥)\n", out)
		assert.Equal(t, "Pipfile.lock", command.LastOpts.Lockfile)
	})

	t.Run("should return diff errors", func(t *testing.T) {
		t.Parallel()

		// given
		command := &commanddoubles.StubDiffCommand{ExecuteErr: errors.New("boom")}
		controller := controllers.NewDiffController(command)

		// when
		_, err := runController(t, controller)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to diff lockfile")
	})
}
