package controllers

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/bumplog/internal/domain/commands"
	"github.com/rios0rios0/bumplog/internal/domain/entities"
	"github.com/rios0rios0/bumplog/internal/infrastructure/repositories/gitrepo"
)

const filePermission = 0o644

// ChangelogController handles the root command and the "changelog" subcommand.
type ChangelogController struct {
	command commands.Changelog
}

// NewChangelogController creates a new ChangelogController.
func NewChangelogController(command commands.Changelog) *ChangelogController {
	return &ChangelogController{command: command}
}

// GetBind returns the Cobra command metadata for the changelog controller.
func (it *ChangelogController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "changelog [lockfile]",
		Short: "Print the upstream changes behind a lockfile update",
		Long: `Compare two revisions of a lockfile and print, for every package whose
version changed, the upstream commits between the old and the new version.

The older revision defaults to HEAD and the newer one to the working tree,
so running it before committing a dependency bump describes that bump.`,
	}
}

// AddFlags adds the changelog-specific flags to the given Cobra command.
func (it *ChangelogController) AddFlags(cmd *cobra.Command) {
	addSelectionFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "Write the report to this file instead of stdout")
	cmd.Flags().String("changelog-file", "", "Also insert the changes into this Keep-a-Changelog file")
	cmd.Flags().String("message-filter", "", "Drop commits whose message matches this regular expression")
	cmd.Flags().String("github-token", "", "GitHub token (default: config, then GITHUB_TOKEN or GH_TOKEN)")
	cmd.Flags().String("gitlab-token", "", "GitLab token (default: config, then GITLAB_TOKEN or GL_TOKEN)")
	cmd.Flags().String("azure-devops-token", "",
		"Azure DevOps PAT (default: config, then AZURE_DEVOPS_EXT_PAT or AZURE_DEVOPS_TOKEN)")
	cmd.Flags().IntP("workers", "w", entities.DefaultWorkers, "Number of packages fetched concurrently")
	cmd.Flags().Duration("timeout", entities.DefaultTimeout, "Deadline for the whole run")
	cmd.Flags().String("cache-dir", "", "Directory holding the bare clones (default: user cache)")
	cmd.Flags().Bool("print-cache-dir", false, "Print the bare clone cache directory and exit")
}

// Execute runs the changelog generation.
func (it *ChangelogController) Execute(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	if printCacheDir, _ := cmd.Flags().GetBool("print-cache-dir"); printCacheDir {
		cacheDir := settings.CacheDir
		if cacheDir == "" {
			cacheDir = gitrepo.DefaultCacheDir()
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), cacheDir)
		return err
	}

	ctx, cancel := runContext(settings.Timeout)
	defer cancel()

	report, err := it.command.Execute(ctx, settings, diffOptions(cmd, args, settings))
	if err != nil {
		return fmt.Errorf("failed to build changelog: %w", err)
	}
	logRunEnd(ctx)

	if writeErr := it.writeReport(cmd, report); writeErr != nil {
		return writeErr
	}

	changelogFile, _ := cmd.Flags().GetString("changelog-file")
	if changelogFile != "" && !report.IsEmpty() {
		return insertIntoChangelog(changelogFile, report)
	}
	return nil
}

func (it *ChangelogController) writeReport(cmd *cobra.Command, report entities.ChangelogReport) error {
	if report.IsEmpty() {
		return nil
	}

	output, _ := cmd.Flags().GetString("output")
	if output != "" {
		// files never carry terminal styling
		rendered := entities.RenderChangelog(report, entities.RenderOptions{})
		if err := os.WriteFile(output, []byte(rendered), filePermission); err != nil {
			return fmt.Errorf("failed to write report to %s: %w", output, err)
		}
		logger.Infof("Report written to %s", output)
		return nil
	}

	plain, _ := cmd.Flags().GetBool("plain")
	return writeTo(cmd.OutOrStdout(), entities.RenderChangelog(report, renderOptions(plain)))
}

// renderOptions underlines section headers when writing to a terminal.
func renderOptions(plain bool) entities.RenderOptions {
	if plain || color.NoColor {
		return entities.RenderOptions{}
	}
	return entities.RenderOptions{Decorate: color.New(color.Underline).SprintFunc()}
}

func insertIntoChangelog(path string, report entities.ChangelogReport) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read changelog %s: %w", path, err)
	}

	updated := entities.InsertChangelogEntry(string(content), entities.ChangelogEntries(report))
	if updated == string(content) {
		logger.Warnf("No \"## [Unreleased]\" section in %s, left unchanged", path)
		return nil
	}

	if writeErr := os.WriteFile(path, []byte(updated), filePermission); writeErr != nil {
		return fmt.Errorf("failed to write changelog %s: %w", path, writeErr)
	}
	logger.Infof("Changelog %s updated", path)
	return nil
}

func writeTo(out io.Writer, text string) error {
	if _, err := io.WriteString(out, text); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
