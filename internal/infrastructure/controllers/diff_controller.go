package controllers

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/bumplog/internal/domain/commands"
	"github.com/rios0rios0/bumplog/internal/domain/entities"
)

// DiffController handles the "diff" subcommand: classified version changes
// without any network access.
type DiffController struct {
	command commands.Diff
}

// NewDiffController creates a new DiffController.
func NewDiffController(command commands.Diff) *DiffController {
	return &DiffController{command: command}
}

// GetBind returns the Cobra command metadata for the diff controller.
func (it *DiffController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "diff [lockfile]",
		Short: "List the version changes between two lockfile revisions",
		Long: `List every package whose version differs between two revisions of a
lockfile, with the kind of bump. Nothing is fetched from the network.`,
	}
}

// AddFlags adds the diff-specific flags to the given Cobra command.
func (it *DiffController) AddFlags(cmd *cobra.Command) {
	addSelectionFlags(cmd)
}

// Execute prints one header line per changed package.
func (it *DiffController) Execute(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	result, err := it.command.Execute(context.Background(), diffOptions(cmd, args, settings))
	if err != nil {
		return fmt.Errorf("failed to diff lockfile: %w", err)
	}

	plain, _ := cmd.Flags().GetBool("plain")
	decorate := renderOptions(plain).Decorate

	var builder strings.Builder
	for _, change := range result.Changes {
		header := entities.SectionHeader(entities.ChangelogSection{Change: change, Bump: change.Bump()})
		if decorate != nil {
			header = decorate(header)
		}
		builder.WriteString(header + "\n")
	}
	return writeTo(cmd.OutOrStdout(), builder.String())
}
