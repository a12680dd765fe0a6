package main

import (
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/bumplog/internal"
	"github.com/rios0rios0/bumplog/internal/infrastructure/controllers"
)

func buildRootCommand(changelogController *controllers.ChangelogController) *cobra.Command {
	//nolint:exhaustruct // Minimal Command initialization with required fields only
	cmd := &cobra.Command{
		Use:   "bumplog [lockfile]",
		Short: "Changelog of the dependencies updated in a lockfile",
		Long: `Reads two revisions of a lockfile, works out which packages changed version
and how (major, minor, patch, prerelease), then fetches the upstream commits
between the old and the new release of each package from GitHub, GitLab or
any git remote and prints them as one readable changelog.

Supported lockfiles: Pipfile.lock, requirements*.txt, go.mod,
package-lock.json, .terraform.lock.hcl and *.tf module pins.

Usage:
  bumplog                      Changes between HEAD and the working tree
  bumplog --since v1.2.0       Changes since a tag
  bumplog diff                 Only list the version changes (offline)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          changelogController.Execute,
		PersistentPreRun: func(command *cobra.Command, _ []string) {
			if verbose, _ := command.Flags().GetBool("verbose"); verbose {
				logger.SetLevel(logger.DebugLevel)
			}
		},
	}

	// Global persistent flags
	cmd.PersistentFlags().StringP("config", "c", "",
		"Path to config file (default: auto-detect)")
	cmd.PersistentFlags().BoolP("verbose", "v", false,
		"Enable verbose output")

	changelogController.AddFlags(cmd)
	return cmd
}

func addSubcommands(rootCmd *cobra.Command, appContext *internal.AppInternal) {
	for _, controller := range appContext.GetControllers() {
		bind := controller.GetBind()
		//nolint:exhaustruct // Minimal Command initialization with required fields only
		subCmd := &cobra.Command{
			Use:   bind.Use,
			Short: bind.Short,
			Long:  bind.Long,
			Args:  cobra.MaximumNArgs(1),
			RunE:  controller.Execute,
		}

		// Add controller-specific flags
		controller.AddFlags(subCmd)

		rootCmd.AddCommand(subCmd)
	}
}

func main() {
	//nolint:exhaustruct // Minimal TextFormatter initialization with required fields only
	logger.SetFormatter(&logger.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stderr)
	if os.Getenv("DEBUG") == "true" {
		logger.SetLevel(logger.DebugLevel)
	}

	// Inject controllers via DIG
	appContext := injectAppContext()
	cobraRoot := buildRootCommand(findChangelogController(appContext))

	// Add all subcommands
	addSubcommands(cobraRoot, appContext)

	if err := cobraRoot.Execute(); err != nil {
		logger.Fatalf("Error executing 'bumplog': %s", err)
	}
}

func findChangelogController(appContext *internal.AppInternal) *controllers.ChangelogController {
	for _, controller := range appContext.GetControllers() {
		if changelog, ok := controller.(*controllers.ChangelogController); ok {
			return changelog
		}
	}
	panic("changelog controller is not registered")
}
