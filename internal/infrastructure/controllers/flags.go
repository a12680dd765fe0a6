package controllers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/bumplog/internal/domain/commands"
	"github.com/rios0rios0/bumplog/internal/domain/entities"
)

// addSelectionFlags adds the flags choosing what is diffed.
func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().String("lockfile", "", "Lockfile to diff (default: auto-detect in the current directory)")
	cmd.Flags().String("since", "", "Older revision of the lockfile (default: HEAD)")
	cmd.Flags().String("until", "", "Newer revision of the lockfile (default: the working tree)")
	cmd.Flags().StringP("package-filter", "p", "", "Only report packages matching this pattern (substring or glob)")
	cmd.Flags().Bool("plain", false, "Disable terminal styling")
}

// loadSettings reads the configuration file, when there is one, and applies
// the command-line overrides on top of it.
func loadSettings(cmd *cobra.Command) (*entities.Settings, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		found, err := entities.FindConfigFile()
		if err != nil {
			logger.Debugf("No config file found, using defaults: %v", err)
		} else {
			configPath = found
		}
	}
	if configPath != "" {
		logger.Infof("Using config file: %s", configPath)
	}

	settings, err := entities.NewSettings(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrideString(cmd, "github-token", &settings.Tokens.GitHub)
	overrideString(cmd, "gitlab-token", &settings.Tokens.GitLab)
	overrideString(cmd, "azure-devops-token", &settings.Tokens.AzureDevOps)
	overrideString(cmd, "message-filter", &settings.MessageFilter)
	overrideString(cmd, "cache-dir", &settings.CacheDir)
	if cmd.Flags().Changed("workers") {
		settings.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("timeout") {
		settings.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}

	if validateErr := settings.Validate(); validateErr != nil {
		return nil, validateErr
	}
	return settings, nil
}

// diffOptions collects the selection flags. A positional argument names the
// lockfile.
func diffOptions(cmd *cobra.Command, args []string, settings *entities.Settings) commands.DiffOptions {
	opts := commands.DiffOptions{
		Lockfile:      settings.Lockfile,
		PackageFilter: settings.PackageFilter,
	}
	overrideString(cmd, "lockfile", &opts.Lockfile)
	overrideString(cmd, "package-filter", &opts.PackageFilter)
	opts.Since, _ = cmd.Flags().GetString("since")
	opts.Until, _ = cmd.Flags().GetString("until")
	if len(args) > 0 {
		opts.Lockfile = args[0]
	}
	return opts
}

func overrideString(cmd *cobra.Command, flag string, target *string) {
	if cmd.Flags().Lookup(flag) == nil || !cmd.Flags().Changed(flag) {
		return
	}
	*target, _ = cmd.Flags().GetString(flag)
}

// runContext ends on SIGINT, SIGTERM or after timeout.
func runContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	timeoutCtx, cancel := context.WithTimeout(signalCtx, timeout)
	return timeoutCtx, func() {
		cancel()
		stop()
	}
}

// logRunEnd reports why a run ended early; the report is still printed.
func logRunEnd(ctx context.Context) {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		logger.Warn("Timed out, unfinished histories are reported as unavailable")
	case errors.Is(ctx.Err(), context.Canceled):
		logger.Warn("Interrupted, unfinished histories are reported as unavailable")
	}
}
