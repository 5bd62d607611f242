// Package cli implements leadctl, the operator console for the lead pipeline.
// Every command runs against the same store, outbox and settings the API
// server uses.
package cli

import (
	"context"
	"log/slog"
	"os"

	"lead_automation_backend/internal/bootstrap"
	"lead_automation_backend/platform/config"
	"lead_automation_backend/platform/logger"

	"github.com/spf13/cobra"
)

// openContainer builds the application for one command; tests replace it.
var openContainer = func(ctx context.Context, verbose bool) (*bootstrap.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.Discard()
	if verbose {
		log = logger.NewWithWriter(cfg.Env, os.Stderr)
	}
	return bootstrap.New(ctx, cfg, log)
}

var rootCmd = &cobra.Command{
	Use:   "leadctl",
	Short: "Operate the lead qualification pipeline",
	Long: `leadctl adds and imports leads, qualifies them, simulates call provider
events and drafts proposals. Artifacts land in the configured outbox.

Configuration is read from .env and the environment, exactly like the API server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(qualifyCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(proposalCmd)
	rootCmd.AddCommand(outboxCmd)

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log pipeline activity to stderr")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// withContainer opens the application, runs fn and releases it.
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *bootstrap.Container) error) error {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, err := openContainer(ctx, verbose)
	if err != nil {
		return err
	}
	defer c.Close()

	if verbose {
		c.Log.Info("leadctl command", slog.String("command", cmd.Name()))
	}
	return fn(ctx, c)
}
