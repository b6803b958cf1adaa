// Command leadsync is the operator CLI: mapping import/export, submission
// replay, admin tokens and webhook keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"leadsync_backend/internal/bootstrap"
	"leadsync_backend/platform/config"
	"leadsync_backend/platform/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "leadsync",
	Short:         "Operate the form-to-CRM sync service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the same environment as the api binary.
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logger.NewWithWriter(os.Stderr, cfg.Env, cfg.LogLevel), nil
}

// withComponents runs fn against a fully wired application.
func withComponents(cmd *cobra.Command, fn func(ctx context.Context, c *bootstrap.Components) error) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	components, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer components.Close()
	return fn(ctx, components)
}
