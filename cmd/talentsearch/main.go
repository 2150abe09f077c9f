package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"talentsearch/internal/cli"
	"talentsearch/internal/config"
	"talentsearch/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// run loads configuration, applies Vault secrets and hands over to the
// command line. Errors are reported before they are returned.
func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "talentsearch: %v\n", err)
		return err
	}

	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "talentsearch: %v\n", err)
		return err
	}

	// Vault values win over file and environment values
	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		logger.LogError(err, "Failed to apply Vault secrets")
		return err
	}

	logger.Debug("talentsearch starting", "version", cli.Version, "log_level", cfg.App.LogLevel)
	if err := cli.Execute(ctx, cfg, logger); err != nil {
		logger.LogError(err, "Command failed")
		return err
	}
	return nil
}
