package cli

import (
	"talentsearch/internal/config"
	"talentsearch/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP search API",
	Long: `Start an HTTP server that exposes the search pipeline.

Available endpoints:
- POST /search: Submit a natural-language search and get its id
- POST /search/page: Fetch one page of candidate ids for a search
- GET /search/{searchID}: Show a search and its generated filter
- POST /filter/check: Validate a filter expression without running it
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().Bool("migrate", false, "Create the search cache tables before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())
	ctx := cmd.Context()

	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Server.Port = port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	migrate, _ := cmd.Flags().GetBool("migrate")

	app, err := newApplication(ctx, cfg, logger, appOptions{
		generator:     true,
		observability: true,
		migrate:       migrate,
	})
	if err != nil {
		return err
	}
	defer app.Close()

	if cfg.AI.PromptReload.Enabled {
		watcher := config.NewPromptWatcherForConfig(cfg, logger)
		if err := watcher.Start(); err != nil {
			return err
		}
		defer func() { _ = watcher.Stop() }()
	}

	deps := server.Dependencies{
		Search:        app.search,
		Validator:     app.search.Validator(),
		Generator:     app.generator,
		HealthChecks:  app.healthChecks(),
		Observability: app.om,
	}

	if cfg.Vault.Enabled && cfg.Vault.APIKeyPollInterval > 0 && cfg.Vault.Secrets.APIKeys != "" {
		vaultClient, err := config.NewVaultClient(cfg.Vault, logger)
		if err != nil {
			return err
		}
		deps.Vault = vaultClient
	}

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.App.MaxFileSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
	return server.NewServer(cfg, serverCfg, deps, logger).Run(ctx)
}
