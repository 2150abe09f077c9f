package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"talentsearch/internal/ai"
	"talentsearch/internal/config"
	"talentsearch/internal/errors"
	"talentsearch/internal/observability"
	"talentsearch/internal/search"
	"talentsearch/internal/server"
	"talentsearch/internal/store"
)

// appOptions selects which parts of the application a command needs
type appOptions struct {
	generator     bool // connect the AI generator
	observability bool // start OpenTelemetry providers and exporters
	migrate       bool // apply the cache schema on startup
}

// application owns every long-lived resource a command uses
type application struct {
	cfg    *config.Config
	logger *errors.Logger

	pool      *pgxpool.Pool
	redis     *redis.Client
	generator *ai.Service
	om        *observability.ObservabilityManager
	search    *search.Service
}

// newApplication connects the stores and wires the search service. On error
// everything opened so far is closed.
func newApplication(ctx context.Context, cfg *config.Config, logger *errors.Logger, opts appOptions) (_ *application, err error) {
	app := &application{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	app.pool, err = store.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to Postgres", "url", config.MaskURL(cfg.Database.URL))

	if opts.migrate {
		if err = store.EnsureSchema(ctx, app.pool); err != nil {
			return nil, err
		}
		logger.Info("Search cache schema is up to date")
	}

	pageStore := store.NewPageStore(app.pool)
	var pages search.PageCache = pageStore
	if cfg.Redis.Enabled {
		app.redis, err = store.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		pages = store.NewRedisPageCache(app.redis, pageStore, cfg.Redis.KeyPrefix, cfg.Redis.PageTTL, logger)
		logger.Info("Redis page cache enabled", "url", config.MaskURL(cfg.Redis.URL), "ttl", cfg.Redis.PageTTL)
	}

	if opts.observability {
		app.om, err = observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize observability: %w", err)
		}
	}

	deps := search.Dependencies{
		Queries:  store.NewQueryStore(app.pool),
		Pages:    pages,
		Executor: store.NewCandidateSearcher(app.pool),
		Logger:   logger,
	}
	if app.om != nil {
		deps.Recorder = app.om.SearchRecorder()
	}

	if opts.generator {
		parseConfig := cfg.GetParseConfig()
		app.generator, err = ai.NewService(&parseConfig, config.OperationParse, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create AI service: %w", err)
		}
		deps.Generator = app.generator
	}

	app.search = search.NewService(deps, cfg.Search)
	return app, nil
}

// healthChecks returns the dependency probes reported by /health
func (a *application) healthChecks() []server.HealthCheck {
	checks := []server.HealthCheck{
		{Name: "postgres", Check: a.pool.Ping},
	}
	if a.redis != nil {
		checks = append(checks, server.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return a.redis.Ping(ctx).Err() },
		})
	}
	return checks
}

// Close releases every resource in reverse order of acquisition
func (a *application) Close() {
	if a.generator != nil {
		if err := a.generator.Close(); err != nil {
			a.logger.LogError(err, "Failed to close AI service")
		}
	}
	if a.om != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := a.om.Shutdown(ctx); err != nil {
			a.logger.LogError(err, "Failed to shut down observability")
		}
		cancel()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.LogError(err, "Failed to close Redis client")
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
