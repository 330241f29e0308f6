package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vmunix/cinego/internal/api"
	"github.com/vmunix/cinego/internal/catalog"
	"github.com/vmunix/cinego/internal/config"
	"github.com/vmunix/cinego/internal/gateway"
	"github.com/vmunix/cinego/internal/migrations"
	"github.com/vmunix/cinego/internal/ratelimit"
	"github.com/vmunix/cinego/pkg/omdb"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServer(configPath string) error {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return &config.ConfigError{Path: configPath, Errors: errs}
	}

	// Create logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	// Ensure database directory exists
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	// Open database
	db, err := sql.Open("sqlite", cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	// Run migrations
	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	store := catalog.NewStore(db)

	providerOpts := []omdb.Option{
		omdb.WithTimeout(cfg.Provider.Timeout.Std()),
		omdb.WithDetailRetries(cfg.Provider.DetailRetries),
		omdb.WithRateLimit(cfg.Provider.RequestsPerSecond),
		omdb.WithLogger(logger),
	}
	if cfg.Provider.BaseURL != "" {
		providerOpts = append(providerOpts, omdb.WithBaseURL(cfg.Provider.BaseURL))
	}
	provider := omdb.NewClient(cfg.Provider.APIKey, providerOpts...)

	gw := gateway.New(store, provider, gateway.Config{
		MaxConcurrency: cfg.Enrichment.MaxConcurrency,
		CacheTTL:       cfg.Cache.TTL.Std(),
	}, logger.With("component", "gateway"))

	limiter := ratelimit.New(cfg.RateLimit.Window.Std(), cfg.RateLimit.MaxRequests)

	// === Background Jobs ===
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Cache.TTL.Std() > 0 {
		go runPruner(ctx, store, cfg.Cache.TTL.Std(), cfg.Cache.PruneInterval.Std(),
			logger.With("component", "pruner"))
	}

	// === HTTP Setup ===
	mux := http.NewServeMux()
	apiServer := api.New(gw, store, limiter, api.Config{Version: version}, logger.With("component", "api"))
	apiServer.RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting",
		"addr", addr,
		"database", cfg.Database.Path,
		"rate_window", cfg.RateLimit.Window.Std().String(),
		"rate_max", cfg.RateLimit.MaxRequests,
		"cache_ttl", cfg.Cache.TTL.Std().String(),
		"log_level", cfg.Server.LogLevel,
	)

	handler := api.LogRequests(api.CORS(mux), logger)
	srv := &http.Server{Addr: addr, Handler: handler}

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig.String())

	// Cancel background jobs
	cancel()

	// Graceful HTTP shutdown with 30s timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// runPruner periodically removes records older than the cache TTL.
func runPruner(ctx context.Context, store *catalog.Store, ttl, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("pruner started", "ttl", ttl.String(), "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			log.Info("pruner stopped")
			return
		case <-ticker.C:
			removed, err := store.Prune(ctx, time.Now().Add(-ttl))
			if err != nil {
				log.Error("prune failed", "error", err)
				continue
			}
			if removed > 0 {
				log.Info("pruned stale records", "removed", removed)
			}
		}
	}
}
