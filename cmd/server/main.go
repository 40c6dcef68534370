package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/normapipe/normapipe/internal/config"
	"github.com/normapipe/normapipe/internal/extract"
	"github.com/normapipe/normapipe/internal/ingest"
	"github.com/normapipe/normapipe/internal/logging"
	"github.com/normapipe/normapipe/internal/metrics"
	"github.com/normapipe/normapipe/internal/pipeline"
	"github.com/normapipe/normapipe/internal/store"
	"github.com/normapipe/normapipe/internal/web"
)

func main() {
	once := flag.Bool("once", false, "run the pipeline once and exit instead of serving HTTP")
	pages := flag.Int("pages", 0, "listing pages to scrape in -once mode (default: configured)")
	flag.Parse()

	// Load .env file if present (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to database")

	st := store.NewPostgres(pool)

	scraper := extract.New(extract.Config{
		BaseURL:          cfg.Pipeline.ListingURL,
		SiteOrigin:       cfg.Pipeline.SiteOrigin,
		Entity:           cfg.Pipeline.Entity,
		ClassificationID: cfg.Pipeline.ClassificationID,
		Timeout:          cfg.Pipeline.HTTPTimeout,
	}, slog.Default())

	engine := ingest.New(st, cfg.Pipeline.ComponentID, slog.Default())

	service := pipeline.New(scraper, engine, pipeline.Options{
		RulesPath:  cfg.Pipeline.RulesPath,
		Entity:     cfg.Pipeline.Entity,
		PagesMax:   cfg.Pipeline.PagesMax,
		RunTimeout: cfg.Pipeline.RunTimeout,
	}, metrics.New(), slog.Default())

	if *once {
		runOnce(ctx, service, cfg, *pages)
		return
	}

	server := web.NewServer(service, st, cfg)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// runOnce executes a single pipeline run and prints the result, for cron
// jobs and manual forced writes.
func runOnce(ctx context.Context, service *pipeline.Service, cfg *config.Config, pages int) {
	if pages <= 0 {
		pages = cfg.Pipeline.PagesDefault
	}

	result, err := service.RunOnce(ctx, pipeline.RunParams{Pages: pages})
	if result != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	}
	if err != nil {
		slog.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}
}
