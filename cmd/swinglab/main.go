// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ManuGH/swinglab/internal/api"
	"github.com/ManuGH/swinglab/internal/cache"
	"github.com/ManuGH/swinglab/internal/catalog"
	"github.com/ManuGH/swinglab/internal/config"
	"github.com/ManuGH/swinglab/internal/domain/compare/manager"
	"github.com/ManuGH/swinglab/internal/domain/compare/store"
	"github.com/ManuGH/swinglab/internal/health"
	xglog "github.com/ManuGH/swinglab/internal/log"
	"github.com/ManuGH/swinglab/internal/player"
	"github.com/ManuGH/swinglab/internal/telemetry"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

const shutdownTimeout = 10 * time.Second

// maskURL removes user info from a URL string for safe logging.
func maskURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	parsedURL.User = nil
	return parsedURL.String()
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
		case "catalog":
			os.Exit(runCatalogCLI(os.Args[2:]))
		case "storage":
			os.Exit(runStorageCLI(os.Args[2:]))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Safe defaults until the config is loaded
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "swinglab",
		Version: version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	effectiveConfigPath := strings.TrimSpace(*configPath)
	if effectiveConfigPath == "" {
		effectiveConfigPath = resolveDefaultConfigPath()
	}

	loader := config.NewLoader(effectiveConfigPath, version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str("config_path", effectiveConfigPath).
			Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})
	logger = xglog.WithComponent("daemon")

	source := "env+defaults"
	if effectiveConfigPath != "" {
		source = "file"
	}
	logger.Info().
		Str(xglog.FieldEvent, "config.loaded").
		Str("source", source).
		Str("path", effectiveConfigPath).
		Msg("configuration loaded")

	if err := run(ctx, cfg, loader, logger); err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "daemon.failed").
			Msg("daemon failed")
	}
	logger.Info().Msg("server exiting")
}

// run wires the compare manager, catalog and HTTP server and blocks until ctx
// is cancelled or a component fails.
func run(ctx context.Context, cfg config.AppConfig, loader *config.Loader, logger zerolog.Logger) error {
	logger.Info().
		Str(xglog.FieldEvent, "startup").
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("addr", cfg.ListenAddr).
		Msg("starting swinglab")
	logger.Info().Msgf("→ Data dir: %s", cfg.DataDir)
	logger.Info().Msgf("→ Snapshot store: %s", cfg.Store.Backend)
	logger.Info().Msgf("→ Playback clock: %s (seek interval %s)", cfg.Playback.Clock, cfg.Playback.SeekInterval)
	logger.Info().Msgf("→ Media base: %s", maskURL(cfg.Catalog.MediaBaseURL))
	if cfg.Catalog.SigningKey == "" {
		logger.Warn().
			Str("security", "weak").
			Msg("→ Media signing key: NOT configured, media links are unsigned. Set SWINGLAB_CATALOG_SIGNING_KEY.")
	}

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := health.CheckWritableDir(cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	snapshots, err := store.Open(cfg.Store.Backend, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	defer func() { _ = snapshots.Close() }()

	checks := health.NewManager(cfg.Version)
	checks.RegisterChecker(health.NewDirChecker("data_dir", cfg.DataDir))

	catalogCache := openCache(ctx, cfg, logger)
	if rc, ok := catalogCache.(*cache.RedisCache); ok {
		checks.RegisterChecker(health.NewPingChecker("redis", health.StatusDegraded, rc.HealthCheck))
	}
	defer func() { _ = catalogCache.Close() }()

	cat := catalog.Open(ctx, catalog.Options{
		DBPath:   cfg.CatalogDBPath(),
		MediaDir: cfg.MediaDir(),
		Signer:   catalog.NewSigner(cfg.Catalog.SigningKey, cfg.Catalog.MediaBaseURL, cfg.Catalog.URLTTL),
		Cache:    catalogCache,
		CacheTTL: cfg.Catalog.CacheTTL,
	})
	defer func() { _ = cat.Close() }()
	checks.RegisterChecker(health.NewPingChecker("catalog_db", health.StatusDegraded, cat.Ping))

	hubLogger := xglog.WithComponent("player-bridge")
	hub := player.NewHub(&hubLogger)
	mgr := manager.New(manager.Options{
		Store:        snapshots,
		SeekInterval: cfg.Playback.SeekInterval,
		Primitives:   hub.Primitive,
	})
	hub.SetManager(mgr)

	holder := config.NewConfigHolder(cfg, loader)
	if err := holder.StartWatcher(ctx); err != nil {
		logger.Warn().Err(err).Msg("config watcher not started")
	}
	defer holder.Stop()
	reloads := make(chan config.AppConfig, 1)
	holder.RegisterListener(reloads)

	srv := api.New(api.Deps{
		Manager:           mgr,
		Catalog:           cat,
		Hub:               hub,
		Health:            checks,
		Version:           cfg.Version,
		Tracing:           cfg.Telemetry.Enabled,
		RateLimitRequests: cfg.RateLimit.Requests,
		RateLimitWindow:   cfg.RateLimit.Window,
	})
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if cfg.Playback.Clock == config.ClockServer {
		g.Go(func() error { return mgr.RunClock(gctx, cfg.Playback.TickInterval) })
	}
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case next := <-reloads:
				applyReload(next)
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info().Str(xglog.FieldEvent, "shutdown").Msg("shutting down http server")
		err := httpServer.Shutdown(shutdownCtx)
		mgr.Close(shutdownCtx)
		hub.Close()
		return err
	})
	return g.Wait()
}

// openCache prefers Redis when configured and falls back to the in-process
// cache when Redis is unreachable.
func openCache(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) cache.Cache {
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   "swinglab:",
		}, xglog.WithComponent("cache"))
		if err == nil {
			return rc
		}
		logger.Warn().Err(err).Msg("redis unavailable, using in-memory catalog cache")
	}
	return cache.NewMemoryCache(time.Minute)
}

// applyReload applies the settings that take effect without a restart.
func applyReload(cfg config.AppConfig) {
	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})
}

// resolveDefaultConfigPath returns ${SWINGLAB_DATA_DIR}/config.yaml when it exists.
func resolveDefaultConfigPath() string {
	dataDir := strings.TrimSpace(os.Getenv(config.EnvPrefix + "DATA_DIR"))
	if dataDir == "" {
		dataDir = config.Defaults().DataDir
	}
	autoPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath
	}
	return ""
}
