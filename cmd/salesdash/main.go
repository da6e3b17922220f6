package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"salesdash/internal/backend"
	"salesdash/internal/cache"
	"salesdash/internal/cli"
	apphttp "salesdash/internal/http"
	"salesdash/internal/loader"
	"salesdash/internal/log"
	"salesdash/internal/services"
	"salesdash/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	deps, err := backend.NewFactory(logger).Create(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize dependencies",
			log.FieldOperation, log.OpStartup,
			log.FieldError, err,
			"data_source", cfg.DataSource)
		os.Exit(1)
	}

	sessions := session.NewStore(cfg.SessionMax, cfg.SessionTTL, logger.WithComponent(log.ComponentSession))
	ldr := loader.New(loader.NewStore(cfg.DatasetCacheSize), logger.WithComponent(log.ComponentLoader))
	svc := services.NewDashboardService(services.Options{
		Loader:         ldr,
		Sessions:       sessions,
		Default:        deps.Default,
		History:        deps.History,
		Events:         deps.Events,
		CurrencySymbol: cfg.CurrencySymbol,
		DefaultRefresh: cfg.DefaultRefresh,
		Logger:         logger,
	})

	cleanup := cache.NewManager()
	cleanup.Register(sessions.Cleaner())

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Service:        svc,
		Sessions:       sessions,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Cleanup:        cleanup,
		Logger:         logger.WithComponent(log.ComponentHTTP),
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		os.Exit(1)
	}
	cleanup.StartCleanup(time.Minute)

	// Warm the default dataset so the first request does not pay for it.
	// A failure here is not fatal: the page explains it and uploads work.
	if err := svc.Ready(context.Background()); err != nil {
		logger.Warn("Default dataset not available at startup",
			log.FieldOperation, log.OpStartup,
			log.FieldError, err)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cleanup.Stop()
		if err := deps.Cleanup(); err != nil {
			logger.Error("Failed to close dependencies", log.FieldError, err)
		}
	})

	logger.Info("Starting salesdash server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"data_source", cfg.DataSource,
		"history", cfg.HistoryDBPath != "",
		"events", deps.Events != nil)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
