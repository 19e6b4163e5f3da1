package main

import (
	"context"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"moneyflow/internal/backend"
	"moneyflow/internal/cache"
	"moneyflow/internal/cli"
	apphttp "moneyflow/internal/http"
	applog "moneyflow/internal/log"
	"moneyflow/internal/services"
)

func main() {
	cfg, logger := cli.MustBootstrap(applog.ComponentApp)
	loc := cfg.Location()

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	svc := services.NewTransactionService(result.Source, services.Options{
		Location:      loc,
		MonthlyBudget: cfg.MonthlyBudget,
		Publisher:     result.Publisher,
		Logger:        logger,
		CacheSize:     cfg.CacheSize,
		CacheTTL:      cfg.CacheTTL,
	})

	caches := cache.NewManager(logger)
	for _, c := range svc.Caches() {
		caches.Register(c)
	}
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, svc, loc, logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	}()

	logger.Info("Starting moneyflow server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", loc.String())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
