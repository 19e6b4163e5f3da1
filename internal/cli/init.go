// Package cli holds the startup steps shared by cmd/moneyflow and
// cmd/moneyflow-worker.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"moneyflow/internal/config"
	applog "moneyflow/internal/log"
)

// Bootstrap loads and validates configuration and builds the root logger,
// which is also installed as the slog default.
func Bootstrap(component string, out io.Writer) (*config.Config, *applog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logCfg := applog.DefaultConfig()
	logCfg.Level = applog.ParseLevel(cfg.LogLevel)
	logCfg.Component = component
	if out != nil {
		logCfg.Output = out
	}
	logger := applog.New(logCfg)
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return cfg, logger, err
	}
	return cfg, logger, nil
}

// MustBootstrap is Bootstrap that exits the process on failure.
func MustBootstrap(component string) (*config.Config, *applog.Logger) {
	cfg, logger, err := Bootstrap(component, os.Stdout)
	if err != nil {
		if logger == nil {
			logger = applog.New(applog.DefaultConfig())
		}
		logger.Error("Startup failed",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg, logger
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM. The signal
// is logged once.
func SignalContext(parent context.Context, logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
