package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/CueDeck/backend/internal/app"
	"github.com/GriffinCanCode/CueDeck/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/CueDeck/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/CueDeck/backend/internal/infrastructure/server"
	"github.com/GriffinCanCode/CueDeck/backend/internal/logging"
	"github.com/GriffinCanCode/CueDeck/backend/internal/providers/catalog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "cuedeck: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags override env vars
	port := flag.String("port", cfg.Server.Port, "Server port")
	dataDir := flag.String("data", cfg.Storage.UserDataDir, "User data directory")
	profile := flag.String("profile", cfg.Storage.ActiveProfile, "Profile to activate at startup")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development logging")
	flag.Parse()
	cfg.Server.Port = *port
	cfg.Storage.UserDataDir = *dataDir
	cfg.Storage.ActiveProfile = *profile
	cfg.Logging.Development = *dev

	logCfg := logging.DefaultConfig()
	if cfg.Logging.Development {
		logCfg = logging.DevelopmentConfig()
	}
	if cfg.Logging.Level != "" && !cfg.Logging.Development {
		logCfg.Level = cfg.Logging.Level
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Initializing CueDeck backend",
		zap.String("port", cfg.Server.Port),
		zap.String("user_data", cfg.Storage.UserDataDir),
		zap.String("catalog", cfg.Catalog.Driver),
	)

	ctx := context.Background()
	metrics := monitoring.NewMetrics()

	cat, err := catalog.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer cat.Close()

	host, err := app.New(app.OptionsFromConfig(cfg), cat, logger, metrics)
	if err != nil {
		return err
	}
	if _, err := host.Start(ctx); err != nil {
		return fmt.Errorf("failed to start host: %w", err)
	}

	srv := server.NewServer(cfg, host, metrics, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Shutting down gracefully", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			logger.Error("Server error", zap.Error(err))
		}
	}

	// Bound the drain plus the quit save
	sctx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Error("Shutdown incomplete", zap.Error(err))
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}
