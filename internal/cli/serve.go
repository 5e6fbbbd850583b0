package cli

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finbridge/reconcile-backend/internal/adapters/ledgerapi"
	"github.com/finbridge/reconcile-backend/internal/api"
	"github.com/finbridge/reconcile-backend/internal/application/reconcile"
	"github.com/finbridge/reconcile-backend/internal/application/service"
	"github.com/finbridge/reconcile-backend/internal/infrastructure/config"
	"github.com/finbridge/reconcile-backend/internal/infrastructure/logging"
	"github.com/finbridge/reconcile-backend/internal/infrastructure/storage"
)

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	Port    int
	Verbose bool
}

// ParseServeFlags parses command line flags for the serve command.
func ParseServeFlags() *ServeFlags {
	flags := &ServeFlags{}
	flag.IntVar(&flags.Port, "port", 8080, "Port to listen on")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// RunServe runs the API server.
func RunServe(cfg *config.Config, flags *ServeFlags) error {
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "api")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	client, err := ledgerapi.NewClient(ledgerapi.Config{
		BaseURL: cfg.Ledger.BaseURL,
		APIKey:  cfg.Ledger.APIKey,
		Timeout: time.Duration(cfg.Ledger.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return err
	}

	orchestrator := reconcile.New(client, client, client, store,
		logging.NewLoggerWithSystem(loggingCfg, "reconcile"), cfg.Matcher.ToleranceDays)

	reconcileService := service.NewReconcileService(orchestrator, logger)
	reconcileService.StartBackgroundCleanup(5 * time.Minute)
	defer reconcileService.StopBackgroundCleanup()

	apiCfg := api.Config{
		Port:           flags.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	if cfg.Server.Port != 0 && flags.Port == 8080 {
		apiCfg.Port = cfg.Server.Port
	}

	server := api.NewServer(apiCfg, store, reconcileService, logger)

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	return nil
}
