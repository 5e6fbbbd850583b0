package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/finbridge/reconcile-backend/internal/adapters/filesource"
	"github.com/finbridge/reconcile-backend/internal/adapters/ledgerapi"
	"github.com/finbridge/reconcile-backend/internal/application/reconcile"
	"github.com/finbridge/reconcile-backend/internal/cli"
	"github.com/finbridge/reconcile-backend/internal/infrastructure/config"
	"github.com/finbridge/reconcile-backend/internal/infrastructure/logging"
	"github.com/finbridge/reconcile-backend/internal/infrastructure/storage"
)

func main() {
	flags := cli.ParseReconcileFlags()

	cfg := config.LoadOrEnvWithPath(flags.ConfigFile)

	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "reconcile")

	from, to, err := flags.Window()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid date window: %v\n", err)
		os.Exit(1)
	}

	bank, ledger, mappings, err := buildSources(cfg, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var store storage.Repository
	if !flags.DryRun {
		s, err := storage.NewStorage(cfg.Storage.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to open database: %v\n", err)
			os.Exit(1)
		}
		defer s.Close()
		store = s
	}

	cli.PrintHeader(flags.DryRun)

	tolerance := flags.ToleranceDays
	if tolerance <= 0 {
		tolerance = cfg.Matcher.ToleranceDays
	}
	cli.PrintConfiguration(flags.AccountIDs(), flags.From, flags.To, tolerance)

	orchestrator := reconcile.New(bank, ledger, mappings, store, logger, cfg.Matcher.ToleranceDays)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := orchestrator.Run(ctx, reconcile.Options{
		AccountIDs:    flags.AccountIDs(),
		From:          from,
		To:            to,
		ToleranceDays: flags.ToleranceDays,
		DryRun:        flags.DryRun,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: reconciliation failed: %v\n", err)
		os.Exit(1)
	}

	cli.PrintReconcileSummary(result, store)
}

// buildSources picks file-backed sources when paths are given, falling back
// to the ledger API for anything not supplied as a file.
func buildSources(cfg *config.Config, flags cli.ReconcileFlags) (reconcile.BankSource, reconcile.LedgerSource, reconcile.MappingSource, error) {
	files := &filesource.Source{
		BankPath:    flags.BankFile,
		LedgerPath:  flags.LedgerFile,
		MappingPath: flags.MappingFile,
	}

	if flags.BankFile == "" {
		return nil, nil, nil, fmt.Errorf("a bank transactions file is required (-bank)")
	}

	var bank reconcile.BankSource = files
	var ledger reconcile.LedgerSource = files
	var mappings reconcile.MappingSource = files

	if flags.LedgerFile == "" || flags.MappingFile == "" {
		client, err := ledgerapi.NewClient(ledgerapi.Config{
			BaseURL: cfg.Ledger.BaseURL,
			APIKey:  cfg.Ledger.APIKey,
			Timeout: time.Duration(cfg.Ledger.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("ledger api client required when -ledger or -mappings is omitted: %w", err)
		}
		if flags.LedgerFile == "" {
			ledger = client
		}
		if flags.MappingFile == "" {
			mappings = client
		}
	}

	return bank, ledger, mappings, nil
}
