// Package reconcile orchestrates a full reconciliation run: load both
// transaction sources, match them, categorize the unmatched bank
// transactions, and persist the outcome.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finbridge/reconcile-backend/internal/adapters/sources"
	"github.com/finbridge/reconcile-backend/internal/domain/categorizer"
	"github.com/finbridge/reconcile-backend/internal/domain/matcher"
	"github.com/finbridge/reconcile-backend/internal/infrastructure/storage"
)

// Orchestrator coordinates the reconciliation pipeline.
type Orchestrator struct {
	bank          BankSource
	ledger        LedgerSource
	mappings      MappingSource
	storage       storage.Repository // nil disables persistence
	logger        *slog.Logger
	toleranceDays int
}

// New creates an Orchestrator. storage may be nil for ephemeral runs.
func New(bank BankSource, ledger LedgerSource, mappings MappingSource, store storage.Repository, logger *slog.Logger, toleranceDays int) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if toleranceDays <= 0 {
		toleranceDays = matcher.DefaultConfig().ToleranceDays
	}
	return &Orchestrator{
		bank:          bank,
		ledger:        ledger,
		mappings:      mappings,
		storage:       store,
		logger:        logger,
		toleranceDays: toleranceDays,
	}
}

// Run executes a reconciliation pass and returns its result. Source or
// validation failures abort the run with no partial result.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Result, error) {
	started := time.Now()

	jobID := opts.JobID
	if jobID == "" {
		jobID = uuid.NewString()
	}

	tolerance := opts.ToleranceDays
	if tolerance <= 0 {
		tolerance = o.toleranceDays
	}

	o.logger.Info("Starting reconciliation run",
		"job_id", jobID,
		"accounts", len(opts.AccountIDs),
		"tolerance_days", tolerance,
		"dry_run", opts.DryRun,
	)

	bankTxns, ledgerTxns, err := o.loadTransactions(ctx, opts)
	if err != nil {
		return nil, err
	}

	catalog, err := o.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	persist := !opts.DryRun && o.storage != nil

	var runID int64
	if persist {
		runID, err = o.storage.StartRun(&storage.ReconciliationRun{
			JobID:         jobID,
			StartedAt:     started,
			ToleranceDays: tolerance,
			BankCount:     len(bankTxns),
			LedgerCount:   len(ledgerTxns),
			Status:        storage.RunStatusRunning,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to start run: %w", err)
		}
	}

	engine := matcher.NewEngine(matcher.Config{ToleranceDays: tolerance})
	matchResult := engine.Reconcile(bankTxns, ledgerTxns)

	o.logger.Info("Matching complete",
		"job_id", jobID,
		"matched", matchResult.MatchedCount(),
		"missing", matchResult.MissingCount(),
	)

	missing := o.categorizeMissing(matchResult.Missing, catalog)

	result := &Result{
		RunID:    runID,
		JobID:    jobID,
		Matched:  matchResult.Matched,
		Missing:  missing,
		Duration: time.Since(started),
	}

	if persist {
		if err := o.persistResult(runID, result); err != nil {
			o.failRun(runID, err)
			return nil, err
		}
	}

	o.logger.Info("Reconciliation run complete",
		"job_id", jobID,
		"run_id", runID,
		"matched", result.MatchedCount(),
		"missing", result.MissingCount(),
		"duration", result.Duration.Round(time.Millisecond).String(),
	)

	return result, nil
}

func (o *Orchestrator) loadTransactions(ctx context.Context, opts Options) ([]sources.Transaction, []sources.Transaction, error) {
	bankRecords, err := o.bank.FetchBankRecords(ctx, opts.AccountIDs, opts.From, opts.To)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch bank records: %w", err)
	}
	ledgerRecords, err := o.ledger.FetchLedgerRecords(ctx, opts.AccountIDs, opts.From, opts.To)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch ledger records: %w", err)
	}

	o.logger.Debug("Fetched source records",
		"bank_count", len(bankRecords),
		"ledger_count", len(ledgerRecords),
	)

	bankTxns, err := sources.AdaptBankAll(bankRecords)
	if err != nil {
		return nil, nil, fmt.Errorf("bank records failed validation: %w", err)
	}
	ledgerTxns, err := sources.AdaptLedgerAll(ledgerRecords)
	if err != nil {
		return nil, nil, fmt.Errorf("ledger records failed validation: %w", err)
	}

	return bankTxns, ledgerTxns, nil
}

// loadCatalog fetches the mapping catalog, keeping a local copy in storage.
// When the upstream fetch fails, the last stored snapshot is used instead so
// a flaky mapping source does not abort the run.
func (o *Orchestrator) loadCatalog(ctx context.Context) (*categorizer.Catalog, error) {
	mappings, err := o.mappings.FetchCategoryMappings(ctx)
	if err != nil {
		if o.storage == nil {
			return nil, fmt.Errorf("failed to fetch category mappings: %w", err)
		}
		o.logger.Warn("Mapping fetch failed, using stored catalog", "error", err)
		mappings, err = o.storage.LoadMappings()
		if err != nil {
			return nil, fmt.Errorf("failed to load stored category mappings: %w", err)
		}
	} else if o.storage != nil {
		if err := o.storage.ReplaceMappings(mappings); err != nil {
			o.logger.Warn("Failed to refresh stored catalog", "error", err)
		}
	}

	catalog, err := categorizer.NewCatalog(mappings)
	if err != nil {
		return nil, fmt.Errorf("invalid category mappings: %w", err)
	}

	o.logger.Debug("Loaded category catalog", "mappings", catalog.Len())

	return catalog, nil
}

func (o *Orchestrator) categorizeMissing(txns []sources.Transaction, catalog *categorizer.Catalog) []MissingTransaction {
	cat := categorizer.NewCategorizer(catalog, categorizer.NewMemoryCache())

	missing := make([]MissingTransaction, 0, len(txns))
	for _, txn := range txns {
		category := cat.Categorize(txn)
		missing = append(missing, MissingTransaction{Transaction: txn, Category: category})
	}
	return missing
}

func (o *Orchestrator) persistResult(runID int64, result *Result) error {
	outcomes := make([]storage.TransactionOutcome, 0, result.Total())

	for _, m := range result.Matched {
		outcomes = append(outcomes, storage.TransactionOutcome{
			BankTransactionID:   m.Bank.ID,
			AccountID:           m.Bank.AccountID,
			Date:                m.Bank.Date,
			Amount:              m.Bank.Amount.String(),
			DisplayName:         m.Bank.DisplayName,
			Context:             m.Bank.Context,
			Status:              storage.OutcomeMatched,
			LedgerTransactionID: m.Ledger.ID,
			DateDiffDays:        m.DateDiffDays,
		})
	}
	for _, m := range result.Missing {
		outcomes = append(outcomes, storage.TransactionOutcome{
			BankTransactionID: m.Transaction.ID,
			AccountID:         m.Transaction.AccountID,
			Date:              m.Transaction.Date,
			Amount:            m.Transaction.Amount.String(),
			DisplayName:       m.Transaction.DisplayName,
			Context:           m.Transaction.Context,
			Status:            storage.OutcomeMissing,
			CategoryID:        m.Category.ID,
			CategoryName:      m.Category.Name,
		})
	}

	if err := o.storage.SaveOutcomes(runID, outcomes); err != nil {
		return fmt.Errorf("failed to save outcomes: %w", err)
	}
	if err := o.storage.CompleteRun(runID, result.MatchedCount(), result.MissingCount()); err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

func (o *Orchestrator) failRun(runID int64, cause error) {
	if err := o.storage.FailRun(runID, cause.Error()); err != nil {
		o.logger.Error("Failed to mark run as failed", "run_id", runID, "error", err)
	}
}
