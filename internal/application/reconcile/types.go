package reconcile

import (
	"context"
	"time"

	"github.com/finbridge/reconcile-backend/internal/adapters/sources"
	"github.com/finbridge/reconcile-backend/internal/domain/categorizer"
	"github.com/finbridge/reconcile-backend/internal/domain/matcher"
)

// BankSource loads bank-feed transactions. Supplied in full per run.
type BankSource interface {
	FetchBankRecords(ctx context.Context, accountIDs []string, from, to time.Time) ([]sources.BankRecord, error)
}

// LedgerSource loads already-recorded ledger transactions.
type LedgerSource interface {
	FetchLedgerRecords(ctx context.Context, accountIDs []string, from, to time.Time) ([]sources.LedgerRecord, error)
}

// MappingSource loads the category-mapping catalog snapshot.
type MappingSource interface {
	FetchCategoryMappings(ctx context.Context) ([]categorizer.Mapping, error)
}

// Options configures a single reconciliation run.
type Options struct {
	JobID         string // External job identifier; generated when empty
	AccountIDs    []string
	From, To      time.Time
	ToleranceDays int  // 0 uses the orchestrator's configured tolerance
	DryRun        bool // Skip run persistence
}

// MissingTransaction is a bank transaction absent from the ledger, annotated
// with its inferred category.
type MissingTransaction struct {
	Transaction sources.Transaction
	Category    categorizer.Category
}

// Result is the immutable outcome of a reconciliation run.
type Result struct {
	RunID    int64
	JobID    string
	Matched  []matcher.Match
	Missing  []MissingTransaction
	Duration time.Duration
}

// MatchedCount returns the number of reconciled bank transactions.
func (r *Result) MatchedCount() int { return len(r.Matched) }

// MissingCount returns the number of bank transactions absent from the ledger.
func (r *Result) MissingCount() int { return len(r.Missing) }

// Total returns the number of bank transactions processed.
func (r *Result) Total() int { return len(r.Matched) + len(r.Missing) }
