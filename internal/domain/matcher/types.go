package matcher

import (
	"github.com/finbridge/reconcile-backend/internal/adapters/sources"
)

// Config holds matcher configuration
type Config struct {
	ToleranceDays int // Max days between bank and ledger dates (default: 3)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		ToleranceDays: 3,
	}
}

// Match pairs a bank transaction with the ledger transaction it reconciled
// against.
type Match struct {
	Bank         sources.Transaction
	Ledger       sources.Transaction
	DateDiffDays int // Absolute days between the two dates
}

// Result partitions a run's bank transactions. Every input transaction
// appears in exactly one of the two sequences, in original input order.
type Result struct {
	Matched []Match
	Missing []sources.Transaction
}

// MatchedCount returns the number of reconciled bank transactions.
func (r *Result) MatchedCount() int { return len(r.Matched) }

// MissingCount returns the number of bank transactions absent from the ledger.
func (r *Result) MissingCount() int { return len(r.Missing) }

// Total returns the number of bank transactions processed.
func (r *Result) Total() int { return len(r.Matched) + len(r.Missing) }
