package storage

import (
	"github.com/finbridge/reconcile-backend/internal/domain/categorizer"
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, etc.)
// and makes testing with mocks straightforward.
type Repository interface {
	RunRepository
	MappingRepository
	Close() error
}

// RunRepository tracks reconciliation runs and their per-transaction outcomes
type RunRepository interface {
	// StartRun records the start of a run and returns its ID
	StartRun(run *ReconciliationRun) (int64, error)

	// CompleteRun records a finished run with its final counts
	CompleteRun(runID int64, matched, missing int) error

	// FailRun marks a run as failed with the given message
	FailRun(runID int64, errorMessage string) error

	// GetRun retrieves a run by ID
	GetRun(runID int64) (*ReconciliationRun, error)

	// GetRunByJobID retrieves a run by its job identifier
	GetRunByJobID(jobID string) (*ReconciliationRun, error)

	// ListRuns returns recent runs, newest first
	ListRuns(limit int) ([]ReconciliationRun, error)

	// SaveOutcomes persists the classified bank transactions for a run
	SaveOutcomes(runID int64, outcomes []TransactionOutcome) error

	// ListOutcomes returns a run's outcomes in insertion order
	ListOutcomes(runID int64) ([]TransactionOutcome, error)

	// GetStats returns aggregate statistics across all runs
	GetStats() (*Stats, error)
}

// MappingRepository stores the learned category-mapping catalog. The catalog
// is read as an immutable snapshot per reconciliation run; ReplaceMappings
// exists for seeding and out-of-band catalog refreshes, never mid-run.
type MappingRepository interface {
	// LoadMappings returns the catalog in its stored order
	LoadMappings() ([]categorizer.Mapping, error)

	// ReplaceMappings swaps the entire catalog atomically
	ReplaceMappings(mappings []categorizer.Mapping) error
}
