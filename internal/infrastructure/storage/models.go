package storage

import (
	"time"
)

// Outcome status values for a bank transaction within a run.
const (
	OutcomeMatched = "matched"
	OutcomeMissing = "missing"
)

// Run status values.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ReconciliationRun records one reconciliation pass over a set of bank
// transactions.
type ReconciliationRun struct {
	ID            int64      `json:"id"`
	JobID         string     `json:"job_id"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	ToleranceDays int        `json:"tolerance_days"`
	BankCount     int        `json:"bank_count"`
	LedgerCount   int        `json:"ledger_count"`
	MatchedCount  int        `json:"matched_count"`
	MissingCount  int        `json:"missing_count"`
	Status        string     `json:"status"`
	ErrorMessage  string     `json:"error_message,omitempty"`
}

// TransactionOutcome records how a single bank transaction was classified.
// Amount is stored as its canonical decimal string, never a float.
type TransactionOutcome struct {
	ID                  int64     `json:"id"`
	RunID               int64     `json:"run_id"`
	BankTransactionID   string    `json:"bank_transaction_id"`
	AccountID           string    `json:"account_id"`
	Date                time.Time `json:"date"`
	Amount              string    `json:"amount"`
	DisplayName         string    `json:"display_name"`
	Context             string    `json:"context,omitempty"`
	Status              string    `json:"status"`
	LedgerTransactionID string    `json:"ledger_transaction_id,omitempty"`
	DateDiffDays        int       `json:"date_diff_days"`
	CategoryID          string    `json:"category_id,omitempty"`
	CategoryName        string    `json:"category_name,omitempty"`
}

// Stats aggregates reconciliation history.
type Stats struct {
	TotalRuns             int            `json:"total_runs"`
	TotalBankTransactions int            `json:"total_bank_transactions"`
	TotalMatched          int            `json:"total_matched"`
	TotalMissing          int            `json:"total_missing"`
	MatchRate             float64        `json:"match_rate"`
	CategoryBreakdown     map[string]int `json:"category_breakdown"`
}
