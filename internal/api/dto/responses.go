package dto

import "time"

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// RunResponse represents a reconciliation run in API responses.
type RunResponse struct {
	ID            int64  `json:"id"`
	JobID         string `json:"job_id"`
	StartedAt     string `json:"started_at"`
	CompletedAt   string `json:"completed_at,omitempty"`
	ToleranceDays int    `json:"tolerance_days"`
	BankCount     int    `json:"bank_count"`
	LedgerCount   int    `json:"ledger_count"`
	MatchedCount  int    `json:"matched_count"`
	MissingCount  int    `json:"missing_count"`
	Status        string `json:"status"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// RunListResponse is returned when listing runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// OutcomeResponse represents a single bank transaction's classification.
type OutcomeResponse struct {
	BankTransactionID   string `json:"bank_transaction_id"`
	AccountID           string `json:"account_id"`
	Date                string `json:"date"`
	Amount              string `json:"amount"`
	DisplayName         string `json:"display_name"`
	Status              string `json:"status"`
	LedgerTransactionID string `json:"ledger_transaction_id,omitempty"`
	DateDiffDays        int    `json:"date_diff_days"`
	CategoryID          string `json:"category_id,omitempty"`
	CategoryName        string `json:"category_name,omitempty"`
}

// RunDetailResponse is a run together with its per-transaction outcomes.
type RunDetailResponse struct {
	Run      RunResponse       `json:"run"`
	Outcomes []OutcomeResponse `json:"outcomes"`
}

// StatsResponse aggregates reconciliation history.
type StatsResponse struct {
	TotalRuns             int            `json:"total_runs"`
	TotalBankTransactions int            `json:"total_bank_transactions"`
	TotalMatched          int            `json:"total_matched"`
	TotalMissing          int            `json:"total_missing"`
	MatchRate             float64        `json:"match_rate"`
	CategoryBreakdown     map[string]int `json:"category_breakdown"`
}

// StartReconcileResponse is returned when a reconciliation is started.
type StartReconcileResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobProgressResponse represents coarse job progress.
type JobProgressResponse struct {
	CurrentPhase string `json:"current_phase"`
	LastUpdate   string `json:"last_update"`
}

// JobResultResponse represents a finished job's summary.
type JobResultResponse struct {
	RunID        int64  `json:"run_id"`
	MatchedCount int    `json:"matched_count"`
	MissingCount int    `json:"missing_count"`
	Duration     string `json:"duration"`
}

// JobResponse represents a reconciliation job's status.
type JobResponse struct {
	JobID       string              `json:"job_id"`
	Status      string              `json:"status"`
	DryRun      bool                `json:"dry_run"`
	StartedAt   string              `json:"started_at"`
	CompletedAt *string             `json:"completed_at,omitempty"`
	Progress    JobProgressResponse `json:"progress"`
	Result      *JobResultResponse  `json:"result,omitempty"`
	Error       *string             `json:"error,omitempty"`
}

// ActiveJobsResponse lists active jobs.
type ActiveJobsResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Count int           `json:"count"`
}

// AllJobsResponse lists all jobs (including completed).
type AllJobsResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Count int           `json:"count"`
}

// MessageResponse is a generic message response.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
