package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/finbridge/reconcile-backend/internal/domain/categorizer"
)

// Storage provides SQLite database access for reconciliation history and the
// category-mapping catalog. It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// StartRun records the start of a run and returns its ID
func (s *Storage) StartRun(run *ReconciliationRun) (int64, error) {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = RunStatusRunning
	}

	result, err := s.db.Exec(`
	INSERT INTO reconciliation_runs
	(job_id, started_at, tolerance_days, bank_count, ledger_count, status)
	VALUES (?, ?, ?, ?, ?, ?)`,
		run.JobID, run.StartedAt, run.ToleranceDays, run.BankCount, run.LedgerCount, run.Status,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	run.ID = id
	return id, nil
}

// CompleteRun records a finished run with its final counts
func (s *Storage) CompleteRun(runID int64, matched, missing int) error {
	_, err := s.db.Exec(`
	UPDATE reconciliation_runs
	SET completed_at = ?, matched_count = ?, missing_count = ?, status = ?
	WHERE id = ?`,
		time.Now().UTC(), matched, missing, RunStatusCompleted, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run %d: %w", runID, err)
	}
	return nil
}

// FailRun marks a run as failed with the given message
func (s *Storage) FailRun(runID int64, errorMessage string) error {
	_, err := s.db.Exec(`
	UPDATE reconciliation_runs
	SET completed_at = ?, status = ?, error_message = ?
	WHERE id = ?`,
		time.Now().UTC(), RunStatusFailed, errorMessage, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark run %d failed: %w", runID, err)
	}
	return nil
}

// GetRun retrieves a run by ID
func (s *Storage) GetRun(runID int64) (*ReconciliationRun, error) {
	row := s.db.QueryRow(runSelect+" WHERE id = ?", runID)
	return scanRun(row)
}

// GetRunByJobID retrieves a run by its job identifier
func (s *Storage) GetRunByJobID(jobID string) (*ReconciliationRun, error) {
	row := s.db.QueryRow(runSelect+" WHERE job_id = ?", jobID)
	return scanRun(row)
}

const runSelect = `
	SELECT id, job_id, started_at, completed_at, tolerance_days,
	       bank_count, ledger_count, matched_count, missing_count,
	       status, error_message
	FROM reconciliation_runs`

func scanRun(row *sql.Row) (*ReconciliationRun, error) {
	var run ReconciliationRun
	var completedAt sql.NullTime
	err := row.Scan(
		&run.ID, &run.JobID, &run.StartedAt, &completedAt, &run.ToleranceDays,
		&run.BankCount, &run.LedgerCount, &run.MatchedCount, &run.MissingCount,
		&run.Status, &run.ErrorMessage,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return &run, nil
}

// ListRuns returns recent runs, newest first
func (s *Storage) ListRuns(limit int) ([]ReconciliationRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(runSelect+" ORDER BY started_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []ReconciliationRun
	for rows.Next() {
		var run ReconciliationRun
		var completedAt sql.NullTime
		if err := rows.Scan(
			&run.ID, &run.JobID, &run.StartedAt, &completedAt, &run.ToleranceDays,
			&run.BankCount, &run.LedgerCount, &run.MatchedCount, &run.MissingCount,
			&run.Status, &run.ErrorMessage,
		); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			t := completedAt.Time
			run.CompletedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SaveOutcomes persists the classified bank transactions for a run
func (s *Storage) SaveOutcomes(runID int64, outcomes []TransactionOutcome) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
	INSERT INTO transaction_outcomes
	(run_id, bank_transaction_id, account_id, date, amount, display_name,
	 context, status, ledger_transaction_id, date_diff_days, category_id, category_name)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, o := range outcomes {
		if _, err := stmt.Exec(
			runID, o.BankTransactionID, o.AccountID, o.Date, o.Amount, o.DisplayName,
			o.Context, o.Status, o.LedgerTransactionID, o.DateDiffDays, o.CategoryID, o.CategoryName,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to save outcome for %s: %w", o.BankTransactionID, err)
		}
	}

	return tx.Commit()
}

// ListOutcomes returns a run's outcomes in insertion order
func (s *Storage) ListOutcomes(runID int64) ([]TransactionOutcome, error) {
	rows, err := s.db.Query(`
	SELECT id, run_id, bank_transaction_id, account_id, date, amount, display_name,
	       context, status, ledger_transaction_id, date_diff_days, category_id, category_name
	FROM transaction_outcomes
	WHERE run_id = ?
	ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []TransactionOutcome
	for rows.Next() {
		var o TransactionOutcome
		if err := rows.Scan(
			&o.ID, &o.RunID, &o.BankTransactionID, &o.AccountID, &o.Date, &o.Amount,
			&o.DisplayName, &o.Context, &o.Status, &o.LedgerTransactionID,
			&o.DateDiffDays, &o.CategoryID, &o.CategoryName,
		); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// GetStats returns aggregate statistics across all runs
func (s *Storage) GetStats() (*Stats, error) {
	stats := &Stats{CategoryBreakdown: make(map[string]int)}

	err := s.db.QueryRow(`
	SELECT COUNT(*),
	       COALESCE(SUM(bank_count), 0),
	       COALESCE(SUM(matched_count), 0),
	       COALESCE(SUM(missing_count), 0)
	FROM reconciliation_runs
	WHERE status = ?`, RunStatusCompleted).Scan(
		&stats.TotalRuns, &stats.TotalBankTransactions,
		&stats.TotalMatched, &stats.TotalMissing,
	)
	if err != nil {
		return nil, err
	}

	if stats.TotalBankTransactions > 0 {
		stats.MatchRate = float64(stats.TotalMatched) / float64(stats.TotalBankTransactions)
	}

	rows, err := s.db.Query(`
	SELECT category_name, COUNT(*)
	FROM transaction_outcomes
	WHERE status = ? AND category_name != ''
	GROUP BY category_name`, OutcomeMissing)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, err
		}
		stats.CategoryBreakdown[name] = count
	}
	return stats, rows.Err()
}

// LoadMappings returns the catalog in its stored order
func (s *Storage) LoadMappings() ([]categorizer.Mapping, error) {
	rows, err := s.db.Query(`
	SELECT patterns_json, category_id, category_name, confidence, occurrences
	FROM category_mappings
	ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []categorizer.Mapping
	for rows.Next() {
		var m categorizer.Mapping
		var patternsJSON string
		if err := rows.Scan(&patternsJSON, &m.CategoryID, &m.CategoryName, &m.Confidence, &m.Occurrences); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(patternsJSON), &m.Patterns); err != nil {
			return nil, fmt.Errorf("failed to decode patterns for %s: %w", m.CategoryID, err)
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// ReplaceMappings swaps the entire catalog atomically
func (s *Storage) ReplaceMappings(mappings []categorizer.Mapping) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM category_mappings"); err != nil {
		_ = tx.Rollback()
		return err
	}

	stmt, err := tx.Prepare(`
	INSERT INTO category_mappings
	(position, patterns_json, category_id, category_name, confidence, occurrences)
	VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i, m := range mappings {
		patternsJSON, err := json.Marshal(m.Patterns)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := stmt.Exec(i, string(patternsJSON), m.CategoryID, m.CategoryName, m.Confidence, m.Occurrences); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to save mapping %s: %w", m.CategoryID, err)
		}
	}

	return tx.Commit()
}
