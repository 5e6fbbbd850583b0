// Package filesource loads bank records, ledger records, and category
// mappings from local JSON files. It backs the one-shot CLI, which works
// from exported snapshots instead of the live ledger API.
package filesource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/finbridge/reconcile-backend/internal/adapters/sources"
	"github.com/finbridge/reconcile-backend/internal/domain/categorizer"
)

// Source reads reconciliation inputs from JSON files. Zero-value paths are
// allowed; the corresponding fetch returns an empty slice.
type Source struct {
	BankPath    string
	LedgerPath  string
	MappingPath string
}

// FetchBankRecords loads and filters bank records from BankPath.
func (s *Source) FetchBankRecords(_ context.Context, accountIDs []string, from, to time.Time) ([]sources.BankRecord, error) {
	var records []sources.BankRecord
	if err := readJSONFile(s.BankPath, &records); err != nil {
		return nil, fmt.Errorf("failed to load bank records: %w", err)
	}

	filtered := records[:0]
	for _, r := range records {
		if !matchesAccount(r.AccountID, accountIDs) || !inWindow(r.Date, from, to) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered, nil
}

// FetchLedgerRecords loads and filters ledger records from LedgerPath.
func (s *Source) FetchLedgerRecords(_ context.Context, accountIDs []string, from, to time.Time) ([]sources.LedgerRecord, error) {
	var records []sources.LedgerRecord
	if err := readJSONFile(s.LedgerPath, &records); err != nil {
		return nil, fmt.Errorf("failed to load ledger records: %w", err)
	}

	filtered := records[:0]
	for _, r := range records {
		if !matchesAccount(r.AccountID, accountIDs) || !inWindow(r.Date, from, to) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered, nil
}

// FetchCategoryMappings loads the category catalog from MappingPath.
// The file's order is preserved; it decides ranking ties.
func (s *Source) FetchCategoryMappings(_ context.Context) ([]categorizer.Mapping, error) {
	var mappings []categorizer.Mapping
	if err := readJSONFile(s.MappingPath, &mappings); err != nil {
		return nil, fmt.Errorf("failed to load category mappings: %w", err)
	}
	return mappings, nil
}

func readJSONFile(path string, v any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func matchesAccount(accountID string, accountIDs []string) bool {
	if len(accountIDs) == 0 {
		return true
	}
	for _, id := range accountIDs {
		if id == accountID {
			return true
		}
	}
	return false
}

func inWindow(date, from, to time.Time) bool {
	if !from.IsZero() && date.Before(from) {
		return false
	}
	// The to bound includes the whole day, timestamps and all.
	if !to.IsZero() && !date.Before(to.AddDate(0, 0, 1)) {
		return false
	}
	return true
}
