// Package matcher reconciles bank transactions against a budgeting ledger.
//
// Ledger transactions are indexed once per run by (account, amount), then
// each bank transaction is classified by scanning only its own bucket:
//   - Candidates must share the account and exact amount
//   - The candidate date must be within ToleranceDays (boundary inclusive)
//   - Each ledger transaction satisfies at most one bank transaction
//
// Example usage:
//
//	engine := matcher.NewEngine(matcher.DefaultConfig())
//	result := engine.Reconcile(bankTxns, ledgerTxns)
//	for _, missing := range result.Missing {
//		// Not in the ledger yet
//	}
package matcher

import (
	"time"

	"github.com/finbridge/reconcile-backend/internal/adapters/sources"
)

// Engine classifies bank transactions as matched or missing from the ledger.
type Engine struct {
	config Config
}

// NewEngine creates a new engine with the given config
func NewEngine(config Config) *Engine {
	if config.ToleranceDays <= 0 {
		config.ToleranceDays = DefaultConfig().ToleranceDays
	}
	return &Engine{
		config: config,
	}
}

// Reconcile partitions bank transactions into matched and missing. The
// output order within each sequence follows the input order of bank; running
// twice on identical inputs yields identical results. Neither input slice is
// mutated.
func (e *Engine) Reconcile(bank, ledger []sources.Transaction) Result {
	index := BuildIndex(ledger)

	result := Result{
		Matched: make([]Match, 0, len(bank)),
		Missing: make([]sources.Transaction, 0),
	}

	for _, b := range bank {
		candidate, diff, ok := e.selectCandidate(b, index.CandidatesFor(b))
		if !ok {
			result.Missing = append(result.Missing, b)
			continue
		}

		// One-to-one consumption: the ledger entry is no longer available
		// to later bank transactions in the same bucket.
		index.Consume(b, candidate.ID)

		result.Matched = append(result.Matched, Match{
			Bank:         b,
			Ledger:       candidate,
			DateDiffDays: diff,
		})
	}

	return result
}

// selectCandidate picks the eligible candidate whose date is closest to the
// bank transaction's. Candidates arrive date-sorted, so on equal distance the
// earliest ledger entry wins, keeping results reproducible.
func (e *Engine) selectCandidate(b sources.Transaction, candidates []sources.Transaction) (sources.Transaction, int, bool) {
	var best sources.Transaction
	bestDiff := -1

	for _, c := range candidates {
		diff := daysApart(b.Date, c.Date)
		if diff > e.config.ToleranceDays {
			continue
		}
		if bestDiff < 0 || diff < bestDiff {
			best = c
			bestDiff = diff
		}
	}

	if bestDiff < 0 {
		return sources.Transaction{}, 0, false
	}
	return best, bestDiff, true
}

// daysApart returns the absolute whole-day distance between two date-only
// values (both normalized to midnight UTC by the adapters).
func daysApart(a, b time.Time) int {
	diff := int(a.Sub(b).Hours() / 24)
	if diff < 0 {
		diff = -diff
	}
	return diff
}
