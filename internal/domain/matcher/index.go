package matcher

import (
	"sort"

	"github.com/finbridge/reconcile-backend/internal/adapters/sources"
)

// candidateKey buckets ledger transactions. Transactions can only reconcile
// within the same account at the same exact amount; date is used purely to
// disambiguate inside a bucket.
type candidateKey struct {
	accountID string
	amount    string // canonical decimal string
}

func keyFor(t sources.Transaction) candidateKey {
	return candidateKey{accountID: t.AccountID, amount: t.Amount.String()}
}

// Index is a per-run lookup structure over ledger transactions. Buckets are
// keyed by (account, amount) and kept sorted by date, so candidate retrieval
// touches only the handful of entries sharing an exact amount instead of the
// whole ledger. Build once, query per bank transaction, discard after the run.
type Index struct {
	buckets map[candidateKey][]sources.Transaction
	size    int
}

// BuildIndex groups ledger transactions by candidate key with each bucket
// sorted by date ascending. Inputs are not mutated.
func BuildIndex(ledger []sources.Transaction) *Index {
	buckets := make(map[candidateKey][]sources.Transaction)
	for _, t := range ledger {
		k := keyFor(t)
		buckets[k] = append(buckets[k], t)
	}
	for k := range buckets {
		b := buckets[k]
		sort.SliceStable(b, func(i, j int) bool {
			return b[i].Date.Before(b[j].Date)
		})
	}
	return &Index{buckets: buckets, size: len(ledger)}
}

// CandidatesFor returns the date-sorted ledger transactions sharing the bank
// transaction's account and amount, or nil when the bucket is empty. The
// returned slice is owned by the index; callers must not mutate it.
func (ix *Index) CandidatesFor(bank sources.Transaction) []sources.Transaction {
	return ix.buckets[keyFor(bank)]
}

// Consume removes a ledger transaction from its bucket so it cannot satisfy
// another bank transaction. Returns false if the entry was already consumed.
func (ix *Index) Consume(bank sources.Transaction, ledgerID string) bool {
	k := keyFor(bank)
	bucket := ix.buckets[k]
	for i, t := range bucket {
		if t.ID == ledgerID {
			ix.buckets[k] = append(bucket[:i:i], bucket[i+1:]...)
			ix.size--
			return true
		}
	}
	return false
}

// Len returns the number of ledger transactions still available.
func (ix *Index) Len() int { return ix.size }
