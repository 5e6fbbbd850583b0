// Package sources normalizes heterogeneous transaction records into the
// single view the reconciliation and categorization engines operate on.
//
// Two record shapes exist today: BankRecord (bank feed) and LedgerRecord
// (budgeting ledger). Each is adapted through a total mapping function that
// fails fast on malformed input, so the engines downstream never see an
// incomplete transaction.
package sources

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Origin tags which side of the reconciliation a transaction came from.
type Origin string

const (
	OriginBank   Origin = "bank"
	OriginLedger Origin = "ledger"
)

// Transaction is the normalized view of a transaction from any source.
// ID plus Origin is unique within a reconciliation run.
type Transaction struct {
	ID          string
	AccountID   string
	Date        time.Time // date only, midnight UTC
	Amount      decimal.Decimal
	DisplayName string
	CategoryID  string // empty when the source carries no category
	Origin      Origin
	Context     string // concatenated text used for category inference and audit
}

// ValidationError reports a malformed source record. It names the field so
// callers can surface exactly what was missing or invalid.
type ValidationError struct {
	Origin Origin
	ID     string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("invalid %s record %s: field %q %s", e.Origin, e.ID, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s record: field %q %s", e.Origin, e.Field, e.Reason)
}

// DateOnly strips the time-of-day component, normalizing to midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// joinContext builds the reconciliation context string from the given
// segments, skipping absent ones so no empty placeholders are emitted.
func joinContext(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " | ")
}
