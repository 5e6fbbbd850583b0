package sources

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerRecord is a transaction already recorded in the budgeting ledger.
// Ledger entries carry no merchant or memo fields beyond the payee line.
type LedgerRecord struct {
	ID          string              `json:"id"`
	AccountID   string              `json:"account_id"`
	Date        time.Time           `json:"date"`
	Amount      decimal.NullDecimal `json:"amount"`
	Description string              `json:"description"`
	CategoryID  string              `json:"category_id,omitempty"`
}

// AdaptLedger converts a ledger record into the normalized view.
func AdaptLedger(r LedgerRecord) (Transaction, error) {
	if err := validateLedger(r); err != nil {
		return Transaction{}, err
	}

	return Transaction{
		ID:          r.ID,
		AccountID:   r.AccountID,
		Date:        DateOnly(r.Date),
		Amount:      r.Amount.Decimal,
		DisplayName: r.Description,
		CategoryID:  r.CategoryID,
		Origin:      OriginLedger,
		Context:     joinContext(r.Description),
	}, nil
}

// AdaptLedgerAll adapts a batch, preserving order. The first malformed
// record fails the whole batch.
func AdaptLedgerAll(records []LedgerRecord) ([]Transaction, error) {
	txns := make([]Transaction, 0, len(records))
	for _, r := range records {
		tx, err := AdaptLedger(r)
		if err != nil {
			return nil, err
		}
		txns = append(txns, tx)
	}
	return txns, nil
}

func validateLedger(r LedgerRecord) error {
	switch {
	case r.ID == "":
		return &ValidationError{Origin: OriginLedger, Field: "id", Reason: "is required"}
	case r.AccountID == "":
		return &ValidationError{Origin: OriginLedger, ID: r.ID, Field: "account_id", Reason: "is required"}
	case r.Date.IsZero():
		return &ValidationError{Origin: OriginLedger, ID: r.ID, Field: "date", Reason: "is required"}
	case !r.Amount.Valid:
		return &ValidationError{Origin: OriginLedger, ID: r.ID, Field: "amount", Reason: "is required"}
	}
	return nil
}
