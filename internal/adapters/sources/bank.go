package sources

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankRecord is a raw transaction from a bank feed. Immutable once built;
// optional fields are left empty (or invalid, for Amount) when absent.
type BankRecord struct {
	ID           string              `json:"id"`
	AccountID    string              `json:"account_id"`
	Date         time.Time           `json:"date"`
	Amount       decimal.NullDecimal `json:"amount"`
	Description  string              `json:"description"`
	MerchantName string              `json:"merchant_name,omitempty"`
	Memo         string              `json:"memo,omitempty"`
	CategoryID   string              `json:"category_id,omitempty"`
}

// AdaptBank converts a bank record into the normalized view.
// The display name prefers the merchant name, falling back to the raw
// description. The context string concatenates description, memo, and
// merchant name, omitting absent segments.
func AdaptBank(r BankRecord) (Transaction, error) {
	if err := validateBank(r); err != nil {
		return Transaction{}, err
	}

	display := r.MerchantName
	if display == "" {
		display = r.Description
	}

	return Transaction{
		ID:          r.ID,
		AccountID:   r.AccountID,
		Date:        DateOnly(r.Date),
		Amount:      r.Amount.Decimal,
		DisplayName: display,
		CategoryID:  r.CategoryID,
		Origin:      OriginBank,
		Context:     joinContext(r.Description, r.Memo, r.MerchantName),
	}, nil
}

// AdaptBankAll adapts a batch, preserving order. The first malformed record
// fails the whole batch; no partial result is returned.
func AdaptBankAll(records []BankRecord) ([]Transaction, error) {
	txns := make([]Transaction, 0, len(records))
	for _, r := range records {
		tx, err := AdaptBank(r)
		if err != nil {
			return nil, err
		}
		txns = append(txns, tx)
	}
	return txns, nil
}

func validateBank(r BankRecord) error {
	switch {
	case r.ID == "":
		return &ValidationError{Origin: OriginBank, Field: "id", Reason: "is required"}
	case r.AccountID == "":
		return &ValidationError{Origin: OriginBank, ID: r.ID, Field: "account_id", Reason: "is required"}
	case r.Date.IsZero():
		return &ValidationError{Origin: OriginBank, ID: r.ID, Field: "date", Reason: "is required"}
	case !r.Amount.Valid:
		return &ValidationError{Origin: OriginBank, ID: r.ID, Field: "amount", Reason: "is required"}
	}
	return nil
}
