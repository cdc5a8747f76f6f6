package ledger

import (
	"errors"
	"fmt"
)

// Validation errors returned by ValidateTransaction.
var (
	ErrMissingDetails = errors.New("transaction details are empty")
	ErrMissingDate    = errors.New("transaction date is not set")
	ErrBothAmounts    = errors.New("transaction has both debit and credit amounts")
	ErrNegativeAmount = errors.New("transaction amount is not positive")
)

// ValidateTransaction checks a bank transaction for structural completeness
// before posting is attempted. Zero-value rows (neither amount set) pass
// validation; the classifier rejects them later as unclassifiable.
func ValidateTransaction(t *BankTransaction) error {
	if t.ID == 0 {
		return fmt.Errorf("transaction has no id")
	}
	if t.Details == "" {
		return fmt.Errorf("transaction %d: %w", t.ID, ErrMissingDetails)
	}
	if t.TransactionDate.IsZero() {
		return fmt.Errorf("transaction %d: %w", t.ID, ErrMissingDate)
	}
	if t.DebitAmount != nil && t.CreditAmount != nil {
		return fmt.Errorf("transaction %d: %w", t.ID, ErrBothAmounts)
	}
	if t.DebitAmount != nil && !t.DebitAmount.IsPositive() {
		return fmt.Errorf("transaction %d: debit %s: %w", t.ID, t.DebitAmount, ErrNegativeAmount)
	}
	if t.CreditAmount != nil && !t.CreditAmount.IsPositive() {
		return fmt.Errorf("transaction %d: credit %s: %w", t.ID, t.CreditAmount, ErrNegativeAmount)
	}
	return nil
}
