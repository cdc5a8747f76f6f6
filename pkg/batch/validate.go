package batch

import (
	"errors"

	"github.com/veldbooks/ledger-engine/pkg/ledger"
)

// ValidateTransactions is the pre-flight structural check for a batch. It
// runs before anything touches the database so malformed input fails fast;
// all problems are reported together rather than stopping at the first.
func ValidateTransactions(txns []ledger.BankTransaction) error {
	var errs []error
	for i := range txns {
		if err := ledger.ValidateTransaction(&txns[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
