// Package bank reads imported bank-statement transactions and writes back
// classification markers. The rows themselves are owned by the import
// subsystem.
package bank

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/veldbooks/ledger-engine/pkg/db"
	"github.com/veldbooks/ledger-engine/pkg/ledger"
)

const dateLayout = "2006-01-02"

// Repository provides access to the bank_transactions table.
type Repository struct {
	conn *db.Connection
}

// NewRepository creates a bank transaction repository.
func NewRepository(conn *db.Connection) *Repository {
	return &Repository{conn: conn}
}

// Unclassified returns a company's transactions that have no posted journal
// line and no classification marker, in transaction-date order.
func (r *Repository) Unclassified(companyID int64) ([]ledger.BankTransaction, error) {
	rows, err := r.conn.Query(`
		SELECT t.id, t.company_id, t.transaction_date, t.details,
		       t.debit_amount, t.credit_amount, t.balance, t.source_file,
		       t.fiscal_period_id, t.account_code, t.account_name
		FROM bank_transactions t
		WHERE t.company_id = ?
		  AND t.account_code IS NULL
		  AND NOT EXISTS (
			SELECT 1 FROM journal_entry_lines l
			WHERE l.source_transaction_id = t.id
		  )
		ORDER BY t.transaction_date, t.id`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query unclassified transactions: %w", err)
	}
	defer rows.Close()

	var txns []ledger.BankTransaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bank transaction rows: %w", err)
	}
	return txns, nil
}

// MarkClassified writes the denormalized classification marker back onto a
// bank transaction row.
func (r *Repository) MarkClassified(tx *sql.Tx, txnID int64, accountCode, accountName string) error {
	_, err := tx.Exec(`
		UPDATE bank_transactions
		SET account_code = ?, account_name = ?
		WHERE id = ?`,
		accountCode, accountName, txnID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark transaction %d classified: %w", txnID, err)
	}
	return nil
}

// Insert stores an imported transaction and returns its id. Used by the
// import collaborator and by tests.
func (r *Repository) Insert(txn *ledger.BankTransaction) (int64, error) {
	res, err := r.conn.Exec(`
		INSERT INTO bank_transactions
			(company_id, transaction_date, details, debit_amount, credit_amount,
			 balance, source_file, fiscal_period_id, account_code, account_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.CompanyID,
		txn.TransactionDate.Format(dateLayout),
		txn.Details,
		decimalPtrToNull(txn.DebitAmount),
		decimalPtrToNull(txn.CreditAmount),
		txn.Balance.String(),
		txn.SourceFile,
		txn.FiscalPeriodID,
		txn.AccountCode,
		txn.AccountName,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert bank transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read bank transaction id: %w", err)
	}
	return id, nil
}

func scanTransaction(rows *sql.Rows) (ledger.BankTransaction, error) {
	var txn ledger.BankTransaction
	var date, balance string
	var debit, credit, code, name sql.NullString
	if err := rows.Scan(
		&txn.ID, &txn.CompanyID, &date, &txn.Details,
		&debit, &credit, &balance, &txn.SourceFile,
		&txn.FiscalPeriodID, &code, &name,
	); err != nil {
		return ledger.BankTransaction{}, fmt.Errorf("failed to scan bank transaction: %w", err)
	}

	var err error
	if txn.TransactionDate, err = time.Parse(dateLayout, date); err != nil {
		return ledger.BankTransaction{}, fmt.Errorf("invalid transaction_date %q: %w", date, err)
	}
	if txn.Balance, err = decimal.NewFromString(balance); err != nil {
		return ledger.BankTransaction{}, fmt.Errorf("invalid balance %q: %w", balance, err)
	}
	if txn.DebitAmount, err = nullToDecimalPtr(debit); err != nil {
		return ledger.BankTransaction{}, fmt.Errorf("invalid debit_amount: %w", err)
	}
	if txn.CreditAmount, err = nullToDecimalPtr(credit); err != nil {
		return ledger.BankTransaction{}, fmt.Errorf("invalid credit_amount: %w", err)
	}
	if code.Valid {
		txn.AccountCode = &code.String
	}
	if name.Valid {
		txn.AccountName = &name.String
	}
	return txn, nil
}

func decimalPtrToNull(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullToDecimalPtr(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
