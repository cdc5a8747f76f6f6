package bank

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldbooks/ledger-engine/pkg/db"
	"github.com/veldbooks/ledger-engine/pkg/ledger"
)

const testCompany int64 = 7

func newTestRepository(t *testing.T) (*Repository, *db.Connection) {
	t.Helper()
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewRepository(conn), conn
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestInsertAndReadBack(t *testing.T) {
	repo, _ := newTestRepository(t)

	txn := &ledger.BankTransaction{
		CompanyID:       testCompany,
		TransactionDate: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Details:         "INSURANCE PREMIUM DOTSURE",
		DebitAmount:     dec("450.00"),
		Balance:         decimal.RequireFromString("12345.67"),
		SourceFile:      "statement_2025-03.csv",
	}
	id, err := repo.Insert(txn)
	require.NoError(t, err)
	require.NotZero(t, id)

	loaded, err := repo.Unclassified(testCompany)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "INSURANCE PREMIUM DOTSURE", got.Details)
	require.NotNil(t, got.DebitAmount)
	assert.True(t, got.DebitAmount.Equal(decimal.RequireFromString("450.00")))
	assert.Nil(t, got.CreditAmount)
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("12345.67")))
	assert.Equal(t, txn.TransactionDate, got.TransactionDate)
}

func TestUnclassifiedExcludesMarkedAndPosted(t *testing.T) {
	repo, conn := newTestRepository(t)

	insert := func(details string) int64 {
		id, err := repo.Insert(&ledger.BankTransaction{
			CompanyID:       testCompany,
			TransactionDate: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
			Details:         details,
			DebitAmount:     dec("10.00"),
			Balance:         decimal.Zero,
		})
		require.NoError(t, err)
		return id
	}

	marked := insert("MARKED")
	posted := insert("POSTED")
	open := insert("OPEN")

	// Mark one classified.
	err := conn.Transaction(func(tx *sql.Tx) error {
		return repo.MarkClassified(tx, marked, "9800-001", "Bank Charges")
	})
	require.NoError(t, err)

	// Give another a posted journal line.
	res, err := conn.Exec(`
		INSERT INTO accounts (company_id, account_code, account_name, category)
		VALUES (?, '9800-001', 'Bank Charges', 'Expense')`, testCompany)
	require.NoError(t, err)
	accountID, err := res.LastInsertId()
	require.NoError(t, err)
	res, err = conn.Exec(`
		INSERT INTO journal_entries (reference, entry_date, description, company_id, created_by)
		VALUES ('JE-TEST', '2025-03-14', 'POSTED', ?, 'test')`, testCompany)
	require.NoError(t, err)
	entryID, err := res.LastInsertId()
	require.NoError(t, err)
	_, err = conn.Exec(`
		INSERT INTO journal_entry_lines (journal_entry_id, account_id, debit_amount, source_transaction_id)
		VALUES (?, ?, '10.00', ?)`, entryID, accountID, posted)
	require.NoError(t, err)

	remaining, err := repo.Unclassified(testCompany)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, open, remaining[0].ID)
}

func TestUnclassifiedOrdersByDate(t *testing.T) {
	repo, _ := newTestRepository(t)

	later, err := repo.Insert(&ledger.BankTransaction{
		CompanyID:       testCompany,
		TransactionDate: time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC),
		Details:         "LATER",
		DebitAmount:     dec("1"),
		Balance:         decimal.Zero,
	})
	require.NoError(t, err)
	earlier, err := repo.Insert(&ledger.BankTransaction{
		CompanyID:       testCompany,
		TransactionDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Details:         "EARLIER",
		DebitAmount:     dec("1"),
		Balance:         decimal.Zero,
	})
	require.NoError(t, err)

	loaded, err := repo.Unclassified(testCompany)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, earlier, loaded[0].ID)
	assert.Equal(t, later, loaded[1].ID)
}
