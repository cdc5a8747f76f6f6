package batch

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldbooks/ledger-engine/pkg/accounts"
	"github.com/veldbooks/ledger-engine/pkg/bank"
	"github.com/veldbooks/ledger-engine/pkg/classifier"
	"github.com/veldbooks/ledger-engine/pkg/db"
	"github.com/veldbooks/ledger-engine/pkg/journal"
	"github.com/veldbooks/ledger-engine/pkg/ledger"
	"github.com/veldbooks/ledger-engine/pkg/rules"
)

const testCompany int64 = 7

type batchFixture struct {
	conn      *db.Connection
	bankRepo  *bank.Repository
	rules     *rules.Store
	processor *Processor
}

func newBatchFixture(t *testing.T) *batchFixture {
	t.Helper()
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	directory := accounts.NewDirectory(conn, accounts.NewCache())
	_, err = directory.GetOrCreate(testCompany, "1000-001", "Bank Account", "")
	require.NoError(t, err)

	bankRepo := bank.NewRepository(conn)
	ruleStore := rules.NewStore(conn)
	poster := journal.NewPoster(conn, directory, db.NewFiscalPeriods(conn),
		bankRepo, "1000-001", "Bank Account", "test-batch")
	processor := NewProcessor(ruleStore, classifier.New(directory), poster)

	return &batchFixture{conn: conn, bankRepo: bankRepo, rules: ruleStore, processor: processor}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (f *batchFixture) insertTxn(t *testing.T, details string, debit, credit *decimal.Decimal) ledger.BankTransaction {
	t.Helper()
	txn := ledger.BankTransaction{
		CompanyID:       testCompany,
		TransactionDate: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Details:         details,
		DebitAmount:     debit,
		CreditAmount:    credit,
		Balance:         decimal.Zero,
	}
	id, err := f.bankRepo.Insert(&txn)
	require.NoError(t, err)
	txn.ID = id
	return txn
}

func TestProcessBatchMixedOutcomes(t *testing.T) {
	f := newBatchFixture(t)

	_, err := f.rules.Create(ledger.ClassificationRule{
		CompanyID:   testCompany,
		PatternText: "DOTSURE",
		AccountCode: "8800-002",
		AccountName: "Insurance - Dotsure",
		Priority:    90,
		IsActive:    true,
	})
	require.NoError(t, err)

	txns := []ledger.BankTransaction{
		f.insertTxn(t, "INSURANCE PREMIUM DOTSURE", dec("450.00"), nil), // rule
		f.insertTxn(t, "MONTHLY FEE", dec("95.00"), nil),               // heuristic
		f.insertTxn(t, "RANDOM UNSEEN VENDOR XYZ", dec("10.00"), nil),  // unclassified
	}

	stats, err := f.processor.ProcessBatch(context.Background(), testCompany, txns, false)
	require.NoError(t, err)

	assert.NotEmpty(t, stats.RunID)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, stats.Classified)
	assert.Equal(t, 2, stats.Posted)
	assert.Equal(t, 1, stats.Unclassified)
	assert.Equal(t, 0, stats.Failed)
	assert.True(t, stats.Success())

	// The unclassified transaction produced no journal rows and remains
	// queryable for manual classification.
	remaining, err := f.bankRepo.Unclassified(testCompany)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "RANDOM UNSEEN VENDOR XYZ", remaining[0].Details)
}

func TestProcessBatchRerunIsIdempotent(t *testing.T) {
	f := newBatchFixture(t)

	txns := []ledger.BankTransaction{
		f.insertTxn(t, "MONTHLY FEE", dec("95.00"), nil),
	}

	first, err := f.processor.ProcessBatch(context.Background(), testCompany, txns, false)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Posted)

	second, err := f.processor.ProcessBatch(context.Background(), testCompany, txns, false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Posted)
	assert.Equal(t, 1, second.AlreadyPosted)

	var lines int
	err = f.conn.QueryRow(`SELECT COUNT(*) FROM journal_entry_lines`).Scan(&lines)
	require.NoError(t, err)
	assert.Equal(t, 2, lines)
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// No bank account in the chart: every post fails, but each failure is
	// contained and the batch keeps going.
	directory := accounts.NewDirectory(conn, accounts.NewCache())
	bankRepo := bank.NewRepository(conn)
	poster := journal.NewPoster(conn, directory, db.NewFiscalPeriods(conn),
		bankRepo, "1000-001", "Bank Account", "test-batch")
	processor := NewProcessor(rules.NewStore(conn), classifier.New(directory), poster)

	txns := []ledger.BankTransaction{
		{ID: 1, CompanyID: testCompany, TransactionDate: time.Now(), Details: "MONTHLY FEE", DebitAmount: dec("95.00")},
		{ID: 2, CompanyID: testCompany, TransactionDate: time.Now(), Details: "MONTHLY FEE", DebitAmount: dec("95.00")},
	}

	stats, err := processor.ProcessBatch(context.Background(), testCompany, txns, false)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 2, stats.Classified)
	assert.Equal(t, 2, stats.Failed)
	assert.False(t, stats.Success())
}

func TestProcessBatchHonorsCancellation(t *testing.T) {
	f := newBatchFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	txns := []ledger.BankTransaction{
		f.insertTxn(t, "MONTHLY FEE", dec("95.00"), nil),
	}

	stats, err := f.processor.ProcessBatch(ctx, testCompany, txns, false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, stats.Processed)
}

func TestValidateTransactions(t *testing.T) {
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	valid := []ledger.BankTransaction{
		{ID: 1, CompanyID: testCompany, TransactionDate: date, Details: "FEE", DebitAmount: dec("10")},
	}
	assert.NoError(t, ValidateTransactions(valid))

	invalid := []ledger.BankTransaction{
		{ID: 1, CompanyID: testCompany, TransactionDate: date, Details: "", DebitAmount: dec("10")},
		{ID: 2, CompanyID: testCompany, Details: "FEE", DebitAmount: dec("10")},
	}
	err := ValidateTransactions(invalid)
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrMissingDetails)
	assert.ErrorIs(t, err, ledger.ErrMissingDate)
}
