// Package journal commits balanced double-entry journal entries for
// classified bank transactions, guaranteeing each source transaction is
// posted at most once.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/veldbooks/ledger-engine/pkg/accounts"
	"github.com/veldbooks/ledger-engine/pkg/bank"
	"github.com/veldbooks/ledger-engine/pkg/db"
	"github.com/veldbooks/ledger-engine/pkg/ledger"
)

// Sentinel errors reported to the batch layer.
var (
	ErrBankAccountMissing = errors.New("bank account not found for company")
	ErrUnbalanced         = errors.New("journal entry does not balance")
	ErrNoAmount           = errors.New("transaction has no postable amount")
)

// Result reports what Post did for a transaction.
type Result string

// Post outcomes. AlreadyPosted is a successful no-op, not an error.
const (
	ResultPosted        Result = "posted"
	ResultAlreadyPosted Result = "already_posted"
)

const dateLayout = "2006-01-02"

// Poster builds and commits journal entries. Every Post call runs its
// idempotency check and inserts inside a single database transaction, so a
// bank transaction is never left half-posted.
type Poster struct {
	conn      *db.Connection
	directory *accounts.Directory
	periods   *db.FiscalPeriods
	bankRepo  *bank.Repository

	bankAccountCode string
	bankAccountName string
	createdBy       string
}

// NewPoster creates a Poster. bankAccountCode identifies the company's
// bank/cash account; it must already exist in the chart of accounts.
func NewPoster(conn *db.Connection, directory *accounts.Directory, periods *db.FiscalPeriods, bankRepo *bank.Repository, bankAccountCode, bankAccountName, createdBy string) *Poster {
	return &Poster{
		conn:            conn,
		directory:       directory,
		periods:         periods,
		bankRepo:        bankRepo,
		bankAccountCode: bankAccountCode,
		bankAccountName: bankAccountName,
		createdBy:       createdBy,
	}
}

// Posting is one leg of an entry to be committed. A balanced entry is an
// explicit list of postings that nets to zero; the two-line bank case is just
// the smallest instance.
type Posting struct {
	AccountID   int64
	Type        ledger.EntryType
	Amount      decimal.Decimal
	Description string
}

// Post commits a balanced entry for a classified transaction.
//
// If journal lines already reference the transaction, Post is a no-op
// returning ResultAlreadyPosted. With force set, the prior entry is deleted
// and the transaction reposted in the same database transaction (a controlled
// regeneration pass).
func (p *Poster) Post(txn *ledger.BankTransaction, cls ledger.ClassificationResult, force bool) (Result, error) {
	amount := txn.Amount()
	if !amount.IsPositive() {
		return "", fmt.Errorf("transaction %d: %w", txn.ID, ErrNoAmount)
	}

	// Account resolution happens before the posting transaction; creation is
	// idempotent, so a rollback below cannot corrupt anything.
	target, err := p.directory.GetOrCreate(txn.CompanyID, cls.AccountCode, cls.AccountName, parentCodeOf(cls.AccountCode))
	if err != nil {
		return "", fmt.Errorf("failed to resolve account %q: %w", cls.AccountCode, err)
	}

	bankAcc, err := p.directory.Resolve(txn.CompanyID, p.bankAccountCode)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return "", fmt.Errorf("%w: %q (company %d)", ErrBankAccountMissing, p.bankAccountCode, txn.CompanyID)
		}
		return "", err
	}

	periodID := txn.FiscalPeriodID
	if periodID == 0 {
		periodID, err = p.periods.ResolveForDate(txn.CompanyID, txn.TransactionDate)
		if err != nil {
			return "", err
		}
	}

	// Money in: debit the bank, credit the classified account.
	// Money out: debit the classified account, credit the bank.
	var postings []Posting
	if txn.IsCredit() {
		postings = []Posting{
			{AccountID: bankAcc.ID, Type: ledger.EntryDebit, Amount: amount, Description: txn.Details},
			{AccountID: target.ID, Type: ledger.EntryCredit, Amount: amount, Description: txn.Details},
		}
	} else {
		postings = []Posting{
			{AccountID: target.ID, Type: ledger.EntryDebit, Amount: amount, Description: txn.Details},
			{AccountID: bankAcc.ID, Type: ledger.EntryCredit, Amount: amount, Description: txn.Details},
		}
	}

	entry, err := BuildEntry(txn, postings, p.createdBy, periodID)
	if err != nil {
		return "", err
	}

	result := ResultPosted
	err = p.conn.Transaction(func(tx *sql.Tx) error {
		posted, err := hasPostedLines(tx, txn.ID)
		if err != nil {
			return err
		}
		if posted {
			if !force {
				result = ResultAlreadyPosted
				return nil
			}
			if err := deletePostedEntry(tx, txn.ID); err != nil {
				return err
			}
		}

		entryID, err := insertEntry(tx, entry)
		if err != nil {
			return err
		}
		for i := range entry.Lines {
			entry.Lines[i].JournalEntryID = entryID
			if err := insertLine(tx, &entry.Lines[i]); err != nil {
				return err
			}
		}

		return p.bankRepo.MarkClassified(tx, txn.ID, cls.AccountCode, cls.AccountName)
	})
	if err != nil {
		return "", err
	}

	if result == ResultAlreadyPosted {
		slog.Debug("transaction already posted", "txn_id", txn.ID)
	} else {
		slog.Info("posted journal entry",
			"txn_id", txn.ID, "reference", entry.Reference,
			"account", cls.AccountCode, "amount", amount.String(), "method", cls.Method)
	}
	return result, nil
}

// BuildEntry assembles a journal entry from a transaction and its postings,
// enforcing the balance invariant before anything touches the database.
func BuildEntry(txn *ledger.BankTransaction, postings []Posting, createdBy string, fiscalPeriodID int64) (*ledger.JournalEntry, error) {
	if err := checkBalanced(postings); err != nil {
		return nil, err
	}

	entry := &ledger.JournalEntry{
		Reference:      fmt.Sprintf("JE-%d-%d", txn.ID, time.Now().Unix()),
		EntryDate:      txn.TransactionDate,
		Description:    txn.Details,
		CompanyID:      txn.CompanyID,
		FiscalPeriodID: fiscalPeriodID,
		CreatedBy:      createdBy,
	}

	sourceID := txn.ID
	for _, posting := range postings {
		line := ledger.JournalEntryLine{
			AccountID:           posting.AccountID,
			Description:         posting.Description,
			Reference:           entry.Reference,
			SourceTransactionID: &sourceID,
		}
		amount := posting.Amount
		switch posting.Type {
		case ledger.EntryDebit:
			line.DebitAmount = &amount
		case ledger.EntryCredit:
			line.CreditAmount = &amount
		default:
			return nil, fmt.Errorf("unknown entry type %q", posting.Type)
		}
		entry.Lines = append(entry.Lines, line)
	}

	return entry, nil
}

// checkBalanced verifies postings net to zero with at least one leg per side
// and every amount positive.
func checkBalanced(postings []Posting) error {
	if len(postings) < 2 {
		return fmt.Errorf("%w: %d posting(s)", ErrUnbalanced, len(postings))
	}

	debits, credits := decimal.Zero, decimal.Zero
	for _, posting := range postings {
		if !posting.Amount.IsPositive() {
			return fmt.Errorf("%w: non-positive amount %s", ErrUnbalanced, posting.Amount)
		}
		switch posting.Type {
		case ledger.EntryDebit:
			debits = debits.Add(posting.Amount)
		case ledger.EntryCredit:
			credits = credits.Add(posting.Amount)
		}
	}
	if !debits.Equal(credits) {
		return fmt.Errorf("%w: debits %s, credits %s", ErrUnbalanced, debits, credits)
	}
	return nil
}

// hasPostedLines is the idempotency check: any journal line referencing the
// source transaction means it has been posted.
func hasPostedLines(tx *sql.Tx, txnID int64) (bool, error) {
	var count int
	err := tx.QueryRow(`
		SELECT COUNT(*) FROM journal_entry_lines WHERE source_transaction_id = ?`,
		txnID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("idempotency check failed for transaction %d: %w", txnID, err)
	}
	return count > 0, nil
}

// deletePostedEntry removes the prior entry (lines and header) for a source
// transaction ahead of a forced repost. Lines go first: the line FK
// references the header and the connection enforces foreign keys, so the
// header ids are collected before its lines disappear.
func deletePostedEntry(tx *sql.Tx, txnID int64) error {
	rows, err := tx.Query(`
		SELECT DISTINCT journal_entry_id FROM journal_entry_lines
		WHERE source_transaction_id = ?`, txnID)
	if err != nil {
		return fmt.Errorf("failed to find prior entries for transaction %d: %w", txnID, err)
	}
	defer rows.Close()

	var entryIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan prior entry id: %w", err)
		}
		entryIDs = append(entryIDs, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("prior entry rows: %w", err)
	}

	_, err = tx.Exec(`
		DELETE FROM journal_entry_lines WHERE source_transaction_id = ?`, txnID)
	if err != nil {
		return fmt.Errorf("failed to delete prior lines for transaction %d: %w", txnID, err)
	}
	for _, id := range entryIDs {
		if _, err := tx.Exec(`DELETE FROM journal_entries WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete prior entry %d for transaction %d: %w", id, txnID, err)
		}
	}
	return nil
}

func insertEntry(tx *sql.Tx, entry *ledger.JournalEntry) (int64, error) {
	res, err := tx.Exec(`
		INSERT INTO journal_entries
			(reference, entry_date, description, company_id, fiscal_period_id, created_by)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.Reference,
		entry.EntryDate.Format(dateLayout),
		entry.Description,
		entry.CompanyID,
		entry.FiscalPeriodID,
		entry.CreatedBy,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert journal entry %q: %w", entry.Reference, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read journal entry id: %w", err)
	}
	return id, nil
}

func insertLine(tx *sql.Tx, line *ledger.JournalEntryLine) error {
	var debit, credit interface{}
	if line.DebitAmount != nil {
		debit = line.DebitAmount.String()
	}
	if line.CreditAmount != nil {
		credit = line.CreditAmount.String()
	}
	_, err := tx.Exec(`
		INSERT INTO journal_entry_lines
			(journal_entry_id, account_id, debit_amount, credit_amount, description, reference, source_transaction_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		line.JournalEntryID,
		line.AccountID,
		debit,
		credit,
		line.Description,
		line.Reference,
		line.SourceTransactionID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert journal line: %w", err)
	}
	return nil
}

// parentCodeOf derives the parent code from a hierarchical account code:
// everything before the last dash, or "" for a root code.
func parentCodeOf(code string) string {
	idx := strings.LastIndex(code, "-")
	if idx <= 0 {
		return ""
	}
	return code[:idx]
}
