// Package ledger defines the core domain types for the posting engine:
// bank transactions, accounts, classification rules and journal entries.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is a top-level chart-of-accounts category.
type Category string

// Chart-of-accounts categories.
const (
	CategoryAssets      Category = "ASSETS"
	CategoryLiabilities Category = "LIABILITIES"
	CategoryEquity      Category = "EQUITY"
	CategoryRevenue     Category = "REVENUE"
	CategoryExpense     Category = "EXPENSE"
)

// EntryType marks a journal line as debit or credit.
type EntryType string

// Journal line entry types.
const (
	EntryDebit  EntryType = "debit"
	EntryCredit EntryType = "credit"
)

// BankTransaction is an imported bank-statement line item. It is produced by
// the import subsystem and read-only to this engine. Exactly one of
// DebitAmount/CreditAmount is set and positive, or both are nil for
// zero-value rows.
type BankTransaction struct {
	ID              int64
	CompanyID       int64
	TransactionDate time.Time
	Details         string
	DebitAmount     *decimal.Decimal
	CreditAmount    *decimal.Decimal
	Balance         decimal.Decimal
	SourceFile      string
	FiscalPeriodID  int64
	AccountCode     *string
	AccountName     *string
}

// IsDebit reports whether money left the bank account.
func (t *BankTransaction) IsDebit() bool {
	return t.DebitAmount != nil && t.DebitAmount.IsPositive()
}

// IsCredit reports whether money came into the bank account.
func (t *BankTransaction) IsCredit() bool {
	return t.CreditAmount != nil && t.CreditAmount.IsPositive()
}

// Amount returns the transaction's single positive amount, regardless of
// direction. Zero when neither side is set.
func (t *BankTransaction) Amount() decimal.Decimal {
	if t.IsDebit() {
		return *t.DebitAmount
	}
	if t.IsCredit() {
		return *t.CreditAmount
	}
	return decimal.Zero
}

// Account is one chart-of-accounts entry. Codes are hierarchical strings
// (e.g. "8800-002") and unique per company. ParentID is nil for top-level
// roots and for orphaned detail accounts whose parent code was never created.
type Account struct {
	ID        int64
	CompanyID int64
	Code      string
	Name      string
	Category  Category
	ParentID  *int64
	IsActive  bool
}

// ClassificationRule maps a description pattern to a target account.
// Matching is case-insensitive substring containment; higher priority wins,
// ties broken by recency.
type ClassificationRule struct {
	ID          int64
	CompanyID   int64
	PatternText string
	MatchType   string
	AccountCode string
	AccountName string
	Priority    int
	IsActive    bool
	CreatedAt   time.Time
}

// MatchTypeContains is the only match type currently supported.
const MatchTypeContains = "contains"

// MethodRuleBased tags classifications produced by a stored rule. Heuristic
// classifications carry the heuristic's own name instead.
const MethodRuleBased = "RULE_BASED"

// ClassificationResult is the ephemeral contract between the classifier and
// the journal poster. It is never persisted directly.
type ClassificationResult struct {
	AccountCode string
	AccountName string
	Method      string
}

// JournalEntry is a balanced double-entry header. Lines must net to zero.
type JournalEntry struct {
	ID             int64
	Reference      string
	EntryDate      time.Time
	Description    string
	CompanyID      int64
	FiscalPeriodID int64
	CreatedBy      string
	CreatedAt      time.Time
	Lines          []JournalEntryLine
}

// JournalEntryLine is a single debit or credit leg. Exactly one of
// DebitAmount/CreditAmount is set. SourceTransactionID links the line back to
// the bank transaction it was posted from; it is the idempotency key.
type JournalEntryLine struct {
	ID                  int64
	JournalEntryID      int64
	AccountID           int64
	DebitAmount         *decimal.Decimal
	CreditAmount        *decimal.Decimal
	Description         string
	Reference           string
	SourceTransactionID *int64
}

// FiscalPeriod is a bounded reporting date range (e.g. a financial year).
type FiscalPeriod struct {
	ID        int64
	CompanyID int64
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

// Contains reports whether d falls inside the period, boundaries inclusive.
func (p *FiscalPeriod) Contains(d time.Time) bool {
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}
