// Package db provides SQLite database management for the ledger store.
package db

// Schema defines the SQL statements to create the ledger tables.
const Schema = `
-- Chart of accounts
-- Codes are hierarchical strings ("8800-002"); unique per company.
CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    company_id INTEGER NOT NULL,
    account_code TEXT NOT NULL,
    account_name TEXT NOT NULL,
    category TEXT NOT NULL,
    parent_account_id INTEGER,           -- NULL for roots and orphaned details
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(company_id, account_code)
);

CREATE INDEX IF NOT EXISTS idx_accounts_company_code
    ON accounts(company_id, account_code);

-- Classification rules
-- First match wins after ordering by priority DESC, created_at DESC.
CREATE TABLE IF NOT EXISTS transaction_mapping_rules (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    company_id INTEGER NOT NULL,
    pattern_text TEXT NOT NULL,
    match_type TEXT NOT NULL DEFAULT 'contains',
    account_code TEXT NOT NULL,
    account_name TEXT NOT NULL,
    priority INTEGER NOT NULL DEFAULT 0,
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_rules_company_active
    ON transaction_mapping_rules(company_id, is_active);

-- Journal entry headers
CREATE TABLE IF NOT EXISTS journal_entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    reference TEXT NOT NULL UNIQUE,
    entry_date TEXT NOT NULL,            -- YYYY-MM-DD
    description TEXT NOT NULL,
    company_id INTEGER NOT NULL,
    fiscal_period_id INTEGER NOT NULL DEFAULT 0,
    created_by TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_journal_entries_company
    ON journal_entries(company_id, entry_date);

-- Journal entry lines
-- Exactly one of debit_amount/credit_amount is set (TEXT decimals).
-- source_transaction_id links back to bank_transactions for idempotency.
CREATE TABLE IF NOT EXISTS journal_entry_lines (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    journal_entry_id INTEGER NOT NULL REFERENCES journal_entries(id),
    account_id INTEGER NOT NULL REFERENCES accounts(id),
    debit_amount TEXT,
    credit_amount TEXT,
    description TEXT NOT NULL DEFAULT '',
    reference TEXT NOT NULL DEFAULT '',
    source_transaction_id INTEGER
);

CREATE INDEX IF NOT EXISTS idx_journal_lines_entry
    ON journal_entry_lines(journal_entry_id);

CREATE INDEX IF NOT EXISTS idx_journal_lines_source
    ON journal_entry_lines(source_transaction_id);

-- Imported bank-statement line items (produced by the import subsystem).
-- account_code/account_name are a denormalized classification marker this
-- engine writes back after classifying.
CREATE TABLE IF NOT EXISTS bank_transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    company_id INTEGER NOT NULL,
    transaction_date TEXT NOT NULL,      -- YYYY-MM-DD
    details TEXT NOT NULL,
    debit_amount TEXT,
    credit_amount TEXT,
    balance TEXT NOT NULL DEFAULT '0',
    source_file TEXT NOT NULL DEFAULT '',
    fiscal_period_id INTEGER NOT NULL DEFAULT 0,
    account_code TEXT,
    account_name TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_bank_txns_company_date
    ON bank_transactions(company_id, transaction_date);

-- Fiscal periods (financial years / reporting cutoffs)
CREATE TABLE IF NOT EXISTS fiscal_periods (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    company_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    start_date TEXT NOT NULL,            -- YYYY-MM-DD
    end_date TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fiscal_periods_company
    ON fiscal_periods(company_id, start_date);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
