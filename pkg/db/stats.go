package db

import (
	"database/sql"
	"fmt"
)

// PostingStats summarizes a company's posted ledger state.
type PostingStats struct {
	TotalAccounts    int64
	TotalRules       int64
	TotalEntries     int64
	TotalLines       int64
	UnclassifiedTxns int64
	LastPosted       sql.NullString
}

// GetPostingStats returns posting statistics for a company.
func (c *Connection) GetPostingStats(companyID int64) (*PostingStats, error) {
	stats := &PostingStats{}

	queries := []struct {
		dest  *int64
		query string
	}{
		{&stats.TotalAccounts, `SELECT COUNT(*) FROM accounts WHERE company_id = ? AND is_active = 1`},
		{&stats.TotalRules, `SELECT COUNT(*) FROM transaction_mapping_rules WHERE company_id = ? AND is_active = 1`},
		{&stats.TotalEntries, `SELECT COUNT(*) FROM journal_entries WHERE company_id = ?`},
		{&stats.TotalLines, `SELECT COUNT(*) FROM journal_entry_lines l
			JOIN journal_entries e ON e.id = l.journal_entry_id WHERE e.company_id = ?`},
		{&stats.UnclassifiedTxns, `SELECT COUNT(*) FROM bank_transactions t
			WHERE t.company_id = ? AND t.account_code IS NULL
			AND NOT EXISTS (SELECT 1 FROM journal_entry_lines l WHERE l.source_transaction_id = t.id)`},
	}

	for _, q := range queries {
		if err := c.QueryRow(q.query, companyID).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("failed to get posting stats: %w", err)
		}
	}

	err := c.QueryRow(`
		SELECT MAX(created_at) FROM journal_entries WHERE company_id = ?`,
		companyID,
	).Scan(&stats.LastPosted)
	if err != nil {
		return nil, fmt.Errorf("failed to get last posted time: %w", err)
	}

	return stats, nil
}
