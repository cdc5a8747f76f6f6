// Package rules implements the classification rule store and matcher: stored
// pattern-to-account mappings applied to bank transaction descriptions.
package rules

import (
	"fmt"
	"time"

	"github.com/veldbooks/ledger-engine/pkg/db"
	"github.com/veldbooks/ledger-engine/pkg/ledger"
)

// Store loads and persists classification rules.
type Store struct {
	conn *db.Connection
}

// NewStore creates a rule store backed by the given connection.
func NewStore(conn *db.Connection) *Store {
	return &Store{conn: conn}
}

// LoadActive returns a company's active rules ordered for matching:
// priority descending, then most recently created first. The matcher can
// then do a single linear scan and return the first hit.
func (s *Store) LoadActive(companyID int64) ([]ledger.ClassificationRule, error) {
	rows, err := s.conn.Query(`
		SELECT id, company_id, pattern_text, match_type, account_code, account_name,
		       priority, is_active, created_at
		FROM transaction_mapping_rules
		WHERE company_id = ? AND is_active = 1
		ORDER BY priority DESC, created_at DESC, id DESC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	defer rows.Close()

	var result []ledger.ClassificationRule
	for rows.Next() {
		var r ledger.ClassificationRule
		if err := rows.Scan(
			&r.ID, &r.CompanyID, &r.PatternText, &r.MatchType,
			&r.AccountCode, &r.AccountName, &r.Priority, &r.IsActive, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rule rows: %w", err)
	}
	return result, nil
}

// Create persists a rule and returns its id. CreatedAt is set by the store.
func (s *Store) Create(r ledger.ClassificationRule) (int64, error) {
	if r.MatchType == "" {
		r.MatchType = ledger.MatchTypeContains
	}
	res, err := s.conn.Exec(`
		INSERT INTO transaction_mapping_rules
			(company_id, pattern_text, match_type, account_code, account_name, priority, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.CompanyID, r.PatternText, r.MatchType, r.AccountCode, r.AccountName,
		r.Priority, r.IsActive, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create rule: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read new rule id: %w", err)
	}
	return id, nil
}
