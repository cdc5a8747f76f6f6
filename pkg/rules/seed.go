package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/veldbooks/ledger-engine/pkg/ledger"
)

// seedRule is one rule entry in the YAML seed file.
type seedRule struct {
	Pattern     string `yaml:"pattern"`
	AccountCode string `yaml:"account_code"`
	AccountName string `yaml:"account_name"`
	Priority    int    `yaml:"priority"`
}

// seedFile is the structure of the classification rules YAML file.
type seedFile struct {
	Rules []seedRule `yaml:"rules"`
}

// SeedFromFile loads classification rules from a YAML file and inserts any
// that the company does not already have (keyed by pattern text). Returns the
// number of rules inserted.
func (s *Store) SeedFromFile(companyID int64, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read rules file: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to parse rules YAML: %w", err)
	}

	existing, err := s.LoadActive(companyID)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(existing))
	for _, r := range existing {
		seen[r.PatternText] = true
	}

	inserted := 0
	for _, r := range file.Rules {
		if r.Pattern == "" || r.AccountCode == "" {
			return inserted, fmt.Errorf("rule entry missing pattern or account_code: %+v", r)
		}
		if seen[r.Pattern] {
			continue
		}
		_, err := s.Create(ledger.ClassificationRule{
			CompanyID:   companyID,
			PatternText: r.Pattern,
			MatchType:   ledger.MatchTypeContains,
			AccountCode: r.AccountCode,
			AccountName: r.AccountName,
			Priority:    r.Priority,
			IsActive:    true,
		})
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
