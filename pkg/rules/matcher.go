package rules

import (
	"strings"

	"github.com/veldbooks/ledger-engine/pkg/ledger"
)

// Match returns the first rule whose pattern is contained in the upper-cased
// description, or nil when none matches. Rules must already be ordered as
// LoadActive returns them; matching itself is a plain linear scan, which is
// deterministic and fast enough for the tens-to-hundreds of rules a company
// carries.
func Match(description string, ruleset []ledger.ClassificationRule) *ledger.ClassificationRule {
	normalized := strings.ToUpper(description)
	for i := range ruleset {
		rule := &ruleset[i]
		if rule.MatchType != ledger.MatchTypeContains {
			continue
		}
		if rule.PatternText == "" {
			continue
		}
		if strings.Contains(normalized, strings.ToUpper(rule.PatternText)) {
			return rule
		}
	}
	return nil
}
