// Package classifier determines which ledger account a bank transaction
// belongs to. It tries the company's stored rules first and falls back to a
// built-in heuristic decision table; a transaction that matches neither is
// left unclassified rather than guessed at.
package classifier

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/veldbooks/ledger-engine/pkg/accounts"
	"github.com/veldbooks/ledger-engine/pkg/ledger"
	"github.com/veldbooks/ledger-engine/pkg/rules"
)

// ErrUnclassified is returned when no rule and no heuristic matches a
// transaction. An unclassified transaction must never post to a generic
// account, so there is no default.
var ErrUnclassified = errors.New("transaction could not be classified")

// Classifier resolves transactions to accounts. It mints per-counter-party
// detail accounts through the account directory as new names are seen.
type Classifier struct {
	directory *accounts.Directory
}

// New creates a Classifier backed by the given account directory.
func New(directory *accounts.Directory) *Classifier {
	return &Classifier{directory: directory}
}

// Classify returns the account a transaction should post against, trying the
// supplied rule set first and the heuristic table second. The rule set must
// be ordered as rules.Store.LoadActive returns it.
func (c *Classifier) Classify(txn *ledger.BankTransaction, ruleset []ledger.ClassificationRule) (ledger.ClassificationResult, error) {
	// A row with neither a positive debit nor a positive credit carries no
	// money to post.
	if !txn.IsDebit() && !txn.IsCredit() {
		return ledger.ClassificationResult{}, fmt.Errorf("transaction %d has no amount: %w", txn.ID, ErrUnclassified)
	}

	if rule := rules.Match(txn.Details, ruleset); rule != nil {
		slog.Debug("classified by rule",
			"txn_id", txn.ID, "pattern", rule.PatternText, "account", rule.AccountCode)
		return ledger.ClassificationResult{
			AccountCode: rule.AccountCode,
			AccountName: rule.AccountName,
			Method:      ledger.MethodRuleBased,
		}, nil
	}

	return c.classifyHeuristic(txn)
}

// classifyHeuristic walks the heuristic table top to bottom and applies the
// first entry whose direction and keywords match the transaction.
func (c *Classifier) classifyHeuristic(txn *ledger.BankTransaction) (ledger.ClassificationResult, error) {
	upper := strings.ToUpper(txn.Details)

	for _, h := range heuristicTable {
		if h.direction == moneyOut && !txn.IsDebit() {
			continue
		}
		if h.direction == moneyIn && !txn.IsCredit() {
			continue
		}

		keyword := firstKeyword(upper, h.keywords)
		if keyword == "" {
			continue
		}

		result := ledger.ClassificationResult{
			AccountCode: h.accountCode,
			AccountName: h.accountName,
			Method:      h.name,
		}

		if h.perParty {
			party := extractCounterParty(txn.Details, h.keywords)
			if party != "" {
				sub, err := c.directory.EnsureSubAccount(txn.CompanyID, h.accountCode, h.accountName, party)
				if err != nil {
					return ledger.ClassificationResult{}, fmt.Errorf("failed to mint sub-account for %q: %w", party, err)
				}
				result.AccountCode = sub.Code
				result.AccountName = sub.Name
			}
		}

		slog.Debug("classified by heuristic",
			"txn_id", txn.ID, "heuristic", h.name, "keyword", keyword, "account", result.AccountCode)
		return result, nil
	}

	return ledger.ClassificationResult{}, fmt.Errorf("transaction %d %q: %w", txn.ID, txn.Details, ErrUnclassified)
}

// firstKeyword returns the first keyword contained in the upper-cased
// description, or "".
func firstKeyword(upperDetails string, keywords []string) string {
	for _, kw := range keywords {
		if strings.Contains(upperDetails, kw) {
			return kw
		}
	}
	return ""
}
