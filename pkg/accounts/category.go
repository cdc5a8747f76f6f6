package accounts

import (
	"strings"

	"github.com/veldbooks/ledger-engine/pkg/ledger"
)

// prefixCategory maps an account-code prefix to its chart category.
type prefixCategory struct {
	prefix   string
	category ledger.Category
}

// categoryTable is consulted in order at account-creation time; the first
// prefix match wins. Longer prefixes must come before shorter ones.
var categoryTable = []prefixCategory{
	{"1", ledger.CategoryAssets},
	{"2", ledger.CategoryLiabilities},
	{"3", ledger.CategoryEquity},
	{"4", ledger.CategoryRevenue},
	{"5", ledger.CategoryRevenue},
	{"6", ledger.CategoryRevenue},
	{"7", ledger.CategoryRevenue},
	{"8", ledger.CategoryExpense},
	{"9", ledger.CategoryExpense},
}

// InferCategory derives the chart category from an account code's prefix.
// Unknown prefixes default to Expense, which is where auto-created
// counter-party accounts land.
func InferCategory(code string) ledger.Category {
	code = strings.TrimSpace(code)
	for _, entry := range categoryTable {
		if strings.HasPrefix(code, entry.prefix) {
			return entry.category
		}
	}
	return ledger.CategoryExpense
}
