package classifier

import (
	"sort"
	"strings"
	"unicode"
)

// direction restricts a heuristic to one side of the statement.
type direction int

const (
	moneyOut direction = iota // debit on the bank statement
	moneyIn                   // credit on the bank statement
)

// heuristicRule is one entry in the fallback decision table. Entries are
// evaluated top to bottom; the first whose direction applies and whose
// keyword appears in the description wins. When perParty is set, a detail
// sub-account is minted under accountCode for the extracted counter-party;
// extraction failure falls back to the parent account itself.
type heuristicRule struct {
	name        string // method tag recorded on the classification
	direction   direction
	keywords    []string
	accountCode string
	accountName string
	perParty    bool
}

// heuristicTable is the built-in fallback decision tree, flattened to an
// ordered table so priority and coverage are auditable. More specific
// entries come before catch-alls (INTEREST before FEE, branded telecoms
// before generic keywords).
var heuristicTable = []heuristicRule{
	// Money out
	{
		name:        "SALARIES",
		direction:   moneyOut,
		keywords:    []string{"SALARY", "SALARIES", "WAGES", "WAGE PAYMENT"},
		accountCode: "8100",
		accountName: "Salaries and Wages",
		perParty:    true,
	},
	{
		name:        "INSURANCE",
		direction:   moneyOut,
		keywords:    []string{"INSURANCE", "ASSURANCE", "PREMIUM"},
		accountCode: "8800",
		accountName: "Insurance",
		perParty:    true,
	},
	{
		name:        "INTEREST_PAID",
		direction:   moneyOut,
		keywords:    []string{"INTEREST"},
		accountCode: "9700-001",
		accountName: "Interest Paid",
	},
	{
		name:        "TAX_PAYMENTS",
		direction:   moneyOut,
		keywords:    []string{"SARS", "PAYE", "VAT PAYMENT", "UIF"},
		accountCode: "2400-001",
		accountName: "SARS Payments",
	},
	{
		name:        "FUEL",
		direction:   moneyOut,
		keywords:    []string{"FUEL", "PETROL", "DIESEL", "FILLING STATION", "GARAGE"},
		accountCode: "8500-001",
		accountName: "Motor Vehicle Expenses",
	},
	{
		name:        "RENT",
		direction:   moneyOut,
		keywords:    []string{"RENT", "RENTAL", "LEASE PAYMENT"},
		accountCode: "8600-001",
		accountName: "Rent Paid",
	},
	{
		name:        "TELECOMS",
		direction:   moneyOut,
		keywords:    []string{"VODACOM", "MTN", "TELKOM", "CELL C", "AIRTIME", "TELEPHONE"},
		accountCode: "8700-001",
		accountName: "Telephone and Internet",
	},
	{
		name:        "UTILITIES",
		direction:   moneyOut,
		keywords:    []string{"ESKOM", "ELECTRICITY", "MUNICIPALITY", "MUNICIPAL", "WATER"},
		accountCode: "8900-001",
		accountName: "Utilities",
	},
	{
		name:        "STATIONERY",
		direction:   moneyOut,
		keywords:    []string{"STATIONERY", "PRINTING", "OFFICE SUPPLIES"},
		accountCode: "8400-001",
		accountName: "Printing and Stationery",
	},
	{
		name:        "BANK_CHARGES",
		direction:   moneyOut,
		keywords:    []string{"BANK CHARGES", "SERVICE FEE", "MONTHLY FEE", "ADMIN FEE", "FEE"},
		accountCode: "9800-001",
		accountName: "Bank Charges",
	},

	// Money in
	{
		name:        "INTEREST_RECEIVED",
		direction:   moneyIn,
		keywords:    []string{"INTEREST"},
		accountCode: "6500-001",
		accountName: "Interest Received",
	},
	{
		name:        "CUSTOMER_RECEIPTS",
		direction:   moneyIn,
		keywords:    []string{"PAYMENT RECEIVED", "EFT RECEIVED", "INVOICE", "DEPOSIT"},
		accountCode: "6000-001",
		accountName: "Sales Revenue",
	},
	{
		name:        "OTHER_INCOME",
		direction:   moneyIn,
		keywords:    []string{"REFUND", "REVERSAL", "CASHBACK"},
		accountCode: "6900-001",
		accountName: "Other Income",
	},
}

// noiseTokens are statement boilerplate stripped before counter-party
// extraction, in addition to the matched keyword's own words.
var noiseTokens = map[string]bool{
	"EFT":       true,
	"POS":       true,
	"DEBIT":     true,
	"CREDIT":    true,
	"ORDER":     true,
	"PAYMENT":   true,
	"PMT":       true,
	"TO":        true,
	"FROM":      true,
	"FOR":       true,
	"THE":       true,
	"PTY":       true,
	"LTD":       true,
	"REF":       true,
	"INTERNET":  true,
	"BANKING":   true,
	"TRANSFER":  true,
	"IMMEDIATE": true,
}

// extractCounterParty pulls the counter-party name out of a statement
// description after removing the heuristic's keywords and boilerplate.
// Returns "" when nothing name-like remains.
func extractCounterParty(details string, keywords []string) string {
	upper := strings.ToUpper(details)

	// Drop every keyword, longest first so "SALARIES" is not left as "IES"
	// by a shorter "SALARY" replacement.
	sorted := make([]string, len(keywords))
	copy(sorted, keywords)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	for _, kw := range sorted {
		upper = strings.ReplaceAll(upper, kw, " ")
	}

	var kept []string
	for _, token := range strings.Fields(upper) {
		if noiseTokens[token] {
			continue
		}
		if isReferenceToken(token) {
			continue
		}
		kept = append(kept, token)
		if len(kept) == 3 {
			break
		}
	}
	return strings.Join(kept, " ")
}

// isReferenceToken reports whether a token looks like a statement reference
// rather than part of a name: all digits, or digit-heavy mixed codes.
func isReferenceToken(token string) bool {
	digits := 0
	for _, r := range token {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	return digits*2 >= len(token)
}
