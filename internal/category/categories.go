// Package category assigns display categories to transactions through a
// layered rule system: per-user learned overrides, an income
// short-circuit, a merchant/keyword pattern table, provider category-pair
// rules, a provider primary-category map, and a literal fallback.
//
// Display categories are open strings: the canonical names below cover
// what the built-in tables emit, but user corrections may introduce new
// ones and every comparison downstream is by equality.
package category

// Canonical display categories emitted by the built-in tables.
const (
	Income         = "Income"
	Housing        = "Housing"
	Mortgage       = "Mortgage"
	BillsUtilities = "Bills & Utilities"
	FoodDining     = "Food & Dining"
	Transportation = "Transportation"
	Shopping       = "Shopping"
	Entertainment  = "Entertainment"
	Healthcare     = "Healthcare"
	Financial      = "Financial"
	Insurance      = "Insurance"
	CashATM        = "Cash & ATM"
	Travel         = "Travel"
	PersonalCare   = "Personal Care"
	Government     = "Government"
	Other          = "Other"
)

// Canonical returns the canonical category names in display order.
func Canonical() []string {
	return []string{
		Income,
		Housing,
		Mortgage,
		BillsUtilities,
		FoodDining,
		Transportation,
		Shopping,
		Entertainment,
		Healthcare,
		Financial,
		Insurance,
		CashATM,
		Travel,
		PersonalCare,
		Government,
		Other,
	}
}

// incomeKeywords is the free-text income indicator set checked by the
// income short-circuit for inflow-signed amounts.
var incomeKeywords = []string{
	"payroll",
	"salary",
	"direct deposit",
	"income",
	"wage",
}
