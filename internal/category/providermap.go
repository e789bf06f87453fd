package category

// pairRules holds specialized primary+secondary provider category
// combinations. An unmatched secondary under a known primary falls to
// that primary's generic target in pairDefaults.
var pairRules = map[string]map[string]string{
	"Payment": {
		"Rent":        Housing,
		"Mortgage":    Mortgage,
		"Credit Card": Financial,
		"Loan":        Financial,
	},
	"Service": {
		"Utilities":                  BillsUtilities,
		"Telecommunication Services": BillsUtilities,
		"Cable":                      BillsUtilities,
		"Insurance":                  Insurance,
		"Financial":                  Financial,
	},
	"Transfer": {
		"Payroll":    Income,
		"Deposit":    Income,
		"Withdrawal": CashATM,
	},
}

var pairDefaults = map[string]string{
	"Payment":  Financial,
	"Service":  BillsUtilities,
	"Transfer": Financial,
}

// primaryMap maps provider primary category strings to display
// categories. Anything absent here falls back to the raw primary string.
var primaryMap = map[string]string{
	"Payroll":           Income,
	"Interest":          Income,
	"Deposit":           Income,
	"Food and Drink":    FoodDining,
	"Restaurants":       FoodDining,
	"Groceries":         FoodDining,
	"Shops":             Shopping,
	"Shopping":          Shopping,
	"Recreation":        Entertainment,
	"Entertainment":     Entertainment,
	"Healthcare":        Healthcare,
	"Medical":           Healthcare,
	"Bank Fees":         Financial,
	"Financial":         Financial,
	"Insurance":         Insurance,
	"Travel":            Travel,
	"Transportation":    Transportation,
	"Personal Care":     PersonalCare,
	"Tax":               Government,
	"Government":        Government,
	"Rent":              Housing,
	"Mortgage and Rent": Housing,
	"Utilities":         BillsUtilities,
	"Cash Advance":      CashATM,
	"ATM":               CashATM,
	"Other":             Other,
}
