package category

import (
	"regexp"
)

// patternRule pairs a compiled case-insensitive expression with its
// target category. Table order encodes precedence: specific merchant
// patterns come before generic keyword patterns, first match wins.
type patternRule struct {
	expr     *regexp.Regexp
	source   string
	category string
}

func pr(expr, category string) patternRule {
	return patternRule{
		expr:     regexp.MustCompile(`(?i)` + expr),
		source:   expr,
		category: category,
	}
}

// merchantPatterns is the built-in merchant/keyword table. It is
// package-level but immutable; learned rules live in per-user RuleSets,
// never here.
var merchantPatterns = []patternRule{
	// Dining: named merchants first.
	pr(`starbucks`, FoodDining),
	pr(`mcdonald`, FoodDining),
	pr(`burger king`, FoodDining),
	pr(`chipotle`, FoodDining),
	pr(`taco bell`, FoodDining),
	pr(`wendy'?s`, FoodDining),
	pr(`domino'?s`, FoodDining),
	pr(`dunkin`, FoodDining),
	pr(`kfc`, FoodDining),
	pr(`doordash`, FoodDining),
	pr(`grubhub`, FoodDining),
	pr(`uber\s*eats`, FoodDining),
	pr(`whole foods`, FoodDining),
	pr(`trader joe`, FoodDining),
	pr(`kroger`, FoodDining),
	pr(`safeway`, FoodDining),
	pr(`aldi\b`, FoodDining),

	// Transportation. uber eats is matched above, so a bare "uber" here
	// is safe.
	pr(`\buber\b`, Transportation),
	pr(`\blyft\b`, Transportation),
	pr(`shell oil|shell gas`, Transportation),
	pr(`chevron`, Transportation),
	pr(`exxon`, Transportation),
	pr(`\bbp\b`, Transportation),
	pr(`amtrak`, Transportation),
	pr(`\bmta\b|metro transit|transit authority`, Transportation),

	// Shopping.
	pr(`amazon|amzn`, Shopping),
	pr(`\btarget\b`, Shopping),
	pr(`walmart|wal-mart`, Shopping),
	pr(`costco`, Shopping),
	pr(`best buy`, Shopping),
	pr(`\bebay\b`, Shopping),
	pr(`\betsy\b`, Shopping),
	pr(`\bikea\b`, Shopping),
	pr(`macy'?s`, Shopping),

	// Entertainment.
	pr(`netflix`, Entertainment),
	pr(`spotify`, Entertainment),
	pr(`\bhulu\b`, Entertainment),
	pr(`disney\+|disneyplus`, Entertainment),
	pr(`hbo|max\.com`, Entertainment),
	pr(`playstation|xbox|nintendo|steam games|steampowered`, Entertainment),
	pr(`ticketmaster`, Entertainment),
	pr(`cinema|movie theat|amc theat`, Entertainment),

	// Bills & utilities: named carriers before generic keywords.
	pr(`comcast|xfinity`, BillsUtilities),
	pr(`verizon`, BillsUtilities),
	pr(`t-?mobile`, BillsUtilities),
	pr(`at&t|\batt\b`, BillsUtilities),

	// Healthcare.
	pr(`\bcvs\b`, Healthcare),
	pr(`walgreens`, Healthcare),
	pr(`pharmacy|rite aid`, Healthcare),
	pr(`hospital|clinic|medical|dental|urgent care`, Healthcare),

	// Insurance: named carriers before the generic keyword.
	pr(`geico|state farm|allstate|progressive ins`, Insurance),
	pr(`insurance`, Insurance),

	// Travel.
	pr(`airbnb`, Travel),
	pr(`marriott|hilton|hyatt`, Travel),
	pr(`delta air|united air|american air|southwest air|jetblue`, Travel),
	pr(`expedia|booking\.com`, Travel),
	pr(`\bhotel\b|\bairline\b`, Travel),

	// Personal care.
	pr(`planet fitness|24 hour fitness|equinox`, PersonalCare),
	pr(`\bgym\b|fitness`, PersonalCare),
	pr(`salon|barber|\bspa\b`, PersonalCare),

	// Government.
	pr(`\birs\b|us treasury|tax payment`, Government),
	pr(`\bdmv\b`, Government),

	// Housing. Mortgage gets its own display category.
	pr(`mortgage`, Mortgage),
	pr(`\brent\b|landlord|property mgmt|\bhoa\b`, Housing),

	// Cash.
	pr(`atm withdrawal|cash withdrawal|atm cash`, CashATM),

	// Generic keywords last: broader nets after the named merchants.
	pr(`payroll|direct deposit|salary`, Income),
	pr(`restaurant|\bcafe\b|coffee|bakery|diner|pizzeria|\bpizza\b|grill\b`, FoodDining),
	pr(`grocery|supermarket`, FoodDining),
	pr(`gas station|fuel|parking|\btoll\b`, Transportation),
	pr(`electric|water bill|sewer|internet|utility|utilities`, BillsUtilities),
	pr(`interest charge|bank fee|overdraft|brokerage|vanguard|fidelity|robinhood`, Financial),
}
