package category

import (
	"strings"
)

// Input is everything Resolve reads from one transaction. Amount keeps
// the provider sign convention: negative = money in.
type Input struct {
	ProviderCategories []string // most general level first
	MerchantName       string
	Name               string
	Amount             float64
}

// Resolve maps a transaction's raw attributes to a display category.
// Resolution order, first match wins:
//
//  1. user override rules (the RuleSet)
//  2. income short-circuit on inflow-signed amounts
//  3. built-in merchant/keyword pattern table
//  4. provider primary+secondary pair rules
//  5. provider primary-category map
//  6. raw primary provider category, else "Other"
//
// Resolve is pure: same input and rule set, same category.
func Resolve(in Input, overrides *RuleSet) string {
	text := matchText(in.MerchantName, in.Name)

	if c, ok := overrides.match(text); ok {
		return c
	}

	if in.Amount < 0 && looksLikeIncome(in.ProviderCategories, text) {
		return Income
	}

	for _, p := range merchantPatterns {
		if p.expr.MatchString(text) {
			return p.category
		}
	}

	if len(in.ProviderCategories) >= 2 {
		primary := in.ProviderCategories[0]
		secondary := in.ProviderCategories[1]
		if bySecondary, ok := pairRules[primary]; ok {
			if c, ok := bySecondary[secondary]; ok {
				return c
			}
			return pairDefaults[primary]
		}
	}

	if len(in.ProviderCategories) > 0 {
		primary := in.ProviderCategories[0]
		if c, ok := primaryMap[primary]; ok {
			return c
		}
		return primary
	}

	return Other
}

// looksLikeIncome checks the provider category path and the free text
// against the income keyword set.
func looksLikeIncome(providerCategories []string, text string) bool {
	for _, level := range providerCategories {
		lower := strings.ToLower(level)
		for _, kw := range incomeKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	lower := strings.ToLower(text)
	for _, kw := range incomeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func matchText(merchant, name string) string {
	if merchant == "" {
		return name
	}
	return merchant + " " + name
}
