package category

import (
	"sort"
	"strings"
)

const maxSuggestions = 3

// Suggestion is one candidate category with a confidence in (0, 1].
type Suggestion struct {
	Category   string
	Confidence float64
}

// Suggest returns up to three candidate categories best-first. It is the
// scoring variant of Resolve used by the correction workflow: pattern
// matches are scored by pattern length plus exact-word and repeat
// bonuses, the provider-category fallback is fixed at 0.6, and the
// amount/keyword heuristic at 0.4.
func Suggest(in Input, overrides *RuleSet) []Suggestion {
	text := matchText(in.MerchantName, in.Name)
	best := map[string]float64{}

	record := func(category string, score float64) {
		if category == "" {
			return
		}
		if score > 1.0 {
			score = 1.0
		}
		if score > best[category] {
			best[category] = score
		}
	}

	// A user's own rule is as confident as it gets.
	if c, ok := overrides.match(text); ok {
		record(c, 1.0)
	}

	for _, p := range merchantPatterns {
		matches := p.expr.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}
		score := 0.3 + 0.02*float64(len(p.source))
		if isExactWordMatch(text, matches[0]) {
			score += 0.2
		}
		if len(matches) > 1 {
			score += 0.1 * float64(len(matches)-1)
		}
		record(p.category, score)
	}

	if len(in.ProviderCategories) > 0 {
		if c, ok := primaryMap[in.ProviderCategories[0]]; ok {
			record(c, 0.6)
		} else {
			record(in.ProviderCategories[0], 0.6)
		}
	}

	// Heuristic floor so the list is never empty.
	if in.Amount < 0 && looksLikeIncome(in.ProviderCategories, text) {
		record(Income, 0.4)
	} else {
		record(Other, 0.4)
	}

	out := make([]Suggestion, 0, len(best))
	for c, s := range best {
		out = append(out, Suggestion{Category: c, Confidence: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Category < out[j].Category
	})
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// isExactWordMatch reports whether the matched fragment stands alone as
// a whitespace-delimited word of the text.
func isExactWordMatch(text, match string) bool {
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if w == strings.ToLower(match) {
			return true
		}
	}
	return false
}
