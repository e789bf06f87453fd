package category

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/christufur/MazzyMoney-sub001/internal/domain"
)

// compiledRule is one user override ready for matching. Pattern rules
// carry a compiled expression; literal rules match by case-insensitive
// substring containment.
type compiledRule struct {
	expr     *regexp.Regexp // nil for literal rules
	literal  string         // lower-cased match text for literal rules
	category string
	priority int
}

// RuleSet is an explicit, owned collection of one user's learned
// overrides. It is built once per resolution batch and passed into the
// resolver; there is no process-wide mutable rule state.
type RuleSet struct {
	rules []compiledRule
}

// NewRuleSet compiles the user's rules in match order: priority
// descending, then recency descending. User-supplied patterns are
// untrusted input: a pattern that fails to compile is logged and
// skipped, never fatal to the batch.
func NewRuleSet(rules []*domain.CategoryRule, log zerolog.Logger) *RuleSet {
	ordered := make([]*domain.CategoryRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
	})

	rs := &RuleSet{rules: make([]compiledRule, 0, len(ordered))}
	for _, r := range ordered {
		cr := compiledRule{category: r.Category, priority: r.Priority}
		if r.IsPattern {
			expr, err := regexp.Compile(`(?i)` + r.MatchText)
			if err != nil {
				log.Warn().
					Str("user_id", r.UserID).
					Str("pattern", r.MatchText).
					Err(err).
					Msg("Skipping malformed category rule pattern")
				continue
			}
			cr.expr = expr
		} else {
			cr.literal = strings.ToLower(strings.TrimSpace(r.MatchText))
			if cr.literal == "" {
				continue
			}
		}
		rs.rules = append(rs.rules, cr)
	}
	return rs
}

// Len returns the number of usable rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// match returns the first matching rule's category against the
// concatenated merchant name and transaction name. First match wins.
func (rs *RuleSet) match(text string) (string, bool) {
	if rs == nil {
		return "", false
	}
	lower := strings.ToLower(text)
	for _, r := range rs.rules {
		if r.expr != nil {
			if r.expr.MatchString(text) {
				return r.category, true
			}
			continue
		}
		if strings.Contains(lower, r.literal) {
			return r.category, true
		}
	}
	return "", false
}
