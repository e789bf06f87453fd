// Package budget computes spending against user budget definitions and
// owns their lifecycle, including the period window derivation and the
// no-overlap invariant.
package budget

import (
	"fmt"
	"time"

	"github.com/christufur/MazzyMoney-sub001/internal/domain"
)

// PeriodEnd derives the budget end date from the period kind and start
// date. The end always lands on the last instant of its day:
//
//	weekly    -> start + 6 days
//	monthly   -> last day of the start month
//	quarterly -> last day of the second month after start
//	yearly    -> December 31 of the start year
func PeriodEnd(kind domain.BudgetPeriod, start time.Time) (time.Time, error) {
	switch kind {
	case domain.BudgetPeriodWeekly:
		return endOfDay(start.AddDate(0, 0, 6)), nil
	case domain.BudgetPeriodMonthly:
		// Day zero of the next month is the last day of this one.
		return endOfDay(time.Date(start.Year(), start.Month()+1, 0, 0, 0, 0, 0, start.Location())), nil
	case domain.BudgetPeriodQuarterly:
		return endOfDay(time.Date(start.Year(), start.Month()+3, 0, 0, 0, 0, 0, start.Location())), nil
	case domain.BudgetPeriodYearly:
		return endOfDay(time.Date(start.Year(), time.December, 31, 0, 0, 0, 0, start.Location())), nil
	default:
		return time.Time{}, fmt.Errorf("unknown budget period %q", kind)
	}
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999_000_000, t.Location())
}

// overlaps reports whether two closed windows intersect.
func overlaps(startA, endA, startB, endB time.Time) bool {
	return !startA.After(endB) && !startB.After(endA)
}
