package domain

import (
	"time"
)

// BudgetPeriod represents the period kind for a budget.
type BudgetPeriod string

const (
	BudgetPeriodWeekly    BudgetPeriod = "weekly"
	BudgetPeriodMonthly   BudgetPeriod = "monthly"
	BudgetPeriodQuarterly BudgetPeriod = "quarterly"
	BudgetPeriodYearly    BudgetPeriod = "yearly"
)

// Valid reports whether p is one of the known period kinds.
func (p BudgetPeriod) Valid() bool {
	switch p {
	case BudgetPeriodWeekly, BudgetPeriodMonthly, BudgetPeriodQuarterly, BudgetPeriodYearly:
		return true
	}
	return false
}

// Budget is a spending limit for one display category over a period
// window. For a given user and category, no two active budgets may have
// overlapping [StartDate, EndDate] windows.
type Budget struct {
	ID       string
	UserID   string
	Name     string
	Category string
	Amount   float64
	Period   BudgetPeriod

	StartDate time.Time
	EndDate   time.Time // derived from Period and StartDate

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BudgetSpending is the computed view of a budget against its
// transactions, recomputed whenever transaction data changes.
type BudgetSpending struct {
	Spent       float64
	Remaining   float64 // negative signals overspend
	PercentUsed float64
}
