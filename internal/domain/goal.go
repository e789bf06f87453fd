package domain

import (
	"time"
)

// SavingsGoal tracks a target amount against what has been saved so far.
// Progress is computed on read, never stored.
type SavingsGoal struct {
	ID            string
	UserID        string
	Name          string
	TargetAmount  float64
	CurrentAmount float64
	Deadline      time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// GoalProgress is the computed view of a savings goal.
type GoalProgress struct {
	PercentComplete float64
	Remaining       float64
	Overdue         bool
}

// Progress computes the goal's progress as of now.
func (g *SavingsGoal) Progress(now time.Time) GoalProgress {
	p := GoalProgress{
		Remaining: g.TargetAmount - g.CurrentAmount,
		Overdue:   now.After(g.Deadline) && g.CurrentAmount < g.TargetAmount,
	}
	if g.TargetAmount > 0 {
		p.PercentComplete = g.CurrentAmount / g.TargetAmount * 100
		if p.PercentComplete > 100 {
			p.PercentComplete = 100
		}
	}
	return p
}
