package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/christufur/MazzyMoney-sub001/internal/domain"
	"github.com/christufur/MazzyMoney-sub001/internal/storage"
)

var (
	// ErrBudgetOverlap is returned when an active budget for the same
	// category already covers part of the requested window.
	ErrBudgetOverlap = errors.New("budget window overlaps an existing active budget")

	// ErrInvalidBudget is returned for validation failures. Callers
	// distinguish it from not-found and overlap errors.
	ErrInvalidBudget = errors.New("invalid budget")
)

// Service owns budget lifecycle and spending computation.
type Service struct {
	budgets      storage.BudgetRepository
	transactions storage.TransactionRepository
	log          zerolog.Logger

	now func() time.Time
}

// NewService creates a budget service.
func NewService(budgets storage.BudgetRepository, transactions storage.TransactionRepository, log zerolog.Logger) *Service {
	return &Service{
		budgets:      budgets,
		transactions: transactions,
		log:          log,
		now:          time.Now,
	}
}

// CreateInput is the caller-supplied part of a budget definition; the
// end date is always derived, never accepted.
type CreateInput struct {
	Name      string
	Category  string
	Amount    float64
	Period    domain.BudgetPeriod
	StartDate time.Time
}

// Create validates the definition, derives the period window, enforces
// the no-overlap invariant and stores the budget. Nothing is written on
// rejection.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*domain.Budget, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	end, err := PeriodEnd(in.Period, in.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBudget, err)
	}

	if err := s.checkOverlap(ctx, userID, "", in.Category, in.StartDate, end); err != nil {
		return nil, err
	}

	now := s.now()
	budget := &domain.Budget{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      in.Name,
		Category:  in.Category,
		Amount:    in.Amount,
		Period:    in.Period,
		StartDate: in.StartDate,
		EndDate:   end,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.budgets.InsertBudget(ctx, budget); err != nil {
		return nil, fmt.Errorf("insert budget: %w", err)
	}

	s.log.Info().Str("user_id", userID).Str("budget_id", budget.ID).
		Str("category", budget.Category).Str("period", string(budget.Period)).
		Msg("Created budget")
	return budget, nil
}

// Update replaces the mutable definition of an existing budget,
// re-deriving the window and re-checking overlap against the other
// active budgets.
func (s *Service) Update(ctx context.Context, userID, budgetID string, in CreateInput) (*domain.Budget, error) {
	current, err := s.budgets.GetBudget(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	end, err := PeriodEnd(in.Period, in.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBudget, err)
	}

	if current.Active {
		if err := s.checkOverlap(ctx, userID, budgetID, in.Category, in.StartDate, end); err != nil {
			return nil, err
		}
	}

	current.Name = in.Name
	current.Category = in.Category
	current.Amount = in.Amount
	current.Period = in.Period
	current.StartDate = in.StartDate
	current.EndDate = end
	current.UpdatedAt = s.now()
	if err := s.budgets.UpdateBudget(ctx, current); err != nil {
		return nil, fmt.Errorf("update budget: %w", err)
	}
	return current, nil
}

// Get returns one budget with its computed spending.
func (s *Service) Get(ctx context.Context, userID, budgetID string) (*domain.Budget, *domain.BudgetSpending, error) {
	budget, err := s.budgets.GetBudget(ctx, userID, budgetID)
	if err != nil {
		return nil, nil, err
	}
	spending, err := s.ComputeSpending(ctx, budget)
	if err != nil {
		return nil, nil, err
	}
	return budget, spending, nil
}

// List returns the user's budgets, each with computed spending.
func (s *Service) List(ctx context.Context, userID string) ([]*domain.Budget, []*domain.BudgetSpending, error) {
	budgets, err := s.budgets.ListBudgets(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	spendings := make([]*domain.BudgetSpending, len(budgets))
	for i, b := range budgets {
		sp, err := s.ComputeSpending(ctx, b)
		if err != nil {
			return nil, nil, err
		}
		spendings[i] = sp
	}
	return budgets, spendings, nil
}

// Delete removes one budget.
func (s *Service) Delete(ctx context.Context, userID, budgetID string) error {
	return s.budgets.DeleteBudget(ctx, userID, budgetID)
}

// ComputeSpending sums the budget category's expense transactions
// inside the window. When evaluation time falls outside the window the
// zero view is returned without touching the transaction store.
func (s *Service) ComputeSpending(ctx context.Context, budget *domain.Budget) (*domain.BudgetSpending, error) {
	now := s.now()
	end := budget.EndDate
	if end.IsZero() {
		end = now
	}
	if now.Before(budget.StartDate) || now.After(end) {
		return &domain.BudgetSpending{Spent: 0, Remaining: budget.Amount, PercentUsed: 0}, nil
	}

	txs, err := s.transactions.QueryByCategory(ctx, budget.UserID, budget.Category, budget.StartDate, end)
	if err != nil {
		return nil, fmt.Errorf("query budget transactions: %w", err)
	}

	var spent float64
	for _, tx := range txs {
		// Expense sign only; refunds and income do not reduce spend.
		if tx.Amount > 0 {
			spent += tx.Amount
		}
	}

	percent := 0.0
	if budget.Amount != 0 {
		percent = spent / budget.Amount * 100
	}
	return &domain.BudgetSpending{
		Spent:       spent,
		Remaining:   budget.Amount - spent,
		PercentUsed: percent,
	}, nil
}

// RecomputeForUser refreshes spending for every active budget after a
// sync. Overspend is logged; the first storage failure aborts.
func (s *Service) RecomputeForUser(ctx context.Context, userID string) error {
	budgets, err := s.budgets.ListBudgets(ctx, userID)
	if err != nil {
		return fmt.Errorf("list budgets: %w", err)
	}

	for _, b := range budgets {
		if !b.Active {
			continue
		}
		spending, err := s.ComputeSpending(ctx, b)
		if err != nil {
			return fmt.Errorf("recompute budget %s: %w", b.ID, err)
		}
		if spending.Remaining < 0 {
			s.log.Warn().Str("user_id", userID).Str("budget_id", b.ID).
				Str("category", b.Category).
				Float64("spent", spending.Spent).
				Float64("amount", b.Amount).
				Msg("Budget overspent")
		}
	}
	return nil
}

func (s *Service) checkOverlap(ctx context.Context, userID, excludeID, category string, start, end time.Time) error {
	active, err := s.budgets.ListActiveByCategory(ctx, userID, category)
	if err != nil {
		return fmt.Errorf("overlap check: %w", err)
	}
	for _, other := range active {
		if other.ID == excludeID {
			continue
		}
		otherEnd := other.EndDate
		if otherEnd.IsZero() {
			otherEnd = end
		}
		if overlaps(start, end, other.StartDate, otherEnd) {
			return fmt.Errorf("%w: %s conflicts with budget %q (%s..%s)",
				ErrBudgetOverlap, category, other.Name,
				other.StartDate.Format("2006-01-02"), otherEnd.Format("2006-01-02"))
		}
	}
	return nil
}

func validate(in CreateInput) error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidBudget)
	}
	if in.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidBudget)
	}
	if in.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidBudget)
	}
	if !in.Period.Valid() {
		return fmt.Errorf("%w: unknown period %q", ErrInvalidBudget, in.Period)
	}
	if in.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidBudget)
	}
	return nil
}
