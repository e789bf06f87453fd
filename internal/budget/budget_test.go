package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/christufur/MazzyMoney-sub001/internal/category"
	"github.com/christufur/MazzyMoney-sub001/internal/domain"
	"github.com/christufur/MazzyMoney-sub001/internal/infra/inmemory"
	"github.com/christufur/MazzyMoney-sub001/internal/storage"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPeriodEnd(t *testing.T) {
	tests := []struct {
		name  string
		kind  domain.BudgetPeriod
		start time.Time
		want  time.Time
	}{
		{
			"weekly",
			domain.BudgetPeriodWeekly,
			date(2024, time.March, 4),
			time.Date(2024, time.March, 10, 23, 59, 59, 999_000_000, time.UTC),
		},
		{
			"monthly mid-month",
			domain.BudgetPeriodMonthly,
			date(2024, time.January, 15),
			time.Date(2024, time.January, 31, 23, 59, 59, 999_000_000, time.UTC),
		},
		{
			"monthly leap february",
			domain.BudgetPeriodMonthly,
			date(2024, time.February, 1),
			time.Date(2024, time.February, 29, 23, 59, 59, 999_000_000, time.UTC),
		},
		{
			"quarterly",
			domain.BudgetPeriodQuarterly,
			date(2024, time.January, 15),
			time.Date(2024, time.March, 31, 23, 59, 59, 999_000_000, time.UTC),
		},
		{
			"quarterly across year boundary",
			domain.BudgetPeriodQuarterly,
			date(2024, time.November, 1),
			time.Date(2025, time.January, 31, 23, 59, 59, 999_000_000, time.UTC),
		},
		{
			"yearly",
			domain.BudgetPeriodYearly,
			date(2024, time.June, 10),
			time.Date(2024, time.December, 31, 23, 59, 59, 999_000_000, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PeriodEnd(tt.kind, tt.start)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("PeriodEnd = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := PeriodEnd("fortnightly", date(2024, time.January, 1)); err == nil {
		t.Error("expected error for unknown period kind")
	}
}

// countingTxRepo asserts the out-of-window short-circuit never touches
// the transaction store.
type countingTxRepo struct {
	storage.TransactionRepository
	queries int
}

func (c *countingTxRepo) QueryByCategory(ctx context.Context, userID, cat string, start, end time.Time) ([]*domain.Transaction, error) {
	c.queries++
	return c.TransactionRepository.QueryByCategory(ctx, userID, cat, start, end)
}

func newTestService(t *testing.T, now time.Time) (*Service, *inmemory.Store, *countingTxRepo) {
	t.Helper()
	store := inmemory.New()
	txs := &countingTxRepo{TransactionRepository: store}
	s := NewService(store, txs, zerolog.Nop())
	s.now = func() time.Time { return now }
	return s, store, txs
}

func seedTx(t *testing.T, store *inmemory.Store, id, cat string, amount float64, when time.Time) {
	t.Helper()
	err := store.InsertTransaction(context.Background(), &domain.Transaction{
		ID:       id,
		UserID:   "u1",
		Name:     id,
		Amount:   amount,
		Date:     when,
		Category: cat,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestComputeSpending_OutsideWindowSkipsQuery(t *testing.T) {
	s, store, txs := newTestService(t, date(2024, time.March, 1))
	seedTx(t, store, "t1", category.FoodDining, 50, date(2024, time.January, 10))

	b := &domain.Budget{
		ID: "b1", UserID: "u1", Category: category.FoodDining, Amount: 200,
		StartDate: date(2024, time.January, 1),
		EndDate:   time.Date(2024, time.January, 31, 23, 59, 59, 999_000_000, time.UTC),
		Active:    true,
	}

	got, err := s.ComputeSpending(context.Background(), b)
	if err != nil {
		t.Fatal(err)
	}
	if got.Spent != 0 || got.Remaining != 200 || got.PercentUsed != 0 {
		t.Errorf("spending = %+v, want zero view", got)
	}
	if txs.queries != 0 {
		t.Errorf("transaction store queried %d times for out-of-window budget", txs.queries)
	}
}

func TestComputeSpending_InWindow(t *testing.T) {
	s, store, _ := newTestService(t, date(2024, time.January, 20))
	seedTx(t, store, "t1", category.FoodDining, 50, date(2024, time.January, 10))
	seedTx(t, store, "t2", category.FoodDining, 30, date(2024, time.January, 15))
	seedTx(t, store, "t3", category.FoodDining, -20, date(2024, time.January, 16)) // refund
	seedTx(t, store, "t4", category.Shopping, 500, date(2024, time.January, 12))
	seedTx(t, store, "t5", category.FoodDining, 40, date(2023, time.December, 28)) // before window

	b := &domain.Budget{
		ID: "b1", UserID: "u1", Category: category.FoodDining, Amount: 200,
		StartDate: date(2024, time.January, 1),
		EndDate:   time.Date(2024, time.January, 31, 23, 59, 59, 999_000_000, time.UTC),
		Active:    true,
	}

	got, err := s.ComputeSpending(context.Background(), b)
	if err != nil {
		t.Fatal(err)
	}
	if got.Spent != 80 {
		t.Errorf("spent = %v, want 80 (expense sign only, window only)", got.Spent)
	}
	if got.Remaining != 120 {
		t.Errorf("remaining = %v, want 120", got.Remaining)
	}
	if got.PercentUsed != 40 {
		t.Errorf("percent = %v, want 40", got.PercentUsed)
	}
}

func TestComputeSpending_Overspend(t *testing.T) {
	s, store, _ := newTestService(t, date(2024, time.January, 20))
	seedTx(t, store, "t1", category.FoodDining, 250, date(2024, time.January, 10))

	b := &domain.Budget{
		ID: "b1", UserID: "u1", Category: category.FoodDining, Amount: 200,
		StartDate: date(2024, time.January, 1),
		EndDate:   time.Date(2024, time.January, 31, 23, 59, 59, 999_000_000, time.UTC),
		Active:    true,
	}

	got, err := s.ComputeSpending(context.Background(), b)
	if err != nil {
		t.Fatal(err)
	}
	if got.Remaining != -50 {
		t.Errorf("remaining = %v, want -50 overspend", got.Remaining)
	}
	if got.PercentUsed != 125 {
		t.Errorf("percent = %v, want 125", got.PercentUsed)
	}
}

func TestCreate_DerivesWindow(t *testing.T) {
	s, _, _ := newTestService(t, date(2024, time.January, 5))

	b, err := s.Create(context.Background(), "u1", CreateInput{
		Name:      "Groceries",
		Category:  category.FoodDining,
		Amount:    300,
		Period:    domain.BudgetPeriodMonthly,
		StartDate: date(2024, time.January, 1),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, time.January, 31, 23, 59, 59, 999_000_000, time.UTC)
	if !b.EndDate.Equal(want) {
		t.Errorf("end date = %v, want %v", b.EndDate, want)
	}
	if !b.Active {
		t.Error("new budget must be active")
	}
}

func TestCreate_OverlapRejected(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t, date(2024, time.January, 5))

	if _, err := s.Create(ctx, "u1", CreateInput{
		Name: "January food", Category: category.FoodDining, Amount: 300,
		Period: domain.BudgetPeriodMonthly, StartDate: date(2024, time.January, 1),
	}); err != nil {
		t.Fatal(err)
	}

	_, err := s.Create(ctx, "u1", CreateInput{
		Name: "Mid-January food", Category: category.FoodDining, Amount: 100,
		Period: domain.BudgetPeriodMonthly, StartDate: date(2024, time.January, 15),
	})
	if !errors.Is(err, ErrBudgetOverlap) {
		t.Fatalf("err = %v, want ErrBudgetOverlap", err)
	}

	// Same window, different category is fine.
	if _, err := s.Create(ctx, "u1", CreateInput{
		Name: "January shopping", Category: category.Shopping, Amount: 100,
		Period: domain.BudgetPeriodMonthly, StartDate: date(2024, time.January, 15),
	}); err != nil {
		t.Errorf("different category rejected: %v", err)
	}

	// Next month, same category is fine.
	if _, err := s.Create(ctx, "u1", CreateInput{
		Name: "February food", Category: category.FoodDining, Amount: 300,
		Period: domain.BudgetPeriodMonthly, StartDate: date(2024, time.February, 1),
	}); err != nil {
		t.Errorf("adjacent window rejected: %v", err)
	}
}

func TestCreate_IgnoresInactiveBudgets(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newTestService(t, date(2024, time.January, 5))

	err := store.InsertBudget(ctx, &domain.Budget{
		ID: "old", UserID: "u1", Name: "Old", Category: category.FoodDining, Amount: 100,
		Period:    domain.BudgetPeriodMonthly,
		StartDate: date(2024, time.January, 1),
		EndDate:   time.Date(2024, time.January, 31, 23, 59, 59, 999_000_000, time.UTC),
		Active:    false,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Create(ctx, "u1", CreateInput{
		Name: "New", Category: category.FoodDining, Amount: 300,
		Period: domain.BudgetPeriodMonthly, StartDate: date(2024, time.January, 1),
	}); err != nil {
		t.Errorf("inactive budget blocked creation: %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	base := CreateInput{
		Name: "Food", Category: category.FoodDining, Amount: 100,
		Period: domain.BudgetPeriodMonthly, StartDate: date(2024, time.January, 1),
	}

	tests := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"empty name", func(in *CreateInput) { in.Name = "" }},
		{"empty category", func(in *CreateInput) { in.Category = "" }},
		{"zero amount", func(in *CreateInput) { in.Amount = 0 }},
		{"negative amount", func(in *CreateInput) { in.Amount = -5 }},
		{"unknown period", func(in *CreateInput) { in.Period = "daily" }},
		{"zero start", func(in *CreateInput) { in.StartDate = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store, _ := newTestService(t, date(2024, time.January, 5))
			in := base
			tt.mutate(&in)
			if _, err := s.Create(context.Background(), "u1", in); !errors.Is(err, ErrInvalidBudget) {
				t.Fatalf("err = %v, want ErrInvalidBudget", err)
			}
			budgets, _ := store.ListBudgets(context.Background(), "u1")
			if len(budgets) != 0 {
				t.Error("rejected budget was written")
			}
		})
	}
}

func TestUpdate_ExcludesSelfFromOverlapCheck(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t, date(2024, time.January, 5))

	b, err := s.Create(ctx, "u1", CreateInput{
		Name: "Food", Category: category.FoodDining, Amount: 300,
		Period: domain.BudgetPeriodMonthly, StartDate: date(2024, time.January, 1),
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := s.Update(ctx, "u1", b.ID, CreateInput{
		Name: "Food revised", Category: category.FoodDining, Amount: 350,
		Period: domain.BudgetPeriodMonthly, StartDate: date(2024, time.January, 1),
	})
	if err != nil {
		t.Fatalf("self-overlap blocked update: %v", err)
	}
	if updated.Amount != 350 {
		t.Errorf("amount = %v, want 350", updated.Amount)
	}
}

func TestGet_NotFound(t *testing.T) {
	s, _, _ := newTestService(t, date(2024, time.January, 5))
	_, _, err := s.Get(context.Background(), "u1", "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
