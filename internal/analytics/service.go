// Package analytics derives trends, insights, rankings and forecasts
// from the categorized transaction set. It is a read-only consumer of
// the transaction store.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/christufur/MazzyMoney-sub001/internal/storage"
)

const (
	// Month-over-month change thresholds for insight severity.
	mediumChangePercent = 20
	highChangePercent   = 50

	// Trailing window for the spending forecast.
	forecastWindowMonths = 6

	monthKeyLayout = "2006-01"
)

// Service answers analytics queries for one user at a time.
type Service struct {
	transactions storage.TransactionRepository
	log          zerolog.Logger

	now func() time.Time
}

// NewService creates an analytics service.
func NewService(transactions storage.TransactionRepository, log zerolog.Logger) *Service {
	return &Service{
		transactions: transactions,
		log:          log,
		now:          time.Now,
	}
}

// MonthlyCategoryTotal is total expense spend for one category in one
// calendar month.
type MonthlyCategoryTotal struct {
	Month    string  `json:"month"` // YYYY-MM
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// Insight flags a significant month-over-month spending change.
type Insight struct {
	Category      string  `json:"category"`
	Severity      string  `json:"severity"` // "medium" or "high"
	PreviousTotal float64 `json:"previous_total"`
	CurrentTotal  float64 `json:"current_total"`
	ChangePercent float64 `json:"change_percent"`
}

// MerchantRanking is one entry of the top-merchant list.
type MerchantRanking struct {
	Merchant     string   `json:"merchant"`
	TotalSpent   float64  `json:"total_spent"`
	Transactions int      `json:"transactions"`
	AverageSpent float64  `json:"average_spent"`
	Categories   []string `json:"categories"`
}

// DayOfWeekSpend aggregates expense spend by weekday.
type DayOfWeekSpend struct {
	Day          string  `json:"day"`
	Total        float64 `json:"total"`
	Transactions int     `json:"transactions"`
	Average      float64 `json:"average"`
}

// MonthSummary is one month of a yearly report.
type MonthSummary struct {
	Month       string  `json:"month"` // YYYY-MM
	Income      float64 `json:"income"`
	Expenses    float64 `json:"expenses"`
	Net         float64 `json:"net"`
	TopCategory string  `json:"top_category,omitempty"`
}

// YearSummary is the full-year income/expense report.
type YearSummary struct {
	Year          int            `json:"year"`
	Months        []MonthSummary `json:"months"`
	TotalIncome   float64        `json:"total_income"`
	TotalExpenses float64        `json:"total_expenses"`
	Net           float64        `json:"net"`
}

// CategoryForecast projects next-month spend for one category from the
// trailing-window average. Confidence grows with the number of months
// of data, capped at 1.0 once the window is fully populated.
type CategoryForecast struct {
	Category         string  `json:"category"`
	ProjectedMonthly float64 `json:"projected_monthly"`
	MonthsOfData     int     `json:"months_of_data"`
	Confidence       float64 `json:"confidence"`
}

// MonthlyCategoryTotals returns expense totals per category per month
// over the trailing window, oldest month first.
func (s *Service) MonthlyCategoryTotals(ctx context.Context, userID string, months int) ([]MonthlyCategoryTotal, error) {
	if months <= 0 {
		months = forecastWindowMonths
	}
	end := s.now()
	start := monthStart(end).AddDate(0, -(months - 1), 0)

	txs, err := s.transactions.QueryByDateRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}

	totals := make(map[string]map[string]float64)
	for _, tx := range txs {
		if tx.Amount <= 0 {
			continue
		}
		month := tx.Date.Format(monthKeyLayout)
		if totals[month] == nil {
			totals[month] = make(map[string]float64)
		}
		totals[month][tx.Category] += tx.Amount
	}

	var out []MonthlyCategoryTotal
	for month, byCategory := range totals {
		for cat, total := range byCategory {
			out = append(out, MonthlyCategoryTotal{Month: month, Category: cat, Total: total})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// Insights compares the current calendar month against the previous one
// per category and flags changes beyond the significance thresholds. A
// category with no spend in the previous month is treated as a 0%
// change and never flagged.
func (s *Service) Insights(ctx context.Context, userID string) ([]Insight, error) {
	now := s.now()
	currentStart := monthStart(now)
	previousStart := currentStart.AddDate(0, -1, 0)

	txs, err := s.transactions.QueryByDateRange(ctx, userID, previousStart, now)
	if err != nil {
		return nil, fmt.Errorf("insights: %w", err)
	}

	previous := make(map[string]float64)
	current := make(map[string]float64)
	for _, tx := range txs {
		if tx.Amount <= 0 {
			continue
		}
		if tx.Date.Before(currentStart) {
			previous[tx.Category] += tx.Amount
		} else {
			current[tx.Category] += tx.Amount
		}
	}

	var out []Insight
	for cat, cur := range current {
		prev := previous[cat]
		if prev == 0 {
			continue
		}
		change := (cur - prev) / prev * 100
		severity := ""
		switch {
		case change > highChangePercent:
			severity = "high"
		case change > mediumChangePercent:
			severity = "medium"
		default:
			continue
		}
		out = append(out, Insight{
			Category:      cat,
			Severity:      severity,
			PreviousTotal: prev,
			CurrentTotal:  cur,
			ChangePercent: change,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ChangePercent != out[j].ChangePercent {
			return out[i].ChangePercent > out[j].ChangePercent
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// TopMerchants ranks merchants by total expense spend over the trailing
// window, with each merchant's category set and average spend.
func (s *Service) TopMerchants(ctx context.Context, userID string, limit, months int) ([]MerchantRanking, error) {
	if limit <= 0 {
		limit = 10
	}
	if months <= 0 {
		months = forecastWindowMonths
	}
	end := s.now()
	start := end.AddDate(0, -months, 0)

	txs, err := s.transactions.QueryByDateRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("top merchants: %w", err)
	}

	type acc struct {
		total      float64
		count      int
		categories map[string]bool
	}
	byMerchant := make(map[string]*acc)
	for _, tx := range txs {
		if tx.Amount <= 0 {
			continue
		}
		merchant := tx.MerchantName
		if merchant == "" {
			merchant = tx.Name
		}
		if merchant == "" {
			continue
		}
		a := byMerchant[merchant]
		if a == nil {
			a = &acc{categories: make(map[string]bool)}
			byMerchant[merchant] = a
		}
		a.total += tx.Amount
		a.count++
		if tx.Category != "" {
			a.categories[tx.Category] = true
		}
	}

	out := make([]MerchantRanking, 0, len(byMerchant))
	for merchant, a := range byMerchant {
		categories := make([]string, 0, len(a.categories))
		for cat := range a.categories {
			categories = append(categories, cat)
		}
		sort.Strings(categories)
		out = append(out, MerchantRanking{
			Merchant:     merchant,
			TotalSpent:   a.total,
			Transactions: a.count,
			AverageSpent: a.total / float64(a.count),
			Categories:   categories,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalSpent != out[j].TotalSpent {
			return out[i].TotalSpent > out[j].TotalSpent
		}
		return out[i].Merchant < out[j].Merchant
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SpendByDayOfWeek aggregates expense spend per weekday over the
// trailing window, ordered Sunday through Saturday.
func (s *Service) SpendByDayOfWeek(ctx context.Context, userID string, months int) ([]DayOfWeekSpend, error) {
	if months <= 0 {
		months = forecastWindowMonths
	}
	end := s.now()
	start := end.AddDate(0, -months, 0)

	txs, err := s.transactions.QueryByDateRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("day of week: %w", err)
	}

	var totals [7]float64
	var counts [7]int
	for _, tx := range txs {
		if tx.Amount <= 0 {
			continue
		}
		d := tx.Date.Weekday()
		totals[d] += tx.Amount
		counts[d]++
	}

	out := make([]DayOfWeekSpend, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		avg := 0.0
		if counts[d] > 0 {
			avg = totals[d] / float64(counts[d])
		}
		out[d] = DayOfWeekSpend{
			Day:          d.String(),
			Total:        totals[d],
			Transactions: counts[d],
			Average:      avg,
		}
	}
	return out, nil
}

// Yearly builds the full-year monthly income/expense/net summary with a
// per-month top expense category.
func (s *Service) Yearly(ctx context.Context, userID string, year int) (*YearSummary, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 23, 59, 59, 999_000_000, time.UTC)

	txs, err := s.transactions.QueryByDateRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("yearly summary: %w", err)
	}

	summary := &YearSummary{Year: year, Months: make([]MonthSummary, 12)}
	topByMonth := make([]map[string]float64, 12)
	for m := 0; m < 12; m++ {
		summary.Months[m].Month = fmt.Sprintf("%04d-%02d", year, m+1)
		topByMonth[m] = make(map[string]float64)
	}

	for _, tx := range txs {
		m := int(tx.Date.Month()) - 1
		if tx.Amount < 0 {
			summary.Months[m].Income += -tx.Amount
			continue
		}
		summary.Months[m].Expenses += tx.Amount
		if tx.Category != "" {
			topByMonth[m][tx.Category] += tx.Amount
		}
	}

	for m := 0; m < 12; m++ {
		ms := &summary.Months[m]
		ms.Net = ms.Income - ms.Expenses
		top, best := "", 0.0
		for cat, total := range topByMonth[m] {
			if total > best || (total == best && cat < top) {
				top, best = cat, total
			}
		}
		ms.TopCategory = top
		summary.TotalIncome += ms.Income
		summary.TotalExpenses += ms.Expenses
	}
	summary.Net = summary.TotalIncome - summary.TotalExpenses
	return summary, nil
}

// Forecast averages per-category monthly spend over the trailing
// window. Confidence is monthsOfData/window, capped at 1.0.
func (s *Service) Forecast(ctx context.Context, userID string) ([]CategoryForecast, error) {
	end := s.now()
	start := monthStart(end).AddDate(0, -forecastWindowMonths, 0)

	// The current partial month is excluded from the average.
	txs, err := s.transactions.QueryByDateRange(ctx, userID, start, monthStart(end).Add(-time.Nanosecond))
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}

	totals := make(map[string]float64)
	monthsSeen := make(map[string]map[string]bool)
	for _, tx := range txs {
		if tx.Amount <= 0 || tx.Category == "" {
			continue
		}
		totals[tx.Category] += tx.Amount
		if monthsSeen[tx.Category] == nil {
			monthsSeen[tx.Category] = make(map[string]bool)
		}
		monthsSeen[tx.Category][tx.Date.Format(monthKeyLayout)] = true
	}

	out := make([]CategoryForecast, 0, len(totals))
	for cat, total := range totals {
		months := len(monthsSeen[cat])
		confidence := float64(months) / forecastWindowMonths
		if confidence > 1 {
			confidence = 1
		}
		out = append(out, CategoryForecast{
			Category:         cat,
			ProjectedMonthly: total / float64(months),
			MonthsOfData:     months,
			Confidence:       confidence,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProjectedMonthly != out[j].ProjectedMonthly {
			return out[i].ProjectedMonthly > out[j].ProjectedMonthly
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
