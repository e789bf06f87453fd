package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/christufur/MazzyMoney-sub001/internal/api/middleware"
	"github.com/christufur/MazzyMoney-sub001/internal/budget"
	"github.com/christufur/MazzyMoney-sub001/internal/category"
	"github.com/christufur/MazzyMoney-sub001/internal/domain"
	"github.com/christufur/MazzyMoney-sub001/internal/infra/inmemory"
	jobsinmemory "github.com/christufur/MazzyMoney-sub001/internal/jobs/inmemory"
	"github.com/christufur/MazzyMoney-sub001/internal/learning"
)

const testUser = "user-1"

// do routes a request through the user-identity middleware the way the
// server wires it.
func do(handler http.HandlerFunc, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-User-ID", testUser)

	rec := httptest.NewRecorder()
	middleware.UserID(handler).ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func seedTransaction(t *testing.T, store *inmemory.Store, id, merchant, name, cat string, amount float64, date time.Time) {
	t.Helper()
	tx := &domain.Transaction{
		ID:           id,
		ExternalID:   "ext-" + id,
		UserID:       testUser,
		AccountID:    "acc-1",
		MerchantName: merchant,
		Name:         name,
		Amount:       amount,
		Date:         date,
		Category:     cat,
	}
	if err := store.InsertTransaction(context.Background(), tx); err != nil {
		t.Fatal(err)
	}
}

func TestTransactions_List(t *testing.T) {
	store := inmemory.New()
	h := NewTransactionsHandler(store, store, learning.NewLearner(store, zerolog.Nop()), nil, zerolog.Nop())

	now := time.Now()
	seedTransaction(t, store, "t1", "Starbucks", "STARBUCKS 123", "Food & Dining", 4.50, now.AddDate(0, 0, -1))
	seedTransaction(t, store, "t2", "Netflix", "NETFLIX.COM", "Entertainment", 15.99, now.AddDate(0, 0, -2))
	seedTransaction(t, store, "t3", "Old Corp", "OLD PURCHASE", "Shopping", 99.00, now.AddDate(-2, 0, 0))

	rec := do(h.List, http.MethodGet, "/api/transactions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Count int `json:"count"`
	}
	decode(t, rec, &resp)
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2 (default window is one year)", resp.Count)
	}

	rec = do(h.List, http.MethodGet, "/api/transactions?category=Entertainment", nil)
	decode(t, rec, &resp)
	if resp.Count != 1 {
		t.Errorf("category filter count = %d, want 1", resp.Count)
	}
}

func TestTransactions_ListRejectsBadDate(t *testing.T) {
	store := inmemory.New()
	h := NewTransactionsHandler(store, store, learning.NewLearner(store, zerolog.Nop()), nil, zerolog.Nop())

	rec := do(h.List, http.MethodGet, "/api/transactions?start_date=31-01-2026", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTransactions_SetCategoryLearnsRule(t *testing.T) {
	store := inmemory.New()
	h := NewTransactionsHandler(store, store, learning.NewLearner(store, zerolog.Nop()), nil, zerolog.Nop())

	seedTransaction(t, store, "t1", "Starbucks", "STARBUCKS 123", "Food & Dining", 4.50, time.Now())

	rec := do(h.SetCategory, http.MethodPut, "/api/transactions/t1/category",
		map[string]string{"category": "Entertainment"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	tx, err := store.GetTransaction(context.Background(), testUser, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if tx.Category != "Entertainment" {
		t.Errorf("category = %q, want Entertainment", tx.Category)
	}

	rules, err := store.ListRules(context.Background(), testUser)
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 1 {
		t.Fatalf("rules = %d, want 1 learned from correction", len(rules))
	}
	if rules[0].Category != "Entertainment" {
		t.Errorf("rule category = %q, want Entertainment", rules[0].Category)
	}
}

func TestTransactions_SetCategoryNotFound(t *testing.T) {
	store := inmemory.New()
	h := NewTransactionsHandler(store, store, learning.NewLearner(store, zerolog.Nop()), nil, zerolog.Nop())

	rec := do(h.SetCategory, http.MethodPut, "/api/transactions/missing/category",
		map[string]string{"category": "Entertainment"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

type fixedAdvisor struct{}

func (fixedAdvisor) SuggestCategory(ctx context.Context, merchant, description string, amount float64) (*category.Suggestion, error) {
	return &category.Suggestion{Category: "Travel", Confidence: 0.9}, nil
}

func TestTransactions_Suggestions(t *testing.T) {
	store := inmemory.New()
	h := NewTransactionsHandler(store, store, learning.NewLearner(store, zerolog.Nop()), fixedAdvisor{}, zerolog.Nop())

	seedTransaction(t, store, "t1", "Starbucks", "STARBUCKS 123", "", 4.50, time.Now())

	rec := do(h.Suggestions, http.MethodGet, "/api/transactions/t1/suggestions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Suggestions []suggestionResponse `json:"suggestions"`
	}
	decode(t, rec, &resp)
	if len(resp.Suggestions) == 0 {
		t.Fatal("expected at least one suggestion")
	}
	if resp.Suggestions[0].Category != "Food & Dining" {
		t.Errorf("top local suggestion = %q, want Food & Dining", resp.Suggestions[0].Category)
	}

	last := resp.Suggestions[len(resp.Suggestions)-1]
	if last.Source != "advisor" || last.Category != "Travel" {
		t.Errorf("advisor suggestion = %+v, want Travel from advisor", last)
	}
}

func TestBudgets_CreateAndOverlap(t *testing.T) {
	store := inmemory.New()
	svc := budget.NewService(store, store, zerolog.Nop())
	h := NewBudgetsHandler(svc, zerolog.Nop())

	body := map[string]interface{}{
		"name":       "Groceries",
		"category":   "Groceries",
		"amount":     400.0,
		"period":     "monthly",
		"start_date": "2026-08-01",
	}
	rec := do(h.Create, http.MethodPost, "/api/budgets", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var created budgetResponse
	decode(t, rec, &created)
	if created.EndDate != "2026-08-31" {
		t.Errorf("end_date = %q, want 2026-08-31", created.EndDate)
	}

	// Same category, overlapping window.
	body["start_date"] = "2026-08-15"
	rec = do(h.Create, http.MethodPost, "/api/budgets", body)
	if rec.Code != http.StatusConflict {
		t.Errorf("overlap status = %d, want 409", rec.Code)
	}
}

func TestBudgets_CreateInvalid(t *testing.T) {
	store := inmemory.New()
	h := NewBudgetsHandler(budget.NewService(store, store, zerolog.Nop()), zerolog.Nop())

	rec := do(h.Create, http.MethodPost, "/api/budgets", map[string]interface{}{
		"name":       "Bad",
		"category":   "Groceries",
		"amount":     -5.0,
		"period":     "monthly",
		"start_date": "2026-08-01",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestBudgets_GetNotFound(t *testing.T) {
	store := inmemory.New()
	h := NewBudgetsHandler(budget.NewService(store, store, zerolog.Nop()), zerolog.Nop())

	rec := do(h.Get, http.MethodGet, "/api/budgets/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGoals_CreateAndProgress(t *testing.T) {
	store := inmemory.New()
	h := NewGoalsHandler(store, zerolog.Nop())

	rec := do(h.Create, http.MethodPost, "/api/goals", map[string]interface{}{
		"name":           "Holiday",
		"target_amount":  1000.0,
		"current_amount": 250.0,
		"deadline":       "2027-06-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var created goalResponse
	decode(t, rec, &created)
	if created.PercentComplete != 25 {
		t.Errorf("percent_complete = %v, want 25", created.PercentComplete)
	}
	if created.Remaining != 750 {
		t.Errorf("remaining = %v, want 750", created.Remaining)
	}

	rec = do(h.Get, http.MethodGet, "/api/goals/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d, want 200", rec.Code)
	}
}

func TestGoals_CreateRequiresTarget(t *testing.T) {
	store := inmemory.New()
	h := NewGoalsHandler(store, zerolog.Nop())

	rec := do(h.Create, http.MethodPost, "/api/goals", map[string]interface{}{
		"name":     "No target",
		"deadline": "2027-06-01",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSync_TriggerEnqueues(t *testing.T) {
	jobStore := jobsinmemory.NewStore()
	queue := jobsinmemory.NewQueue(4, jobStore)
	defer queue.Close()

	h := NewSyncHandler(nil, queue, zerolog.Nop())

	rec := do(h.Trigger, http.MethodPost, "/api/sync", map[string]bool{"forced": true})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		JobID string `json:"job_id"`
	}
	decode(t, rec, &resp)
	if resp.JobID == "" {
		t.Fatal("expected a job id")
	}

	job, err := jobStore.GetJob(context.Background(), resp.JobID)
	if err != nil {
		t.Fatal(err)
	}
	if job.UserID != testUser || !job.Forced {
		t.Errorf("stored job = %+v, want user %s forced", job, testUser)
	}
}

func TestSync_TriggerRequiresUser(t *testing.T) {
	jobStore := jobsinmemory.NewStore()
	queue := jobsinmemory.NewQueue(4, jobStore)
	defer queue.Close()

	h := NewSyncHandler(nil, queue, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	rec := httptest.NewRecorder()
	middleware.UserID(http.HandlerFunc(h.Trigger)).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestJobs_Get(t *testing.T) {
	jobStore := jobsinmemory.NewStore()
	queue := jobsinmemory.NewQueue(4, jobStore)
	defer queue.Close()

	sync := NewSyncHandler(nil, queue, zerolog.Nop())
	rec := do(sync.Trigger, http.MethodPost, "/api/sync", nil)

	var created struct {
		JobID string `json:"job_id"`
	}
	decode(t, rec, &created)

	h := NewJobsHandler(jobStore, zerolog.Nop())
	rec = do(h.Get, http.MethodGet, "/api/jobs/"+created.JobID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = do(h.Get, http.MethodGet, "/api/jobs/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing job status = %d, want 404", rec.Code)
	}
}
