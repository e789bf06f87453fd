package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/christufur/MazzyMoney-sub001/internal/api/middleware"
	"github.com/christufur/MazzyMoney-sub001/internal/category"
	"github.com/christufur/MazzyMoney-sub001/internal/domain"
	"github.com/christufur/MazzyMoney-sub001/internal/learning"
	"github.com/christufur/MazzyMoney-sub001/internal/storage"
)

// CategoryAdvisor is an optional model-backed suggestion source. When
// unset, suggestions come from the local scorer only.
type CategoryAdvisor interface {
	SuggestCategory(ctx context.Context, merchant, description string, amount float64) (*category.Suggestion, error)
}

// TransactionsHandler handles transaction listing, category corrections
// and category suggestions.
type TransactionsHandler struct {
	transactions storage.TransactionRepository
	rules        storage.RuleRepository
	learner      *learning.Learner
	advisor      CategoryAdvisor
	log          zerolog.Logger
}

// NewTransactionsHandler creates a transactions handler. advisor may be
// nil.
func NewTransactionsHandler(transactions storage.TransactionRepository, rules storage.RuleRepository, learner *learning.Learner, advisor CategoryAdvisor, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		transactions: transactions,
		rules:        rules,
		learner:      learner,
		advisor:      advisor,
		log:          log,
	}
}

type transactionResponse struct {
	ID                 string    `json:"id"`
	AccountID          string    `json:"account_id"`
	MerchantName       string    `json:"merchant_name,omitempty"`
	Name               string    `json:"name"`
	Amount             float64   `json:"amount"`
	Date               string    `json:"date"`
	AuthorizedDate     *string   `json:"authorized_date,omitempty"`
	ProviderCategories []string  `json:"provider_categories,omitempty"`
	Category           string    `json:"category"`
	Subcategory        string    `json:"subcategory,omitempty"`
	Pending            bool      `json:"pending"`
	LocationCity       string    `json:"location_city,omitempty"`
	LocationRegion     string    `json:"location_region,omitempty"`
	Notes              string    `json:"notes,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toTransactionResponse(tx *domain.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:                 tx.ID,
		AccountID:          tx.AccountID,
		MerchantName:       tx.MerchantName,
		Name:               tx.Name,
		Amount:             tx.Amount,
		Date:               tx.Date.Format("2006-01-02"),
		ProviderCategories: tx.ProviderCategories,
		Category:           tx.Category,
		Subcategory:        tx.Subcategory,
		Pending:            tx.Pending,
		LocationCity:       tx.LocationCity,
		LocationRegion:     tx.LocationRegion,
		Notes:              tx.Notes,
		CreatedAt:          tx.CreatedAt,
		UpdatedAt:          tx.UpdatedAt,
	}
	if tx.AuthorizedDate != nil {
		d := tx.AuthorizedDate.Format("2006-01-02")
		resp.AuthorizedDate = &d
	}
	return resp
}

// parseDateRange reads start_date and end_date query parameters in
// YYYY-MM-DD form. Missing values default to the last year.
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	start := now.AddDate(-1, 0, 0)
	end := now

	if s := r.URL.Query().Get("start_date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = parsed
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		// Include the whole end day.
		end = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return start, end, nil
}

// List handles GET /api/transactions
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	start, end, err := parseDateRange(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)")
		return
	}

	var txs []*domain.Transaction
	if cat := r.URL.Query().Get("category"); cat != "" {
		txs, err = h.transactions.QueryByCategory(r.Context(), userID, cat, start, end)
	} else {
		txs, err = h.transactions.QueryByDateRange(r.Context(), userID, start, end)
	}
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	limit := len(txs)
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < limit {
			limit = n
		}
	}

	resp := make([]transactionResponse, 0, limit)
	for _, tx := range txs[:limit] {
		resp = append(resp, toTransactionResponse(tx))
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": resp,
		"count":        len(resp),
	})
}

// Get handles GET /api/transactions/{id}
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	if id == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Transaction ID is required")
		return
	}

	tx, err := h.transactions.GetTransaction(r.Context(), userID, id)
	if err != nil {
		if notFound(err) {
			middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.log.Error().Err(err).Str("transaction_id", id).Msg("Failed to get transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, toTransactionResponse(tx))
}

// SetCategory handles PUT /api/transactions/{id}/category. The correction
// is stored on the transaction and fed into the learner so future
// transactions from the same merchant pick it up.
func (h *TransactionsHandler) SetCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	id = strings.TrimSuffix(id, "/category")
	if id == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Transaction ID is required")
		return
	}

	var req struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Category == "" {
		middleware.WriteError(w, http.StatusBadRequest, "category is required")
		return
	}

	tx, err := h.transactions.GetTransaction(r.Context(), userID, id)
	if err != nil {
		if notFound(err) {
			middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.log.Error().Err(err).Str("transaction_id", id).Msg("Failed to get transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update category")
		return
	}

	if err := h.transactions.SetCategory(r.Context(), userID, id, req.Category); err != nil {
		h.log.Error().Err(err).Str("transaction_id", id).Msg("Failed to update category")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update category")
		return
	}

	// A failed rule write does not undo the stored correction.
	if err := h.learner.Learn(r.Context(), userID, tx.MerchantName, tx.Name, req.Category); err != nil {
		h.log.Warn().Err(err).Str("transaction_id", id).Msg("Failed to learn from correction")
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"id":       id,
		"category": req.Category,
	})
}

type suggestionResponse struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// Suggestions handles GET /api/transactions/{id}/suggestions, returning
// candidate categories from the local scorer plus, when configured, the
// model advisor.
func (h *TransactionsHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	id = strings.TrimSuffix(id, "/suggestions")
	if id == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Transaction ID is required")
		return
	}

	tx, err := h.transactions.GetTransaction(r.Context(), userID, id)
	if err != nil {
		if notFound(err) {
			middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.log.Error().Err(err).Str("transaction_id", id).Msg("Failed to get transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute suggestions")
		return
	}

	rules, err := h.rules.ListRules(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to load rules")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute suggestions")
		return
	}
	overrides := category.NewRuleSet(rules, h.log)

	local := category.Suggest(category.Input{
		ProviderCategories: tx.ProviderCategories,
		MerchantName:       tx.MerchantName,
		Name:               tx.Name,
		Amount:             tx.Amount,
	}, overrides)

	resp := make([]suggestionResponse, 0, len(local)+1)
	for _, s := range local {
		resp = append(resp, suggestionResponse{
			Category:   s.Category,
			Confidence: s.Confidence,
			Source:     "local",
		})
	}

	if h.advisor != nil {
		if s, err := h.advisor.SuggestCategory(r.Context(), tx.MerchantName, tx.Name, tx.Amount); err != nil {
			h.log.Warn().Err(err).Str("transaction_id", id).Msg("Advisor suggestion failed")
		} else if s != nil {
			resp = append(resp, suggestionResponse{
				Category:   s.Category,
				Confidence: s.Confidence,
				Source:     "advisor",
			})
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transaction_id": id,
		"suggestions":    resp,
	})
}
