package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/christufur/MazzyMoney-sub001/internal/api/middleware"
	"github.com/christufur/MazzyMoney-sub001/internal/budget"
	"github.com/christufur/MazzyMoney-sub001/internal/domain"
)

// BudgetsHandler handles budget CRUD and spending views.
type BudgetsHandler struct {
	service *budget.Service
	log     zerolog.Logger
}

// NewBudgetsHandler creates a budgets handler.
func NewBudgetsHandler(service *budget.Service, log zerolog.Logger) *BudgetsHandler {
	return &BudgetsHandler{service: service, log: log}
}

type budgetRequest struct {
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Amount    float64 `json:"amount"`
	Period    string  `json:"period"`
	StartDate string  `json:"start_date"`
}

type budgetResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Period      string  `json:"period"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Active      bool    `json:"active"`
	Spent       float64 `json:"spent"`
	Remaining   float64 `json:"remaining"`
	PercentUsed float64 `json:"percent_used"`
}

func toBudgetResponse(b *domain.Budget, s *domain.BudgetSpending) budgetResponse {
	resp := budgetResponse{
		ID:        b.ID,
		Name:      b.Name,
		Category:  b.Category,
		Amount:    b.Amount,
		Period:    string(b.Period),
		StartDate: b.StartDate.Format("2006-01-02"),
		EndDate:   b.EndDate.Format("2006-01-02"),
		Active:    b.Active,
	}
	if s != nil {
		resp.Spent = s.Spent
		resp.Remaining = s.Remaining
		resp.PercentUsed = s.PercentUsed
	}
	return resp
}

func parseBudgetRequest(r *http.Request) (budget.CreateInput, error) {
	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return budget.CreateInput{}, err
	}

	start := time.Time{}
	if req.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return budget.CreateInput{}, err
		}
		start = parsed
	}

	return budget.CreateInput{
		Name:      req.Name,
		Category:  req.Category,
		Amount:    req.Amount,
		Period:    domain.BudgetPeriod(req.Period),
		StartDate: start,
	}, nil
}

// writeBudgetError maps service errors onto HTTP statuses.
func (h *BudgetsHandler) writeBudgetError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, budget.ErrInvalidBudget):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, budget.ErrBudgetOverlap):
		middleware.WriteError(w, http.StatusConflict, err.Error())
	case notFound(err):
		middleware.WriteError(w, http.StatusNotFound, "Budget not found")
	default:
		h.log.Error().Err(err).Msg("Failed to " + action + " budget")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to "+action+" budget")
	}
}

// Create handles POST /api/budgets
func (h *BudgetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	in, err := parseBudgetRequest(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		h.writeBudgetError(w, err, "create")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, toBudgetResponse(b, nil))
}

// List handles GET /api/budgets
func (h *BudgetsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	budgets, spending, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.writeBudgetError(w, err, "list")
		return
	}

	resp := make([]budgetResponse, 0, len(budgets))
	for i, b := range budgets {
		resp = append(resp, toBudgetResponse(b, spending[i]))
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"budgets": resp,
		"count":   len(resp),
	})
}

// Get handles GET /api/budgets/{id}
func (h *BudgetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/budgets/")
	if id == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Budget ID is required")
		return
	}

	b, spending, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		h.writeBudgetError(w, err, "get")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, toBudgetResponse(b, spending))
}

// Update handles PUT /api/budgets/{id}
func (h *BudgetsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/budgets/")
	if id == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Budget ID is required")
		return
	}

	in, err := parseBudgetRequest(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b, err := h.service.Update(r.Context(), userID, id, in)
	if err != nil {
		h.writeBudgetError(w, err, "update")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, toBudgetResponse(b, nil))
}

// Delete handles DELETE /api/budgets/{id}
func (h *BudgetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/budgets/")
	if id == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Budget ID is required")
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		h.writeBudgetError(w, err, "delete")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
