package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/christufur/MazzyMoney-sub001/internal/api/middleware"
	"github.com/christufur/MazzyMoney-sub001/internal/domain"
	"github.com/christufur/MazzyMoney-sub001/internal/storage"
)

// GoalsHandler handles savings goal CRUD and progress.
type GoalsHandler struct {
	goals storage.GoalRepository
	log   zerolog.Logger
}

// NewGoalsHandler creates a goals handler.
func NewGoalsHandler(goals storage.GoalRepository, log zerolog.Logger) *GoalsHandler {
	return &GoalsHandler{goals: goals, log: log}
}

type goalRequest struct {
	Name          string  `json:"name"`
	TargetAmount  float64 `json:"target_amount"`
	CurrentAmount float64 `json:"current_amount"`
	Deadline      string  `json:"deadline"`
}

type goalResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	TargetAmount    float64 `json:"target_amount"`
	CurrentAmount   float64 `json:"current_amount"`
	Deadline        string  `json:"deadline"`
	PercentComplete float64 `json:"percent_complete"`
	Remaining       float64 `json:"remaining"`
	Overdue         bool    `json:"overdue"`
}

func toGoalResponse(g *domain.SavingsGoal) goalResponse {
	p := g.Progress(time.Now())
	return goalResponse{
		ID:              g.ID,
		Name:            g.Name,
		TargetAmount:    g.TargetAmount,
		CurrentAmount:   g.CurrentAmount,
		Deadline:        g.Deadline.Format("2006-01-02"),
		PercentComplete: p.PercentComplete,
		Remaining:       p.Remaining,
		Overdue:         p.Overdue,
	}
}

// Create handles POST /api/goals
func (h *GoalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.TargetAmount <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, "name and a positive target_amount are required")
		return
	}

	deadline, err := time.Parse("2006-01-02", req.Deadline)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid deadline (use YYYY-MM-DD)")
		return
	}

	now := time.Now()
	goal := &domain.SavingsGoal{
		ID:            uuid.New().String(),
		UserID:        userID,
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		Deadline:      deadline,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.goals.InsertGoal(r.Context(), goal); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to create goal")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create goal")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, toGoalResponse(goal))
}

// List handles GET /api/goals
func (h *GoalsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	goals, err := h.goals.ListGoals(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to list goals")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list goals")
		return
	}

	resp := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		resp = append(resp, toGoalResponse(g))
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"goals": resp,
		"count": len(resp),
	})
}

// Get handles GET /api/goals/{id}
func (h *GoalsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/goals/")
	if id == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Goal ID is required")
		return
	}

	goal, err := h.goals.GetGoal(r.Context(), userID, id)
	if err != nil {
		if notFound(err) {
			middleware.WriteError(w, http.StatusNotFound, "Goal not found")
			return
		}
		h.log.Error().Err(err).Str("goal_id", id).Msg("Failed to get goal")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get goal")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, toGoalResponse(goal))
}

// Update handles PUT /api/goals/{id}
func (h *GoalsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/goals/")
	if id == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Goal ID is required")
		return
	}

	goal, err := h.goals.GetGoal(r.Context(), userID, id)
	if err != nil {
		if notFound(err) {
			middleware.WriteError(w, http.StatusNotFound, "Goal not found")
			return
		}
		h.log.Error().Err(err).Str("goal_id", id).Msg("Failed to get goal")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update goal")
		return
	}

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name != "" {
		goal.Name = req.Name
	}
	if req.TargetAmount > 0 {
		goal.TargetAmount = req.TargetAmount
	}
	if req.CurrentAmount >= 0 {
		goal.CurrentAmount = req.CurrentAmount
	}
	if req.Deadline != "" {
		deadline, err := time.Parse("2006-01-02", req.Deadline)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid deadline (use YYYY-MM-DD)")
			return
		}
		goal.Deadline = deadline
	}
	goal.UpdatedAt = time.Now()

	if err := h.goals.UpdateGoal(r.Context(), goal); err != nil {
		h.log.Error().Err(err).Str("goal_id", id).Msg("Failed to update goal")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update goal")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, toGoalResponse(goal))
}

// Delete handles DELETE /api/goals/{id}
func (h *GoalsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/goals/")
	if id == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Goal ID is required")
		return
	}

	if err := h.goals.DeleteGoal(r.Context(), userID, id); err != nil {
		if notFound(err) {
			middleware.WriteError(w, http.StatusNotFound, "Goal not found")
			return
		}
		h.log.Error().Err(err).Str("goal_id", id).Msg("Failed to delete goal")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete goal")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
