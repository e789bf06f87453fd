// Package handlers implements the HTTP surface: sync triggers and
// status, transactions and category corrections, budgets, savings
// goals, analytics queries and job status.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/christufur/MazzyMoney-sub001/internal/api/middleware"
	"github.com/christufur/MazzyMoney-sub001/internal/jobs"
	"github.com/christufur/MazzyMoney-sub001/internal/storage"
	"github.com/christufur/MazzyMoney-sub001/internal/syncer"
)

// requireUser pulls the calling user id from the request context and
// rejects the request when it is missing.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.UserFromContext(r.Context())
	if userID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "User ID is required (X-User-ID header or user_id query)")
		return "", false
	}
	return userID, true
}

// notFound reports whether err is a missing-record error, mapped to 404
// as opposed to validation failures.
func notFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}

// SyncHandler handles provider link and sync endpoints.
type SyncHandler struct {
	orchestrator *syncer.Orchestrator
	publisher    jobs.Publisher
	log          zerolog.Logger
}

// NewSyncHandler creates a sync handler.
func NewSyncHandler(orchestrator *syncer.Orchestrator, publisher jobs.Publisher, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
		publisher:    publisher,
		log:          log,
	}
}

// Link handles POST /api/link
func (h *SyncHandler) Link(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		PublicToken   string `json:"public_token"`
		InstitutionID string `json:"institution_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PublicToken == "" {
		middleware.WriteError(w, http.StatusBadRequest, "public_token is required")
		return
	}

	if err := h.orchestrator.Link(r.Context(), userID, req.PublicToken, req.InstitutionID); err != nil {
		if notFound(err) {
			middleware.WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to link provider item")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to link provider item")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "linked"})
}

// Trigger handles POST /api/sync
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Forced bool `json:"forced"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	job := &jobs.SyncUserJob{UserID: userID, Forced: req.Forced}
	if err := h.publisher.PublishSyncUser(r.Context(), job); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to enqueue sync job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue sync")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("user_id", userID).Bool("forced", req.Forced).
		Msg("Sync job enqueued")
	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// SyncNow handles POST /api/sync/now, running the cycle inline and
// returning the structured result. A cycle already in flight for the
// user maps to 409.
func (h *SyncHandler) SyncNow(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	forced := r.URL.Query().Get("forced") == "true"
	result := h.orchestrator.Sync(r.Context(), userID, forced)
	if result.Conflict {
		middleware.WriteJSON(w, http.StatusConflict, result)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}

// Status handles GET /api/sync/status
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	info, err := h.orchestrator.Status(r.Context(), userID)
	if err != nil {
		if notFound(err) {
			middleware.WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to query sync status")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query sync status")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, info)
}

// Disconnect handles POST /api/disconnect
func (h *SyncHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.orchestrator.Disconnect(r.Context(), userID); err != nil {
		if notFound(err) {
			middleware.WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to disconnect provider item")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to disconnect")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}
