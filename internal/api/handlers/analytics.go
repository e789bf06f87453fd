package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/christufur/MazzyMoney-sub001/internal/analytics"
	"github.com/christufur/MazzyMoney-sub001/internal/api/middleware"
)

// AnalyticsHandler exposes the read-only aggregation queries.
type AnalyticsHandler struct {
	service *analytics.Service
	log     zerolog.Logger
}

// NewAnalyticsHandler creates an analytics handler.
func NewAnalyticsHandler(service *analytics.Service, log zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, log: log}
}

// intQuery reads an integer query parameter, falling back to def when
// missing or malformed.
func intQuery(r *http.Request, name string, def int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Monthly handles GET /api/analytics/monthly
func (h *AnalyticsHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	months := intQuery(r, "months", 6)
	totals, err := h.service.MonthlyCategoryTotals(r.Context(), userID, months)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to compute monthly totals")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute monthly totals")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"monthly": totals})
}

// Insights handles GET /api/analytics/insights
func (h *AnalyticsHandler) Insights(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	insights, err := h.service.Insights(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to compute insights")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute insights")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"insights": insights})
}

// Merchants handles GET /api/analytics/merchants
func (h *AnalyticsHandler) Merchants(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit := intQuery(r, "limit", 10)
	months := intQuery(r, "months", 3)
	merchants, err := h.service.TopMerchants(r.Context(), userID, limit, months)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to rank merchants")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to rank merchants")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"merchants": merchants})
}

// Weekdays handles GET /api/analytics/weekdays
func (h *AnalyticsHandler) Weekdays(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	months := intQuery(r, "months", 3)
	days, err := h.service.SpendByDayOfWeek(r.Context(), userID, months)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to compute weekday spend")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute weekday spend")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"weekdays": days})
}

// Yearly handles GET /api/analytics/yearly
func (h *AnalyticsHandler) Yearly(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	year := intQuery(r, "year", time.Now().Year())
	summary, err := h.service.Yearly(r.Context(), userID, year)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Int("year", year).Msg("Failed to compute yearly summary")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute yearly summary")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, summary)
}

// Forecast handles GET /api/analytics/forecast
func (h *AnalyticsHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	forecasts, err := h.service.Forecast(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to compute forecast")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute forecast")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"forecast": forecasts})
}
