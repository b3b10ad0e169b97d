package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/steady/internal/auth"
	"github.com/dukerupert/steady/internal/recovery"
)

type AnalyticsHandler struct {
	analytics *recovery.AnalyticsCounters
	logger    *slog.Logger
}

func NewAnalyticsHandler(analytics *recovery.AnalyticsCounters, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, logger: logger}
}

// Get handles GET /analytics
func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.analytics.Get(r.Context(), auth.AccountID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// RecordPuzzle handles POST /analytics/puzzle
func (h *AnalyticsHandler) RecordPuzzle(w http.ResponseWriter, r *http.Request) {
	a, err := h.analytics.RecordPuzzleCompletion(r.Context(), auth.AccountID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type streakEventRequest struct {
	Action       string `json:"action"`
	StreakLength int    `json:"streakLength"`
}

// RecordStreak handles POST /analytics/streak
func (h *AnalyticsHandler) RecordStreak(w http.ResponseWriter, r *http.Request) {
	var req streakEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	a, err := h.analytics.RecordStreakEvent(r.Context(), auth.AccountID(r.Context()), req.Action, req.StreakLength)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
