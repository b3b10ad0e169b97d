package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/steady/internal/auth"
	"github.com/dukerupert/steady/internal/model"
	"github.com/dukerupert/steady/internal/recovery"
)

// Roster answers whether a doctor treats a patient.
type Roster interface {
	HasPatient(ctx context.Context, doctorID, patientID int64) (bool, error)
}

type StreakHandler struct {
	streaks *recovery.StreakEngine
	roster  Roster
	logger  *slog.Logger
}

func NewStreakHandler(streaks *recovery.StreakEngine, roster Roster, logger *slog.Logger) *StreakHandler {
	return &StreakHandler{streaks: streaks, roster: roster, logger: logger}
}

type streakResponse struct {
	Message        string      `json:"message,omitempty"`
	SobrietyStreak int         `json:"sobrietyStreak"`
	StreakHistory  []time.Time `json:"streakHistory,omitempty"`
	LastUpdated    *time.Time  `json:"lastUpdated,omitempty"`
}

// Start handles POST /streak/start
func (h *StreakHandler) Start(w http.ResponseWriter, r *http.Request) {
	st, err := h.streaks.Start(r.Context(), auth.AccountID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, streakResponse{
		Message:        "New sobriety streak started successfully",
		SobrietyStreak: st.SobrietyStreak,
		LastUpdated:    st.LastUpdated,
	})
}

// Continue handles POST /streak/continue
func (h *StreakHandler) Continue(w http.ResponseWriter, r *http.Request) {
	st, err := h.streaks.Continue(r.Context(), auth.AccountID(r.Context()))
	if errors.Is(err, recovery.ErrAlreadyUpdatedToday) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":          recovery.Message(err),
			"sobrietyStreak": st.SobrietyStreak,
		})
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, streakResponse{
		Message:        "Streak continued successfully",
		SobrietyStreak: st.SobrietyStreak,
		LastUpdated:    st.LastUpdated,
	})
}

// End handles POST /streak/end
func (h *StreakHandler) End(w http.ResponseWriter, r *http.Request) {
	res, err := h.streaks.End(r.Context(), auth.AccountID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":           "Streak ended successfully",
		"finalStreakLength": res.FinalStreakLength,
		"rewards":           res.Rewards,
	})
}

// Patient handles GET /streak/patient
func (h *StreakHandler) Patient(w http.ResponseWriter, r *http.Request) {
	st, err := h.streaks.Get(r.Context(), auth.AccountID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// profileTarget resolves the {id} patient and checks the caller may act on
// it: the patient, or a doctor whose roster lists the patient.
func (h *StreakHandler) profileTarget(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	ac, _ := auth.FromContext(r.Context())
	if ac.AccountID == id {
		return id, true
	}
	if ac.Role == model.RoleDoctor {
		ok, err := h.roster.HasPatient(r.Context(), ac.AccountID, id)
		if err != nil {
			h.logger.Error("check roster", "doctor_id", ac.AccountID, "patient_id", id, "error", err)
			writeMessage(w, http.StatusInternalServerError, "internal server error")
			return 0, false
		}
		if ok {
			return id, true
		}
	}
	writeMessage(w, http.StatusForbidden, "Forbidden")
	return 0, false
}

// ProfileUpdate handles POST /patients/{id}/streak
func (h *StreakHandler) ProfileUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.profileTarget(w, r)
	if !ok {
		return
	}
	st, err := h.streaks.UpdateFromProfile(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, streakResponse{
		Message:        "Sobriety streak updated successfully!",
		SobrietyStreak: st.SobrietyStreak,
		StreakHistory:  st.StreakHistory,
	})
}

// ProfileStreak handles GET /patients/{id}/streak
func (h *StreakHandler) ProfileStreak(w http.ResponseWriter, r *http.Request) {
	id, ok := h.profileTarget(w, r)
	if !ok {
		return
	}
	st, err := h.streaks.ProfileStreak(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sobrietyStreak": st.SobrietyStreak,
		"lastUpdated":    st.LastUpdated,
	})
}

// ProfileHistory handles GET /patients/{id}/streak/history
func (h *StreakHandler) ProfileHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.profileTarget(w, r)
	if !ok {
		return
	}
	st, err := h.streaks.ProfileHistory(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sobrietyStreak": st.SobrietyStreak,
		"streakHistory":  st.StreakHistory,
	})
}
