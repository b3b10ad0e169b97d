package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/steady/internal/auth"
	"github.com/dukerupert/steady/internal/recovery"
	"github.com/dukerupert/steady/internal/store"
)

type EmergencyHandler struct {
	alerts   *recovery.EmergencyAlerts
	accounts *store.AccountStore
	logger   *slog.Logger
}

func NewEmergencyHandler(alerts *recovery.EmergencyAlerts, accounts *store.AccountStore, logger *slog.Logger) *EmergencyHandler {
	return &EmergencyHandler{alerts: alerts, accounts: accounts, logger: logger}
}

// Alert handles POST /emergency/alert
func (h *EmergencyHandler) Alert(w http.ResponseWriter, r *http.Request) {
	if _, err := h.alerts.SendAlert(r.Context(), auth.AccountID(r.Context())); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Emergency alert sent successfully"})
}

type contactRequest struct {
	ContactID int64 `json:"contactId"`
}

// Add handles POST /emergency/add
func (h *EmergencyHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if _, err := h.alerts.AddContact(r.Context(), auth.AccountID(r.Context()), req.ContactID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.respondWithPatient(w, r, "Emergency contact added successfully")
}

// Remove handles POST /emergency/remove
func (h *EmergencyHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if _, err := h.alerts.RemoveContact(r.Context(), auth.AccountID(r.Context()), req.ContactID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.respondWithPatient(w, r, "Emergency contact removed successfully")
}

func (h *EmergencyHandler) respondWithPatient(w http.ResponseWriter, r *http.Request, msg string) {
	patient, err := h.accounts.GetByID(r.Context(), auth.AccountID(r.Context()))
	if err == nil && patient != nil {
		err = h.accounts.LoadRelations(r.Context(), patient)
	}
	if err != nil {
		h.logger.Error("reload patient", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg, "patient": patient})
}
