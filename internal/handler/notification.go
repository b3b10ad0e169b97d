package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/steady/internal/auth"
	"github.com/dukerupert/steady/internal/model"
	"github.com/dukerupert/steady/internal/recovery"
)

type NotificationHandler struct {
	notifier *recovery.Notifier
	logger   *slog.Logger
}

func NewNotificationHandler(notifier *recovery.Notifier, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notifier: notifier, logger: logger}
}

// List handles GET /notifications. Listing marks everything read.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.notifier.List(r.Context(), auth.AccountID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if list == nil {
		list = []model.Notification{}
	}
	writeJSON(w, http.StatusOK, list)
}

// DeleteAll handles DELETE /notifications
func (h *NotificationHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	if _, err := h.notifier.DeleteAll(r.Context(), auth.AccountID(r.Context())); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Notifications deleted successfully"})
}

type createNotificationRequest struct {
	To             int64                  `json:"to"`
	Type           model.NotificationType `json:"type"`
	AdditionalData map[string]any         `json:"additionalData"`
}

// Create handles POST /notifications
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createNotificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	n, err := h.notifier.Create(r.Context(), auth.AccountID(r.Context()), req.To, req.Type, req.AdditionalData)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// MarkRead handles POST /notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	n, err := h.notifier.MarkRead(r.Context(), auth.AccountID(r.Context()), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
