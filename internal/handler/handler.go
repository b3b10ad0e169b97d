package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/steady/internal/recovery"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 5 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError renders a recovery error with the status of its kind.
// Internal failures are logged and never expose their cause.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := recovery.KindOf(err)
	if kind == recovery.KindInternal {
		logger.Error("request failed", "error", err)
	}
	writeMessage(w, statusOf(kind), recovery.Message(err))
}

func statusOf(k recovery.Kind) int {
	switch k {
	case recovery.KindValidation, recovery.KindConflict:
		return http.StatusBadRequest
	case recovery.KindNotFound:
		return http.StatusNotFound
	case recovery.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
