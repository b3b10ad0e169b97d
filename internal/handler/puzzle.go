package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/steady/internal/auth"
	"github.com/dukerupert/steady/internal/model"
	"github.com/dukerupert/steady/internal/recovery"
)

type PuzzleHandler struct {
	puzzles *recovery.PuzzleLifecycle
	logger  *slog.Logger
}

func NewPuzzleHandler(puzzles *recovery.PuzzleLifecycle, logger *slog.Logger) *PuzzleHandler {
	return &PuzzleHandler{puzzles: puzzles, logger: logger}
}

type createPuzzleRequest struct {
	PatientID     int64      `json:"patientId"`
	Question      string     `json:"question"`
	Answer        string     `json:"answer"`
	ScheduledTime *time.Time `json:"scheduledTime"`
}

// Create handles POST /puzzle/create
func (h *PuzzleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPuzzleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	in := recovery.NewPuzzle{
		PatientID: req.PatientID,
		Question:  req.Question,
		Answer:    req.Answer,
	}
	if req.ScheduledTime != nil {
		in.ScheduledTime = *req.ScheduledTime
	}

	p, err := h.puzzles.Create(r.Context(), auth.AccountID(r.Context()), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type completePuzzleRequest struct {
	PuzzleID      int64  `json:"puzzleId"`
	PatientAnswer string `json:"patientAnswer"`
}

// Complete handles POST /puzzle/complete
func (h *PuzzleHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completePuzzleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	p, err := h.puzzles.Complete(r.Context(), auth.AccountID(r.Context()), req.PuzzleID, req.PatientAnswer)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Puzzle completed successfully",
		"puzzle":  p,
	})
}

// ListForPatient handles GET /puzzle/patient
func (h *PuzzleHandler) ListForPatient(w http.ResponseWriter, r *http.Request) {
	puzzles, err := h.puzzles.ListForPatient(r.Context(), auth.AccountID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if puzzles == nil {
		puzzles = []model.Puzzle{}
	}
	writeJSON(w, http.StatusOK, puzzles)
}
