package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/steady/internal/metrics"
	"github.com/dukerupert/steady/internal/model"
)

// NewPuzzle is the input to PuzzleLifecycle.Create. Every field is required.
type NewPuzzle struct {
	PatientID     int64
	Question      string
	Answer        string
	ScheduledTime time.Time
}

// PuzzleLifecycle moves puzzles from scheduled to completed.
type PuzzleLifecycle struct {
	accounts AccountRepository
	puzzles  PuzzleRepository
	notifier *Notifier
	logger   *slog.Logger
}

func NewPuzzleLifecycle(accounts AccountRepository, puzzles PuzzleRepository, notifier *Notifier, logger *slog.Logger) *PuzzleLifecycle {
	return &PuzzleLifecycle{
		accounts: accounts,
		puzzles:  puzzles,
		notifier: notifier,
		logger:   logger.With("component", "puzzle"),
	}
}

// Create schedules a puzzle for a patient and tells the patient about it.
func (l *PuzzleLifecycle) Create(ctx context.Context, actorID int64, in NewPuzzle) (*model.Puzzle, error) {
	const op = "puzzle.Create"

	if in.PatientID == 0 || in.Question == "" || in.Answer == "" || in.ScheduledTime.IsZero() {
		return nil, withOp(op, ErrMissingPuzzleFields)
	}

	patient, err := l.accounts.GetByID(ctx, in.PatientID)
	if err != nil {
		return nil, internal(op, err)
	}
	if !patient.IsPatient() {
		return nil, withOp(op, ErrAccountNotFound)
	}

	p, err := l.puzzles.Create(ctx, in.PatientID, in.Question, in.Answer, in.ScheduledTime)
	if err != nil {
		return nil, internal(op, err)
	}

	_, err = l.notifier.Emit(ctx, actorID, in.PatientID, model.NotifyPuzzleReminder, map[string]any{
		"message":  "A new puzzle is available for you.",
		"puzzleId": p.ID,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Complete checks the answer byte for byte and, on a match, marks the
// puzzle done and adds one to the patient's streak. This increment is
// independent of the streak engine: it ignores the once-per-day guard,
// writes no history and awards no milestone. A doctor whose roster lists
// the patient is notified.
func (l *PuzzleLifecycle) Complete(ctx context.Context, callerID, puzzleID int64, answer string) (*model.Puzzle, error) {
	const op = "puzzle.Complete"

	p, err := l.puzzles.GetByID(ctx, puzzleID)
	if err != nil {
		return nil, internal(op, err)
	}
	if p == nil {
		return nil, withOp(op, ErrPuzzleNotFound)
	}
	if p.PatientID != callerID {
		return nil, withOp(op, ErrNotPuzzleOwner)
	}
	if answer != p.Answer {
		return nil, withOp(op, ErrIncorrectAnswer)
	}

	if err := l.puzzles.MarkCompleted(ctx, p.ID); err != nil {
		return nil, internal(op, err)
	}
	p.Completed = true

	patient, err := l.accounts.GetByID(ctx, callerID)
	if err != nil {
		return nil, internal(op, err)
	}
	if patient == nil {
		return nil, internal(op, fmt.Errorf("puzzle owner %d vanished", callerID))
	}
	if err := l.accounts.SetStreak(ctx, callerID, patient.SobrietyStreak+1); err != nil {
		return nil, internal(op, err)
	}
	metrics.PuzzleCompleted()

	doctor, err := l.accounts.FindDoctorForPatient(ctx, callerID)
	if err != nil {
		return nil, internal(op, err)
	}
	if doctor != nil {
		_, err := l.notifier.Emit(ctx, callerID, doctor.ID, model.NotifyPuzzleReminder, map[string]any{
			"message":  fmt.Sprintf("%s has completed a puzzle.", displayName(patient)),
			"puzzleId": p.ID,
		})
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ListForPatient returns the patient's puzzles by scheduled time.
func (l *PuzzleLifecycle) ListForPatient(ctx context.Context, patientID int64) ([]model.Puzzle, error) {
	puzzles, err := l.puzzles.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, internal("puzzle.ListForPatient", err)
	}
	return puzzles, nil
}
