package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/steady/internal/model"
)

type PuzzleStore struct {
	db *sql.DB
}

func NewPuzzleStore(db *sql.DB) *PuzzleStore {
	return &PuzzleStore{db: db}
}

func scanPuzzle(scanner interface{ Scan(...any) error }) (*model.Puzzle, error) {
	var p model.Puzzle
	var completed int

	err := scanner.Scan(&p.ID, &p.PatientID, &p.Question, &p.Answer, &completed, &p.ScheduledTime, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Completed = completed != 0
	p.ScheduledTime = p.ScheduledTime.UTC()
	return &p, nil
}

const puzzleCols = `id, patient_id, question, answer, completed, scheduled_time, created_at, updated_at`

func (s *PuzzleStore) Create(ctx context.Context, patientID int64, question, answer string, scheduledTime time.Time) (*model.Puzzle, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO puzzles (patient_id, question, answer, scheduled_time) VALUES (?, ?, ?, ?)`,
		patientID, question, answer, scheduledTime.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert puzzle: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *PuzzleStore) GetByID(ctx context.Context, id int64) (*model.Puzzle, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+puzzleCols+` FROM puzzles WHERE id = ?`, id)
	p, err := scanPuzzle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get puzzle: %w", err)
	}
	return p, nil
}

// MarkCompleted flips the completed flag. It never clears it.
func (s *PuzzleStore) MarkCompleted(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE puzzles SET completed = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("complete puzzle: %w", err)
	}
	return nil
}

// ListByPatient returns a patient's puzzles by scheduled time.
func (s *PuzzleStore) ListByPatient(ctx context.Context, patientID int64) ([]model.Puzzle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+puzzleCols+` FROM puzzles WHERE patient_id = ? ORDER BY scheduled_time ASC, id ASC`, patientID,
	)
	if err != nil {
		return nil, fmt.Errorf("list puzzles: %w", err)
	}
	defer rows.Close()

	puzzles := []model.Puzzle{}
	for rows.Next() {
		p, err := scanPuzzle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan puzzle: %w", err)
		}
		puzzles = append(puzzles, *p)
	}
	return puzzles, rows.Err()
}

// PatientsWithOpenPuzzles returns the ids of patients holding at least one
// incomplete puzzle.
func (s *PuzzleStore) PatientsWithOpenPuzzles(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT patient_id FROM puzzles WHERE completed = 0 ORDER BY patient_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list patients with open puzzles: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan patient id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
