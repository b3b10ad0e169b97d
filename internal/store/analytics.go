package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/steady/internal/model"
)

type AnalyticsStore struct {
	db *sql.DB
}

func NewAnalyticsStore(db *sql.DB) *AnalyticsStore {
	return &AnalyticsStore{db: db}
}

func scanAnalytics(scanner interface{ Scan(...any) error }) (*model.Analytics, error) {
	var a model.Analytics
	err := scanner.Scan(&a.ID, &a.AccountID, &a.PuzzlesCompleted, &a.TotalPuzzleAttempts,
		&a.StreaksStarted, &a.StreaksEnded, &a.LongestStreak, &a.LastActivity, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const analyticsCols = `id, account_id, puzzles_completed, total_puzzle_attempts, streaks_started,
	streaks_ended, longest_streak, last_activity, created_at, updated_at`

// Provision creates the zeroed record for an account if it does not exist.
// Nothing in the request path calls it.
func (s *AnalyticsStore) Provision(ctx context.Context, accountID int64) (*model.Analytics, error) {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO analytics (account_id) VALUES (?)`, accountID)
	if err != nil {
		return nil, fmt.Errorf("provision analytics: %w", err)
	}
	return s.GetByAccount(ctx, accountID)
}

func (s *AnalyticsStore) GetByAccount(ctx context.Context, accountID int64) (*model.Analytics, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+analyticsCols+` FROM analytics WHERE account_id = ?`, accountID)
	a, err := scanAnalytics(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get analytics: %w", err)
	}
	return a, nil
}

// Save writes every counter as an absolute value.
func (s *AnalyticsStore) Save(ctx context.Context, a *model.Analytics) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE analytics SET puzzles_completed = ?, total_puzzle_attempts = ?, streaks_started = ?,
		 streaks_ended = ?, longest_streak = ?, last_activity = ?, updated_at = ?
		 WHERE account_id = ?`,
		a.PuzzlesCompleted, a.TotalPuzzleAttempts, a.StreaksStarted, a.StreaksEnded, a.LongestStreak,
		a.LastActivity.UTC(), time.Now().UTC(), a.AccountID,
	)
	if err != nil {
		return fmt.Errorf("save analytics: %w", err)
	}
	return nil
}
