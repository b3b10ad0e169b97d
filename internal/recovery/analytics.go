package recovery

import (
	"context"
	"time"

	"github.com/dukerupert/steady/internal/model"
)

// AnalyticsCounters updates the per-account activity counters. Records are
// provisioned elsewhere; every operation fails with ErrAnalyticsNotFound
// when none exists.
type AnalyticsCounters struct {
	analytics AnalyticsRepository
	now       func() time.Time
}

func NewAnalyticsCounters(analytics AnalyticsRepository) *AnalyticsCounters {
	return &AnalyticsCounters{analytics: analytics, now: time.Now}
}

func (c *AnalyticsCounters) Get(ctx context.Context, accountID int64) (*model.Analytics, error) {
	return c.load(ctx, "analytics.Get", accountID)
}

// RecordPuzzleCompletion counts one completed puzzle and one attempt.
func (c *AnalyticsCounters) RecordPuzzleCompletion(ctx context.Context, accountID int64) (*model.Analytics, error) {
	const op = "analytics.RecordPuzzleCompletion"

	a, err := c.load(ctx, op, accountID)
	if err != nil {
		return nil, err
	}
	a.PuzzlesCompleted++
	a.TotalPuzzleAttempts++
	return c.save(ctx, op, a)
}

// RecordStreakEvent counts a started or ended streak. An ended streak longer
// than the recorded longest replaces it. Any other action only refreshes
// lastActivity.
func (c *AnalyticsCounters) RecordStreakEvent(ctx context.Context, accountID int64, action string, streakLength int) (*model.Analytics, error) {
	const op = "analytics.RecordStreakEvent"

	a, err := c.load(ctx, op, accountID)
	if err != nil {
		return nil, err
	}
	switch action {
	case "start":
		a.StreaksStarted++
	case "end":
		a.StreaksEnded++
		if streakLength > a.LongestStreak {
			a.LongestStreak = streakLength
		}
	}
	return c.save(ctx, op, a)
}

func (c *AnalyticsCounters) load(ctx context.Context, op string, accountID int64) (*model.Analytics, error) {
	a, err := c.analytics.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, internal(op, err)
	}
	if a == nil {
		return nil, withOp(op, ErrAnalyticsNotFound)
	}
	return a, nil
}

func (c *AnalyticsCounters) save(ctx context.Context, op string, a *model.Analytics) (*model.Analytics, error) {
	a.LastActivity = c.now().UTC()
	if err := c.analytics.Save(ctx, a); err != nil {
		return nil, internal(op, err)
	}
	return a, nil
}
