package recovery

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/steady/internal/metrics"
	"github.com/dukerupert/steady/internal/model"
)

// profileGap is the wall-clock gap after which the profile path restarts a
// streak at 1.
const profileGap = 24 * time.Hour

// StreakEngine applies the streak transitions. Start, Continue and End use
// calendar days in loc; UpdateFromProfile uses a 24 hour delta. The two
// policies are deliberately separate.
type StreakEngine struct {
	accounts AccountRepository
	rewards  *RewardDispenser
	loc      *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

func NewStreakEngine(accounts AccountRepository, rewards *RewardDispenser, loc *time.Location, logger *slog.Logger) *StreakEngine {
	return &StreakEngine{
		accounts: accounts,
		rewards:  rewards,
		loc:      loc,
		now:      time.Now,
		logger:   logger.With("component", "streak"),
	}
}

// EndResult reports the length of a streak that was just ended.
type EndResult struct {
	FinalStreakLength int            `json:"finalStreakLength"`
	Rewards           []model.Reward `json:"rewards"`
}

// Start resets the caller's streak to zero and clears its history.
func (e *StreakEngine) Start(ctx context.Context, accountID int64) (*model.StreakState, error) {
	const op = "streak.Start"

	a, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, internal(op, err)
	}
	if !a.IsPatient() {
		return nil, withOp(op, ErrStartNotPatient)
	}

	now := e.now().UTC()
	if err := e.accounts.SaveStreak(ctx, accountID, 0, now); err != nil {
		return nil, internal(op, err)
	}
	if err := e.accounts.ResetHistory(ctx, accountID); err != nil {
		return nil, internal(op, err)
	}

	metrics.StreakEvent("start")
	return &model.StreakState{SobrietyStreak: 0, StreakHistory: []time.Time{}, LastUpdated: &now}, nil
}

// Continue adds one day to the streak, at most once per calendar day. When
// the day was already counted it returns the unchanged state together with
// ErrAlreadyUpdatedToday. Only a streak landing exactly on a milestone is
// rewarded.
func (e *StreakEngine) Continue(ctx context.Context, accountID int64) (*model.StreakState, error) {
	const op = "streak.Continue"

	a, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, internal(op, err)
	}
	if a == nil {
		return nil, withOp(op, ErrAccountNotFound)
	}
	if !a.IsPatient() {
		return nil, withOp(op, ErrContinueNotPatient)
	}

	now := e.now().UTC()
	if a.LastUpdated != nil && e.sameDay(*a.LastUpdated, now) {
		return &model.StreakState{SobrietyStreak: a.SobrietyStreak, LastUpdated: a.LastUpdated}, withOp(op, ErrAlreadyUpdatedToday)
	}

	next := a.SobrietyStreak + 1
	if err := e.accounts.SaveStreak(ctx, accountID, next, now); err != nil {
		return nil, internal(op, err)
	}
	if err := e.accounts.AppendHistory(ctx, accountID, now); err != nil {
		return nil, internal(op, err)
	}
	metrics.StreakEvent("continue")

	if IsMilestone(next) {
		if _, err := e.rewards.Award(ctx, accountID, next); err != nil {
			return nil, err
		}
	}

	return &model.StreakState{SobrietyStreak: next, LastUpdated: &now}, nil
}

// End zeroes an active streak and awards every milestone the final length
// reached, not just an exact match.
func (e *StreakEngine) End(ctx context.Context, accountID int64) (*EndResult, error) {
	const op = "streak.End"

	a, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, internal(op, err)
	}
	if a == nil {
		return nil, withOp(op, ErrAccountNotFound)
	}
	if a.SobrietyStreak == 0 {
		return nil, withOp(op, ErrNoActiveStreak)
	}

	final := a.SobrietyStreak
	if err := e.accounts.SaveStreak(ctx, accountID, 0, e.now().UTC()); err != nil {
		return nil, internal(op, err)
	}
	metrics.StreakEvent("end")

	result := &EndResult{FinalStreakLength: final, Rewards: []model.Reward{}}
	for _, m := range Milestones {
		if final < m {
			continue
		}
		r, err := e.rewards.Award(ctx, accountID, m)
		if err != nil {
			return nil, err
		}
		result.Rewards = append(result.Rewards, *r)
	}
	return result, nil
}

// Get returns the caller's streak, history and last update.
func (e *StreakEngine) Get(ctx context.Context, accountID int64) (*model.StreakState, error) {
	const op = "streak.Get"

	a, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, internal(op, err)
	}
	if a == nil {
		return nil, withOp(op, ErrAccountNotFound)
	}
	history, err := e.accounts.StreakHistory(ctx, accountID)
	if err != nil {
		return nil, internal(op, err)
	}
	return &model.StreakState{SobrietyStreak: a.SobrietyStreak, StreakHistory: history, LastUpdated: a.LastUpdated}, nil
}

// UpdateFromProfile is the profile-page update. A gap of more than 24 hours
// since the last update, or no update at all, restarts the streak at 1 with
// a one-entry history. Otherwise the streak grows by one, even within the
// same calendar day. No milestone rewards are issued on this path.
func (e *StreakEngine) UpdateFromProfile(ctx context.Context, patientID int64) (*model.StreakState, error) {
	const op = "streak.UpdateFromProfile"

	a, err := e.patient(ctx, op, patientID)
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	var history []time.Time
	next := a.SobrietyStreak + 1
	if a.LastUpdated == nil || now.Sub(*a.LastUpdated) > profileGap {
		next = 1
		if err := e.accounts.ResetHistory(ctx, patientID, now); err != nil {
			return nil, internal(op, err)
		}
	} else if err := e.accounts.AppendHistory(ctx, patientID, now); err != nil {
		return nil, internal(op, err)
	}

	if err := e.accounts.SaveStreak(ctx, patientID, next, now); err != nil {
		return nil, internal(op, err)
	}
	if history, err = e.accounts.StreakHistory(ctx, patientID); err != nil {
		return nil, internal(op, err)
	}

	metrics.StreakEvent("profile_update")
	return &model.StreakState{SobrietyStreak: next, StreakHistory: history, LastUpdated: &now}, nil
}

// ProfileStreak returns the counter and last update of a patient.
func (e *StreakEngine) ProfileStreak(ctx context.Context, patientID int64) (*model.StreakState, error) {
	a, err := e.patient(ctx, "streak.ProfileStreak", patientID)
	if err != nil {
		return nil, err
	}
	return &model.StreakState{SobrietyStreak: a.SobrietyStreak, LastUpdated: a.LastUpdated}, nil
}

// ProfileHistory returns the counter and full history of a patient.
func (e *StreakEngine) ProfileHistory(ctx context.Context, patientID int64) (*model.StreakState, error) {
	const op = "streak.ProfileHistory"

	a, err := e.patient(ctx, op, patientID)
	if err != nil {
		return nil, err
	}
	history, err := e.accounts.StreakHistory(ctx, patientID)
	if err != nil {
		return nil, internal(op, err)
	}
	return &model.StreakState{SobrietyStreak: a.SobrietyStreak, StreakHistory: history}, nil
}

func (e *StreakEngine) patient(ctx context.Context, op string, id int64) (*model.Account, error) {
	a, err := e.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, internal(op, err)
	}
	if !a.IsPatient() {
		return nil, withOp(op, ErrAccountNotFound)
	}
	return a, nil
}

func (e *StreakEngine) sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(e.loc).Date()
	by, bm, bd := b.In(e.loc).Date()
	return ay == by && am == bm && ad == bd
}
