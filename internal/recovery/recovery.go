// Package recovery holds the rules that tie patient activity to streaks,
// rewards, puzzles, emergency alerts and analytics counters.
//
// Every operation is a single synchronous attempt against storage. Side
// effects within one operation are sequential and not transactional, and
// read-modify-write sequences on an account take no lock: two concurrent
// continuations can both read the same counter and one increment is lost.
package recovery

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/steady/internal/model"
)

type AccountRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Account, error)
	SaveStreak(ctx context.Context, id int64, streak int, lastUpdated time.Time) error
	SetStreak(ctx context.Context, id int64, streak int) error
	AppendHistory(ctx context.Context, id int64, at time.Time) error
	ResetHistory(ctx context.Context, id int64, entries ...time.Time) error
	StreakHistory(ctx context.Context, id int64) ([]time.Time, error)
	AppendReward(ctx context.Context, accountID, rewardID int64) error
	ListEmergencyContacts(ctx context.Context, patientID int64) ([]int64, error)
	AddEmergencyContact(ctx context.Context, patientID, contactID int64) error
	RemoveEmergencyContact(ctx context.Context, patientID, contactID int64) error
	FindDoctorForPatient(ctx context.Context, patientID int64) (*model.Account, error)
}

type RewardRepository interface {
	Create(ctx context.Context, accountID int64, milestone int, rewardType model.RewardType, value string) (*model.Reward, error)
	ListByAccount(ctx context.Context, accountID int64) ([]model.Reward, error)
}

type PuzzleRepository interface {
	Create(ctx context.Context, patientID int64, question, answer string, scheduledTime time.Time) (*model.Puzzle, error)
	GetByID(ctx context.Context, id int64) (*model.Puzzle, error)
	MarkCompleted(ctx context.Context, id int64) error
	ListByPatient(ctx context.Context, patientID int64) ([]model.Puzzle, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, from, to int64, typ model.NotificationType, data map[string]any) (*model.Notification, error)
	GetByID(ctx context.Context, id int64) (*model.Notification, error)
	ListByRecipient(ctx context.Context, to int64) ([]model.Notification, error)
	MarkAllRead(ctx context.Context, to int64) error
	MarkRead(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context, to int64) (int64, error)
}

type AnalyticsRepository interface {
	GetByAccount(ctx context.Context, accountID int64) (*model.Analytics, error)
	Save(ctx context.Context, a *model.Analytics) error
}

// Deps are the collaborators needed to build a Service.
type Deps struct {
	Accounts      AccountRepository
	Rewards       RewardRepository
	Puzzles       PuzzleRepository
	Notifications NotificationRepository
	Analytics     AnalyticsRepository

	// Deliverers receive every persisted notification, best-effort.
	Deliverers []Deliverer

	// Location decides calendar-day boundaries. Defaults to time.Local.
	Location *time.Location
	Logger   *slog.Logger
}

// Service groups the rule components sharing one set of repositories.
type Service struct {
	Streaks       *StreakEngine
	Rewards       *RewardDispenser
	Puzzles       *PuzzleLifecycle
	Emergency     *EmergencyAlerts
	Analytics     *AnalyticsCounters
	Notifications *Notifier
}

func New(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}

	notifier := NewNotifier(d.Notifications, d.Accounts, logger, d.Deliverers...)
	rewards := NewRewardDispenser(d.Accounts, d.Rewards, logger)

	return &Service{
		Streaks:       NewStreakEngine(d.Accounts, rewards, loc, logger),
		Rewards:       rewards,
		Puzzles:       NewPuzzleLifecycle(d.Accounts, d.Puzzles, notifier, logger),
		Emergency:     NewEmergencyAlerts(d.Accounts, notifier, logger),
		Analytics:     NewAnalyticsCounters(d.Analytics),
		Notifications: notifier,
	}
}

// displayName is the name embedded in messages about an account.
func displayName(a *model.Account) string {
	if a.FullName != "" {
		return a.FullName
	}
	return a.Username
}
