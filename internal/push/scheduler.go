package push

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/steady/internal/model"
)

// ReminderStore is what the scheduler needs from push storage.
type ReminderStore interface {
	SubscriptionStore
	WasSent(ctx context.Context, accountID int64, refID string) (bool, error)
	RecordSent(ctx context.Context, accountID int64, refID string) error
}

// PuzzleSource lists patients that still have incomplete puzzles.
type PuzzleSource interface {
	PatientsWithOpenPuzzles(ctx context.Context) ([]int64, error)
}

// AccountSource resolves a patient to read its puzzle schedule.
type AccountSource interface {
	GetByID(ctx context.Context, id int64) (*model.Account, error)
}

// Scheduler periodically sends puzzle reminders. Each patient gets at most
// one push per schedule slot per calendar day while an incomplete puzzle
// remains. It only reads recovery state.
type Scheduler struct {
	mu       sync.RWMutex
	service  *Service
	push     ReminderStore
	puzzles  PuzzleSource
	accounts AccountSource
	loc      *time.Location
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a reminder scheduler. Schedule slots are read as
// wall-clock times in loc.
func NewScheduler(svc *Service, pushStore ReminderStore, puzzles PuzzleSource, accounts AccountSource, loc *time.Location, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		service:  svc,
		push:     pushStore,
		puzzles:  puzzles,
		accounts: accounts,
		loc:      loc,
		interval: interval,
		now:      time.Now,
		logger:   logger.With("component", "push_scheduler"),
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	patients, err := s.puzzles.PatientsWithOpenPuzzles(ctx)
	if err != nil {
		s.logger.Error("list patients with open puzzles", "error", err)
		return
	}

	now := s.now().In(s.loc)
	for _, id := range patients {
		s.remind(ctx, id, now)
	}
}

func (s *Scheduler) remind(ctx context.Context, patientID int64, now time.Time) {
	acct, err := s.accounts.GetByID(ctx, patientID)
	if err != nil {
		s.logger.Error("load patient", "account_id", patientID, "error", err)
		return
	}
	if !acct.IsPatient() {
		return
	}

	slot, ok := dueSlot(acct.PuzzleSchedule, now)
	if !ok {
		return
	}
	refID := fmt.Sprintf("puzzle-%s-%s", now.Format("2006-01-02"), slot)

	sent, err := s.push.WasSent(ctx, patientID, refID)
	if err != nil {
		s.logger.Error("check sent reminder", "account_id", patientID, "error", err)
		return
	}
	if sent {
		return
	}

	payload := Payload{
		Title: "Puzzle Reminder",
		Body:  "You have a puzzle waiting for you.",
		URL:   "/puzzles",
		Tag:   "puzzle-reminder",
	}
	if _, err := s.service.SendToAccount(ctx, s.push, patientID, payload, s.logger); err != nil {
		s.logger.Warn("send puzzle reminder", "account_id", patientID, "error", err)
	}

	if err := s.push.RecordSent(ctx, patientID, refID); err != nil {
		s.logger.Error("record sent reminder", "account_id", patientID, "error", err)
	}
}

// dueSlot returns the latest schedule slot that has already passed today.
// Slots that fail to parse as HH:MM are skipped.
func dueSlot(schedule []string, now time.Time) (string, bool) {
	var (
		best   string
		bestAt time.Time
		found  bool
	)
	for _, slot := range schedule {
		t, err := time.ParseInLocation("15:04", slot, now.Location())
		if err != nil {
			continue
		}
		at := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
		if at.After(now) {
			continue
		}
		if !found || at.After(bestAt) {
			best, bestAt, found = slot, at, true
		}
	}
	return best, found
}
