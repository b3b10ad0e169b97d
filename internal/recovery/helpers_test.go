package recovery

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/steady/internal/database"
	"github.com/dukerupert/steady/internal/model"
	"github.com/dukerupert/steady/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// recordingDeliverer captures every delivered notification.
type recordingDeliverer struct {
	mu   sync.Mutex
	got  []model.Notification
	fail bool
}

func (d *recordingDeliverer) Channel() string { return "test" }

func (d *recordingDeliverer) Deliver(_ context.Context, n *model.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.got = append(d.got, *n)
	if d.fail {
		return errors.New("channel down")
	}
	return nil
}

type fixture struct {
	db            *sql.DB
	accounts      *store.AccountStore
	rewards       *store.RewardStore
	puzzles       *store.PuzzleStore
	notifications *store.NotificationStore
	analytics     *store.AnalyticsStore
	deliverer     *recordingDeliverer
	clock         *fakeClock
	svc           *Service
}

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureIn(t, time.UTC)
}

func newFixtureIn(t *testing.T, loc *time.Location) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:            db,
		accounts:      store.NewAccountStore(db),
		rewards:       store.NewRewardStore(db),
		puzzles:       store.NewPuzzleStore(db),
		notifications: store.NewNotificationStore(db),
		analytics:     store.NewAnalyticsStore(db),
		deliverer:     &recordingDeliverer{},
		clock:         &fakeClock{now: time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)},
	}
	f.svc = f.build(f.accounts, loc)
	return f
}

// build wires a Service over the fixture's stores, with accounts swappable
// so tests can interpose on account reads.
func (f *fixture) build(accounts AccountRepository, loc *time.Location) *Service {
	svc := New(Deps{
		Accounts:      accounts,
		Rewards:       f.rewards,
		Puzzles:       f.puzzles,
		Notifications: f.notifications,
		Analytics:     f.analytics,
		Deliverers:    []Deliverer{f.deliverer},
		Location:      loc,
		Logger:        testLogger,
	})
	svc.Streaks.now = f.clock.Now
	svc.Analytics.now = f.clock.Now
	return svc
}

func (f *fixture) account(t *testing.T, role model.Role, name string) *model.Account {
	t.Helper()
	a, err := f.accounts.Create(context.Background(), &model.Account{
		Role:         role,
		FullName:     name,
		Email:        name + "@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return a
}

// seedStreak sets a patient's counter and last update directly.
func (f *fixture) seedStreak(t *testing.T, id int64, streak int, lastUpdated time.Time) {
	t.Helper()
	require.NoError(t, f.accounts.SaveStreak(context.Background(), id, streak, lastUpdated))
}

func (f *fixture) reload(t *testing.T, id int64) *model.Account {
	t.Helper()
	a, err := f.accounts.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, a)
	return a
}

func (f *fixture) history(t *testing.T, id int64) []time.Time {
	t.Helper()
	h, err := f.accounts.StreakHistory(context.Background(), id)
	require.NoError(t, err)
	return h
}

func (f *fixture) rewardsOf(t *testing.T, id int64) []model.Reward {
	t.Helper()
	r, err := f.rewards.ListByAccount(context.Background(), id)
	require.NoError(t, err)
	return r
}

func (f *fixture) inbox(t *testing.T, id int64) []model.Notification {
	t.Helper()
	n, err := f.notifications.ListByRecipient(context.Background(), id)
	require.NoError(t, err)
	return n
}
