package recovery

import (
	"context"
	"log/slog"

	"github.com/dukerupert/steady/internal/metrics"
	"github.com/dukerupert/steady/internal/model"
)

// Deliverer forwards a persisted notification over one live channel.
type Deliverer interface {
	Channel() string
	Deliver(ctx context.Context, n *model.Notification) error
}

// Notifier is the notification sink. A notification exists once it is
// persisted; delivery to live channels is attempted afterwards and its
// failures are logged and counted, never returned.
type Notifier struct {
	store      NotificationRepository
	accounts   AccountRepository
	deliverers []Deliverer
	logger     *slog.Logger
}

func NewNotifier(store NotificationRepository, accounts AccountRepository, logger *slog.Logger, deliverers ...Deliverer) *Notifier {
	return &Notifier{
		store:      store,
		accounts:   accounts,
		deliverers: deliverers,
		logger:     logger.With("component", "notify"),
	}
}

// Emit persists one notification and then delivers it.
func (n *Notifier) Emit(ctx context.Context, from, to int64, typ model.NotificationType, data map[string]any) (*model.Notification, error) {
	note, err := n.store.Create(ctx, from, to, typ, data)
	if err != nil {
		return nil, internal("notify.Emit", err)
	}
	metrics.NotificationCreated(string(typ))

	for _, d := range n.deliverers {
		if err := d.Deliver(ctx, note); err != nil {
			metrics.DeliveryFailed(d.Channel())
			n.logger.Warn("notification delivery failed", "channel", d.Channel(), "notification_id", note.ID, "to", to, "error", err)
		}
	}
	return note, nil
}

// Create is the direct API for sending a notification of any known type.
// The recipient must be an existing account.
func (n *Notifier) Create(ctx context.Context, from, to int64, typ model.NotificationType, data map[string]any) (*model.Notification, error) {
	const op = "notify.Create"

	if !typ.Valid() {
		return nil, withOp(op, ErrInvalidNotification)
	}
	if to == 0 {
		return nil, withOp(op, ErrMissingNotificationTo)
	}
	recipient, err := n.accounts.GetByID(ctx, to)
	if err != nil {
		return nil, internal(op, err)
	}
	if recipient == nil {
		return nil, withOp(op, ErrRecipientNotFound)
	}
	return n.Emit(ctx, from, to, typ, data)
}

// List returns the recipient's notifications, newest first, and then marks
// all of them read. The returned rows carry their state from before the
// bulk update.
func (n *Notifier) List(ctx context.Context, to int64) ([]model.Notification, error) {
	const op = "notify.List"

	list, err := n.store.ListByRecipient(ctx, to)
	if err != nil {
		return nil, internal(op, err)
	}
	if err := n.store.MarkAllRead(ctx, to); err != nil {
		return nil, internal(op, err)
	}
	return list, nil
}

func (n *Notifier) DeleteAll(ctx context.Context, to int64) (int64, error) {
	count, err := n.store.DeleteAll(ctx, to)
	if err != nil {
		return 0, internal("notify.DeleteAll", err)
	}
	return count, nil
}

// MarkRead marks one of the caller's notifications read. Notifications
// addressed to someone else are reported as not found.
func (n *Notifier) MarkRead(ctx context.Context, callerID, id int64) (*model.Notification, error) {
	const op = "notify.MarkRead"

	note, err := n.store.GetByID(ctx, id)
	if err != nil {
		return nil, internal(op, err)
	}
	if note == nil || note.To != callerID {
		return nil, withOp(op, ErrNotificationNotFound)
	}
	if err := n.store.MarkRead(ctx, id); err != nil {
		return nil, internal(op, err)
	}
	note.Read = true
	return note, nil
}
