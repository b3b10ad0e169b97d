package push

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/steady/internal/model"
)

// Deliverer sends persisted notifications to the recipient's push
// subscriptions.
type Deliverer struct {
	service *Service
	subs    SubscriptionStore
	logger  *slog.Logger
}

func NewDeliverer(svc *Service, subs SubscriptionStore, logger *slog.Logger) *Deliverer {
	return &Deliverer{
		service: svc,
		subs:    subs,
		logger:  logger.With("component", "push"),
	}
}

func (d *Deliverer) Channel() string { return "push" }

func (d *Deliverer) Deliver(ctx context.Context, n *model.Notification) error {
	_, err := d.service.SendToAccount(ctx, d.subs, n.To, payloadFor(n), d.logger)
	return err
}

func payloadFor(n *model.Notification) Payload {
	p := Payload{
		Body: n.Message(),
		URL:  "/notifications",
		Tag:  fmt.Sprintf("notification-%d", n.ID),
	}
	switch n.Type {
	case model.NotifyEmergency:
		p.Title = "Emergency Alert"
	case model.NotifyPuzzleReminder:
		p.Title = "Puzzle Reminder"
		p.URL = "/puzzles"
	case model.NotifyFollow:
		p.Title = "New Follower"
	case model.NotifyLike:
		p.Title = "New Like"
	default:
		p.Title = "Notification"
	}
	if p.Body == "" {
		p.Body = p.Title
	}
	return p
}
