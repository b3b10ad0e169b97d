package email

import (
	"context"
	"fmt"

	"github.com/dukerupert/steady/internal/model"
)

// AccountLookup resolves a notification recipient to an address.
type AccountLookup interface {
	GetByID(ctx context.Context, id int64) (*model.Account, error)
}

// AlertDeliverer emails emergency notifications to their recipient. Other
// notification types are ignored.
type AlertDeliverer struct {
	client   *Client
	accounts AccountLookup
}

func NewAlertDeliverer(client *Client, accounts AccountLookup) *AlertDeliverer {
	return &AlertDeliverer{client: client, accounts: accounts}
}

func (d *AlertDeliverer) Channel() string { return "email" }

func (d *AlertDeliverer) Deliver(ctx context.Context, n *model.Notification) error {
	if n.Type != model.NotifyEmergency {
		return nil
	}
	acct, err := d.accounts.GetByID(ctx, n.To)
	if err != nil {
		return fmt.Errorf("load recipient: %w", err)
	}
	if acct == nil || acct.Email == "" {
		return nil
	}
	return d.client.SendEmergencyAlert(ctx, acct.Email, n.Message())
}
