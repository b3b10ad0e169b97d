package recovery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/steady/internal/model"
)

// EmergencyAlerts manages a patient's emergency contacts and fans alerts
// out to them.
type EmergencyAlerts struct {
	accounts AccountRepository
	notifier *Notifier
	logger   *slog.Logger
}

func NewEmergencyAlerts(accounts AccountRepository, notifier *Notifier, logger *slog.Logger) *EmergencyAlerts {
	return &EmergencyAlerts{
		accounts: accounts,
		notifier: notifier,
		logger:   logger.With("component", "emergency"),
	}
}

// SendAlert notifies every emergency contact of the caller, one at a time.
// The first failed write aborts the loop; contacts already notified stay
// notified. It returns how many notifications were persisted.
func (a *EmergencyAlerts) SendAlert(ctx context.Context, callerID int64) (int, error) {
	const op = "emergency.SendAlert"

	patient, err := a.accounts.GetByID(ctx, callerID)
	if err != nil {
		return 0, internal(op, err)
	}
	if !patient.IsPatient() {
		return 0, withOp(op, ErrAlertNotPatient)
	}

	contacts, err := a.accounts.ListEmergencyContacts(ctx, callerID)
	if err != nil {
		return 0, internal(op, err)
	}

	msg := fmt.Sprintf("%s has sent an emergency alert. Please check on them.", displayName(patient))
	sent := 0
	for _, contactID := range contacts {
		if _, err := a.notifier.Emit(ctx, callerID, contactID, model.NotifyEmergency, map[string]any{"message": msg}); err != nil {
			a.logger.Error("emergency alert aborted", "patient_id", callerID, "sent", sent, "remaining", len(contacts)-sent, "error", err)
			return sent, err
		}
		sent++
	}

	a.logger.Info("emergency alert sent", "patient_id", callerID, "contacts", sent)
	return sent, nil
}

// AddContact registers an emergency contact account for the caller. The
// contacts form a set, so adding twice is harmless.
func (a *EmergencyAlerts) AddContact(ctx context.Context, callerID, contactID int64) ([]int64, error) {
	const op = "emergency.AddContact"

	if err := a.requirePatient(ctx, op, callerID, ErrAddNotPatient); err != nil {
		return nil, err
	}

	contact, err := a.accounts.GetByID(ctx, contactID)
	if err != nil {
		return nil, internal(op, err)
	}
	if contact == nil || contact.Role != model.RoleEmergencyContact {
		return nil, withOp(op, ErrContactNotFound)
	}

	if err := a.accounts.AddEmergencyContact(ctx, callerID, contactID); err != nil {
		return nil, internal(op, err)
	}
	return a.contacts(ctx, op, callerID)
}

// RemoveContact drops a contact from the caller's set. Removing an id that
// is not in the set succeeds.
func (a *EmergencyAlerts) RemoveContact(ctx context.Context, callerID, contactID int64) ([]int64, error) {
	const op = "emergency.RemoveContact"

	if err := a.requirePatient(ctx, op, callerID, ErrRemoveNotPatient); err != nil {
		return nil, err
	}
	if err := a.accounts.RemoveEmergencyContact(ctx, callerID, contactID); err != nil {
		return nil, internal(op, err)
	}
	return a.contacts(ctx, op, callerID)
}

func (a *EmergencyAlerts) requirePatient(ctx context.Context, op string, id int64, denied *Error) error {
	acct, err := a.accounts.GetByID(ctx, id)
	if err != nil {
		return internal(op, err)
	}
	if !acct.IsPatient() {
		return withOp(op, denied)
	}
	return nil
}

func (a *EmergencyAlerts) contacts(ctx context.Context, op string, patientID int64) ([]int64, error) {
	ids, err := a.accounts.ListEmergencyContacts(ctx, patientID)
	if err != nil {
		return nil, internal(op, err)
	}
	return ids, nil
}
