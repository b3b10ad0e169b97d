package model

import "time"

type NotificationType string

const (
	NotifyFollow         NotificationType = "follow"
	NotifyLike           NotificationType = "like"
	NotifyEmergency      NotificationType = "emergency"
	NotifyPuzzleReminder NotificationType = "puzzle_reminder"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotifyFollow, NotifyLike, NotifyEmergency, NotifyPuzzleReminder:
		return true
	}
	return false
}

type Notification struct {
	ID             int64            `json:"id"`
	From           int64            `json:"from"`
	To             int64            `json:"to"`
	Type           NotificationType `json:"type"`
	AdditionalData map[string]any   `json:"additionalData"`
	Read           bool             `json:"read"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// Message returns the human-readable text carried in AdditionalData, if any.
func (n *Notification) Message() string {
	if n == nil || n.AdditionalData == nil {
		return ""
	}
	msg, _ := n.AdditionalData["message"].(string)
	return msg
}
