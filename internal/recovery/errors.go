package recovery

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for translation at the HTTP boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	}
	return "internal"
}

// Error is a rule failure with a stable, user-visible message.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	if e.Op == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind and message, so an error
// returned with an Op still matches its sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

var (
	ErrStartNotPatient       = &Error{Kind: KindForbidden, Message: "Only patients can start a sobriety streak"}
	ErrContinueNotPatient    = &Error{Kind: KindForbidden, Message: "Only patients can continue a sobriety streak"}
	ErrAlertNotPatient       = &Error{Kind: KindForbidden, Message: "Only patients can send emergency alerts"}
	ErrAddNotPatient         = &Error{Kind: KindForbidden, Message: "Only patients can add emergency contacts"}
	ErrRemoveNotPatient      = &Error{Kind: KindForbidden, Message: "Only patients can remove emergency contacts"}
	ErrAccountNotFound       = &Error{Kind: KindNotFound, Message: "Patient not found"}
	ErrAlreadyUpdatedToday   = &Error{Kind: KindConflict, Message: "Streak already updated today"}
	ErrNoActiveStreak        = &Error{Kind: KindConflict, Message: "No active streak to end"}
	ErrNoRewardDefined       = &Error{Kind: KindValidation, Message: "No reward defined for this milestone"}
	ErrMissingPuzzleFields   = &Error{Kind: KindValidation, Message: "All fields are required"}
	ErrPuzzleNotFound        = &Error{Kind: KindNotFound, Message: "Puzzle not found"}
	ErrNotPuzzleOwner        = &Error{Kind: KindForbidden, Message: "You are not authorized to complete this puzzle"}
	ErrIncorrectAnswer       = &Error{Kind: KindConflict, Message: "Incorrect answer"}
	ErrContactNotFound       = &Error{Kind: KindNotFound, Message: "Emergency contact not found"}
	ErrAnalyticsNotFound     = &Error{Kind: KindNotFound, Message: "Analytics not found for this user"}
	ErrInvalidNotification   = &Error{Kind: KindValidation, Message: "Invalid notification type"}
	ErrNotificationNotFound  = &Error{Kind: KindNotFound, Message: "Notification not found"}
	ErrMissingNotificationTo = &Error{Kind: KindValidation, Message: "Recipient is required"}
	ErrRecipientNotFound     = &Error{Kind: KindNotFound, Message: "Recipient not found"}
)

// withOp tags a sentinel with the operation that produced it.
func withOp(op string, sentinel *Error) *Error {
	return &Error{Kind: sentinel.Kind, Op: op, Message: sentinel.Message}
}

// internal wraps a storage or unexpected failure.
func internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Op: op, Message: "internal server error", Err: err}
}

// KindOf reports the kind of err. Errors outside the taxonomy are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the user-visible message for err. Internal failures
// never expose their cause.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}
