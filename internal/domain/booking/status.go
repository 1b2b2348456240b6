package booking

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("booking: invalid status transition")

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, raw)
	}
	return s, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Next lists the statuses reachable from s in one step.
func (s Status) Next() []Status {
	switch s {
	case StatusPending:
		return []Status{StatusConfirmed, StatusCancelled}
	case StatusConfirmed:
		return []Status{StatusActive, StatusCancelled}
	case StatusActive:
		return []Status{StatusCompleted, StatusCancelled}
	default:
		return nil
	}
}

func (s Status) CanTransitionTo(to Status) bool {
	for _, next := range s.Next() {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Message is the customer-facing description of the status.
func (s Status) Message() string {
	switch s {
	case StatusPending:
		return "Your booking request has been received and is awaiting confirmation."
	case StatusConfirmed:
		return "Your booking is confirmed."
	case StatusActive:
		return "Your rental is in progress."
	case StatusCompleted:
		return "Your rental is complete. Thank you for driving with us."
	case StatusCancelled:
		return "Your booking has been cancelled."
	default:
		return "Unknown booking status."
	}
}
