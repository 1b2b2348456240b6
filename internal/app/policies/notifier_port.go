package policies

import (
	"context"

	"carbooking/internal/app/dto"
)

type NotificationEvent string

const (
	NotifyCreated        NotificationEvent = "created"
	NotifyUpdated        NotificationEvent = "updated"
	NotifyStatusChanged  NotificationEvent = "status_changed"
	NotifyPickupReminder NotificationEvent = "pickup_reminder"
)

// Notification carries a booking snapshot to the customer-facing channel.
// Locale is passed through untouched; rendering is up to the notifier.
type Notification struct {
	Event    NotificationEvent
	Locale   string
	Booking  dto.Booking
	Customer dto.Customer
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// SnapshotArchiver stores the frozen price of a booking outside the database.
type SnapshotArchiver interface {
	ArchivePrice(ctx context.Context, b dto.Booking) error
}
