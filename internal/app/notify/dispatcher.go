// Package notify turns committed booking events into customer notifications.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"carbooking/internal/app/dto"
	"carbooking/internal/app/handlers/support"
	"carbooking/internal/app/outbox"
	"carbooking/internal/app/policies"
	"carbooking/internal/app/uow"
	domainbooking "carbooking/internal/domain/booking"
)

const DefaultTimeout = 3 * time.Second

var ErrNotifierRequired = errors.New("notify: notifier required")

// Dispatcher loads the booking behind an event record and hands a snapshot to
// the notifier. Notifier and archive failures are logged only; the booking has
// already been committed.
type Dispatcher struct {
	UoWFactory uow.UoWFactory
	Notifier   policies.Notifier
	Archiver   policies.SnapshotArchiver
	Timeout    time.Duration
	Logger     *slog.Logger
}

func (d *Dispatcher) Deliver(ctx context.Context, rec outbox.EventRecord) error {
	event, ok := notificationFor(rec.Name)
	if !ok {
		return nil
	}
	return d.Dispatch(ctx, event, domainbooking.BookingID(rec.Aggregate))
}

func (d *Dispatcher) Dispatch(ctx context.Context, event policies.NotificationEvent, id domainbooking.BookingID) error {
	if d.Notifier == nil {
		return ErrNotifierRequired
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	n, err := d.load(ctx, event, id)
	if err != nil {
		return err
	}
	if d.Archiver != nil && (event == policies.NotifyCreated || event == policies.NotifyUpdated) {
		if err := d.Archiver.ArchivePrice(ctx, n.Booking); err != nil {
			d.logger().Warn("price snapshot archive failed", "booking", n.Booking.Number, "error", err)
		}
	}
	if err := d.Notifier.Notify(ctx, n); err != nil {
		d.logger().Warn("notification failed", "booking", n.Booking.Number, "event", event, "error", err)
		return nil
	}
	d.logger().Debug("notification sent", "booking", n.Booking.Number, "event", event, "locale", n.Locale)
	return nil
}

func (d *Dispatcher) load(ctx context.Context, event policies.NotificationEvent, id domainbooking.BookingID) (policies.Notification, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, d.UoWFactory)
	if err != nil {
		return policies.Notification{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	b, err := unit.Bookings().ByID(execCtx, id)
	if err != nil {
		return policies.Notification{}, err
	}
	c, err := unit.Customers().ByID(execCtx, b.CustomerID)
	if err != nil {
		return policies.Notification{}, err
	}
	return policies.Notification{
		Event:    event,
		Locale:   b.Locale,
		Booking:  dto.MapBooking(b),
		Customer: dto.MapCustomer(c),
	}, nil
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func notificationFor(name string) (policies.NotificationEvent, bool) {
	switch name {
	case domainbooking.EventCreated:
		return policies.NotifyCreated, true
	case domainbooking.EventUpdated:
		return policies.NotifyUpdated, true
	case domainbooking.EventStatusChanged:
		return policies.NotifyStatusChanged, true
	default:
		return "", false
	}
}

var _ outbox.Sink = (*Dispatcher)(nil)
