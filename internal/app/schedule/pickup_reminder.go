package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"carbooking/internal/app/handlers/support"
	"carbooking/internal/app/policies"
	"carbooking/internal/app/uow"
	"carbooking/internal/domain/booking"
	"carbooking/internal/domain/calendar"
)

const DefaultPickupReminderSpec = "0 0 8 * * *"

type BookingDispatcher interface {
	Dispatch(ctx context.Context, event policies.NotificationEvent, id booking.BookingID) error
}

// PickupReminderJob reminds customers of confirmed bookings picked up tomorrow.
type PickupReminderJob struct {
	UoWFactory uow.UoWFactory
	Dispatcher BookingDispatcher
	Now        func() time.Time
	Logger     *slog.Logger
}

func (j *PickupReminderJob) Name() string { return "pickup-reminder" }

func (j *PickupReminderJob) Run(ctx context.Context) error {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	tomorrow := calendar.DateOf(now()).AddDate(0, 0, 1)

	ids, err := j.due(ctx, tomorrow)
	if err != nil {
		return err
	}
	var errs []error
	for _, id := range ids {
		if err := j.Dispatcher.Dispatch(ctx, policies.NotifyPickupReminder, id); err != nil {
			errs = append(errs, err)
		}
	}
	if j.Logger != nil {
		j.Logger.Info("pickup reminders dispatched", "date", calendar.FormatDate(tomorrow), "bookings", len(ids), "failed", len(errs))
	}
	return errors.Join(errs...)
}

func (j *PickupReminderJob) due(ctx context.Context, date time.Time) ([]booking.BookingID, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, j.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	bookings, err := unit.Bookings().ListByPickupDate(execCtx, date)
	if err != nil {
		return nil, err
	}
	ids := make([]booking.BookingID, 0, len(bookings))
	for _, b := range bookings {
		if b.Status == booking.StatusConfirmed {
			ids = append(ids, b.ID)
		}
	}
	return ids, nil
}

var _ Job = (*PickupReminderJob)(nil)
