package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"carbooking/internal/app/policies"
	"carbooking/internal/app/uow"
	"carbooking/internal/domain/booking"
	"carbooking/internal/domain/calendar"
	"carbooking/internal/domain/pricing"
	"carbooking/internal/domain/shared/money"
	"carbooking/internal/infra/storage/memory"
)

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Dispatch(ctx context.Context, event policies.NotificationEvent, id booking.BookingID) error {
	return m.Called(ctx, event, id).Error(0)
}

func newBooking(t *testing.T, id string, pickup time.Time, status booking.Status) *booking.Booking {
	t.Helper()
	b, err := booking.NewBooking(booking.CreateParams{
		ID: booking.BookingID(id), Number: "CBR-" + id, VehicleID: "car-1", CustomerID: "c-1",
		PickupDate: pickup, PickupTime: calendar.MustClock("09:00"),
		ReturnDate: pickup.AddDate(0, 0, 2), ReturnTime: calendar.MustClock("09:00"),
		Quote: booking.Quote{Days: calendar.RentalDays{Days: 2}, Price: pricing.Breakdown{Days: 2, FinalTotal: money.Must(10000, "EUR")}},
	})
	require.NoError(t, err)
	if status != booking.StatusPending {
		require.NoError(t, b.Transition(status, time.Time{}))
	}
	return b
}

func TestPickupReminderJob_RemindsConfirmedBookingsForTomorrow(t *testing.T) {
	ctx := context.Background()
	f := memory.Factory{Store: memory.NewStore()}
	tomorrow := time.Date(2030, 8, 11, 0, 0, 0, 0, time.UTC)

	unit, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	for _, b := range []*booking.Booking{
		newBooking(t, "due", tomorrow, booking.StatusConfirmed),
		newBooking(t, "pending", tomorrow, booking.StatusPending),
		newBooking(t, "later", tomorrow.AddDate(0, 0, 1), booking.StatusConfirmed),
	} {
		require.NoError(t, unit.Bookings().Save(ctx, b))
	}
	require.NoError(t, unit.Commit(ctx))

	dispatcher := &mockDispatcher{}
	dispatcher.On("Dispatch", mock.Anything, policies.NotifyPickupReminder, booking.BookingID("due")).Return(nil).Once()

	job := &PickupReminderJob{
		UoWFactory: f,
		Dispatcher: dispatcher,
		Now:        func() time.Time { return time.Date(2030, 8, 10, 8, 0, 0, 0, time.UTC) },
	}
	require.NoError(t, job.Run(ctx))
	dispatcher.AssertExpectations(t)
	dispatcher.AssertNumberOfCalls(t, "Dispatch", 1)
	assert.Equal(t, "pickup-reminder", job.Name())
}
