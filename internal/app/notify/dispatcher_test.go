package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"carbooking/internal/app/dto"
	"carbooking/internal/app/outbox"
	"carbooking/internal/app/policies"
	"carbooking/internal/app/uow"
	domainbooking "carbooking/internal/domain/booking"
	"carbooking/internal/domain/calendar"
	"carbooking/internal/domain/customer"
	"carbooking/internal/domain/pricing"
	"carbooking/internal/domain/shared/money"
	"carbooking/internal/infra/storage/memory"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, n policies.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type mockArchiver struct {
	mock.Mock
}

func (m *mockArchiver) ArchivePrice(ctx context.Context, b dto.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func seed(t *testing.T) memory.Factory {
	t.Helper()
	ctx := context.Background()
	f := memory.Factory{Store: memory.NewStore()}
	c, err := customer.NewCustomer(customer.CreateParams{ID: "c-1", FirstName: "Lena", LastName: "Berg", Email: "lena@example.com", Locale: "de"})
	require.NoError(t, err)
	pickup := time.Date(2030, 7, 1, 0, 0, 0, 0, time.UTC)
	price := pricing.Breakdown{Days: 1, FinalTotal: money.Must(5000, "EUR")}
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID: "b-1", Number: "CBR007", VehicleID: "car-1", CustomerID: c.ID,
		PickupDate: pickup, PickupTime: calendar.MustClock("09:00"),
		ReturnDate: pickup.AddDate(0, 0, 1), ReturnTime: calendar.MustClock("09:00"),
		Quote:  domainbooking.Quote{Days: calendar.RentalDays{Days: 1}, Price: price},
		Locale: c.Locale,
	})
	require.NoError(t, err)

	unit, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Customers().Save(ctx, c))
	require.NoError(t, unit.Bookings().Save(ctx, b))
	require.NoError(t, unit.Commit(ctx))
	return f
}

func TestDispatcher_DeliversCreatedWithSnapshotAndArchive(t *testing.T) {
	notifier := &mockNotifier{}
	archiver := &mockArchiver{}
	d := &Dispatcher{UoWFactory: seed(t), Notifier: notifier, Archiver: archiver}

	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n policies.Notification) bool {
		return n.Event == policies.NotifyCreated && n.Locale == "de" && n.Booking.Number == "CBR007" && n.Customer.Email == "lena@example.com"
	})).Return(nil).Once()
	archiver.On("ArchivePrice", mock.Anything, mock.MatchedBy(func(b dto.Booking) bool { return b.ID == "b-1" })).Return(nil).Once()

	err := d.Deliver(context.Background(), outbox.EventRecord{Name: domainbooking.EventCreated, Aggregate: "b-1"})
	require.NoError(t, err)
	notifier.AssertExpectations(t)
	archiver.AssertExpectations(t)
}

func TestDispatcher_StatusChangeSkipsArchive(t *testing.T) {
	notifier := &mockNotifier{}
	archiver := &mockArchiver{}
	d := &Dispatcher{UoWFactory: seed(t), Notifier: notifier, Archiver: archiver}
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Once()

	require.NoError(t, d.Deliver(context.Background(), outbox.EventRecord{Name: domainbooking.EventStatusChanged, Aggregate: "b-1"}))
	archiver.AssertNotCalled(t, "ArchivePrice", mock.Anything, mock.Anything)
}

func TestDispatcher_IgnoresRefundEvents(t *testing.T) {
	notifier := &mockNotifier{}
	d := &Dispatcher{UoWFactory: seed(t), Notifier: notifier}

	require.NoError(t, d.Deliver(context.Background(), outbox.EventRecord{Name: domainbooking.EventRefunded, Aggregate: "b-1"}))
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestDispatcher_NotifierFailureIsSwallowed(t *testing.T) {
	notifier := &mockNotifier{}
	d := &Dispatcher{UoWFactory: seed(t), Notifier: notifier}
	notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("mail relay down"))

	assert.NoError(t, d.Dispatch(context.Background(), policies.NotifyUpdated, "b-1"))
}

func TestDispatcher_UnknownBooking(t *testing.T) {
	d := &Dispatcher{UoWFactory: seed(t), Notifier: &mockNotifier{}}
	err := d.Dispatch(context.Background(), policies.NotifyUpdated, "missing")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}

func TestDispatcher_AppliesTimeout(t *testing.T) {
	notifier := &mockNotifier{}
	d := &Dispatcher{UoWFactory: seed(t), Notifier: notifier, Timeout: 50 * time.Millisecond}
	notifier.On("Notify", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= 50*time.Millisecond
	}), mock.Anything).Return(nil).Once()

	require.NoError(t, d.Dispatch(context.Background(), policies.NotifyStatusChanged, "b-1"))
	notifier.AssertExpectations(t)
}
