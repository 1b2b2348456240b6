package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbooking/internal/app/commands"
	"carbooking/internal/app/dto"
	"carbooking/internal/app/middleware"
	appoutbox "carbooking/internal/app/outbox"
	"carbooking/internal/app/policies"
	"carbooking/internal/app/uow"
	domainbooking "carbooking/internal/domain/booking"
	"carbooking/internal/domain/calendar"
	"carbooking/internal/domain/fleet"
	"carbooking/internal/domain/shared/apperr"
	"carbooking/internal/domain/shared/money"
	"carbooking/internal/infra/storage/memory"
)

var fixedNow = time.Date(2030, 6, 1, 9, 0, 0, 0, time.UTC)

type eventSink struct {
	mu   sync.Mutex
	seen []string
}

func (s *eventSink) Deliver(ctx context.Context, rec appoutbox.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, rec.Name)
	return nil
}

func (s *eventSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

type harness struct {
	bus     commands.Bus
	factory memory.Factory
	sink    *eventSink
}

func eur(cents int64) money.Money { return money.Must(cents, "EUR") }

func date(m time.Month, d int) time.Time { return time.Date(2030, m, d, 0, 0, 0, 0, time.UTC) }

func newHarness(t *testing.T, quantity int) *harness {
	t.Helper()
	store := memory.NewStore()
	factory := memory.Factory{Store: store}
	sink := &eventSink{}
	box := memory.NewOutbox(sink, nil)

	v, err := fleet.NewVehicle(fleet.CreateParams{
		ID:            "car-1",
		Name:          "VW Golf",
		DailyRate:     eur(5000),
		TotalQuantity: quantity,
		Extras:        []fleet.ExtraService{{Name: "GPS", DailyRate: eur(1000)}, {Name: "Child seat", DailyRate: eur(0)}},
		Insurance:     fleet.InsuranceOptions{Premium: fleet.PremiumInsurance{Enabled: true, DailyRate: eur(1500)}},
	})
	require.NoError(t, err)
	unit, err := factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Vehicles().Save(context.Background(), v))
	require.NoError(t, unit.Commit(context.Background()))

	deps := Deps{Outbox: box, Now: func() time.Time { return fixedNow }}
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, createBookingKey, &CreateBookingHandler{
		Deps:    deps,
		Numbers: domainbooking.NewSequenceNumberGenerator("CBR", 0),
	})
	commands.RegisterHandler(bus, updateBookingKey, &UpdateBookingHandler{Deps: deps})
	commands.RegisterHandler(bus, transitionStatusKey, &TransitionStatusHandler{Deps: deps})
	commands.RegisterHandler(bus, processRefundKey, &ProcessRefundHandler{Deps: deps})

	chained := middleware.ChainCommands(bus,
		middleware.OutboxFlush(box, nil),
		middleware.Retry([]time.Duration{time.Millisecond}, nil),
		middleware.Transaction(factory, nil),
	)
	return &harness{bus: chained, factory: factory, sink: sink}
}

func createCmd(pickup, ret time.Time) CreateBookingCommand {
	return CreateBookingCommand{
		VehicleID:  "car-1",
		Customer:   CustomerInput{FirstName: "Ana", LastName: "Silva", Email: "ana@example.com", Locale: "pt_PT"},
		PickupDate: pickup,
		PickupTime: calendar.MustClock("10:00"),
		ReturnDate: ret,
		ReturnTime: calendar.MustClock("10:00"),
	}
}

func (h *harness) create(t *testing.T, cmd CreateBookingCommand) *dto.Booking {
	t.Helper()
	out, err := commands.Dispatch[CreateBookingCommand, *dto.Booking](context.Background(), h.bus, cmd)
	require.NoError(t, err)
	return out
}

func TestCreateBooking_PricesAndPersists(t *testing.T) {
	h := newHarness(t, 1)
	cmd := createCmd(date(6, 3), date(6, 5))
	cmd.Extras = []int{0, 1}
	cmd.Insurance = "premium"
	cmd.ManualDiscount = 1000

	b := h.create(t, cmd)

	assert.Equal(t, "CBR000", b.Number)
	assert.Equal(t, "pending", b.Status)
	assert.Equal(t, 2, b.RentalDays)
	assert.Equal(t, "pt-PT", b.Locale)
	assert.Equal(t, int64(10000), b.Price.BaseTotal.Amount)
	assert.Equal(t, int64(2000), b.Price.ExtrasTotal.Amount)
	assert.Equal(t, int64(3000), b.Price.InsuranceTotal.Amount)
	assert.Equal(t, int64(14000), b.Price.FinalTotal.Amount)
	assert.Equal(t, b.Price.FinalTotal.Amount+b.Price.DiscountTotal.Amount, b.Price.LineSum().Amount)
	if assert.Len(t, b.Extras, 2) {
		assert.Equal(t, "GPS", b.Extras[0].Name)
	}
	assert.Equal(t, []string{domainbooking.EventCreated}, h.sink.names())

	reader, err := h.factory.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	vehicle, err := reader.Vehicles().ByID(context.Background(), "car-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), vehicle.BookingVersion)
}

func TestCreateBooking_RejectsWhenNoUnitsLeft(t *testing.T) {
	h := newHarness(t, 1)
	h.create(t, createCmd(date(6, 3), date(6, 6)))

	_, err := commands.Dispatch[CreateBookingCommand, *dto.Booking](context.Background(), h.bus, createCmd(date(6, 5), date(6, 8)))
	require.Error(t, err)
	assert.Equal(t, apperr.CodeAvailability, apperr.CodeOf(err))
	assert.Equal(t, []string{domainbooking.EventCreated}, h.sink.names())

	back := h.create(t, createCmd(date(6, 6), date(6, 8)))
	assert.Equal(t, "CBR001", back.Number)
}

func TestCreateBooking_ClassifiesInputErrors(t *testing.T) {
	h := newHarness(t, 1)
	cases := []struct {
		name string
		mut  func(*CreateBookingCommand)
		code apperr.Code
	}{
		{"unknown vehicle", func(c *CreateBookingCommand) { c.VehicleID = "nope" }, apperr.CodeInvalidVehicle},
		{"return before pickup", func(c *CreateBookingCommand) { c.ReturnDate = date(6, 2) }, apperr.CodeInvalidDateRange},
		{"pickup in the past", func(c *CreateBookingCommand) { c.PickupDate = date(5, 20) }, apperr.CodeInvalidDateRange},
		{"missing customer name", func(c *CreateBookingCommand) { c.Customer.LastName = "" }, apperr.CodeInvalidCustomer},
		{"bad email", func(c *CreateBookingCommand) { c.Customer.Email = "nope" }, apperr.CodeInvalidCustomer},
		{"unknown extra", func(c *CreateBookingCommand) { c.Extras = []int{7} }, apperr.CodeInvalidSelection},
		{"negative discount", func(c *CreateBookingCommand) { c.ManualDiscount = -1 }, apperr.CodeInvalidDiscount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := createCmd(date(6, 3), date(6, 5))
			tc.mut(&cmd)
			_, err := commands.Dispatch[CreateBookingCommand, *dto.Booking](context.Background(), h.bus, cmd)
			require.Error(t, err)
			assert.Equal(t, tc.code, apperr.CodeOf(err))
		})
	}
	assert.Empty(t, h.sink.names())
}

func TestCreateBooking_ReusesCustomerByEmail(t *testing.T) {
	h := newHarness(t, 2)
	first := h.create(t, createCmd(date(6, 3), date(6, 5)))
	cmd := createCmd(date(6, 3), date(6, 5))
	cmd.Customer.Email = "  ANA@example.com "
	cmd.Customer.Phone = "+351 900 000 000"
	second := h.create(t, cmd)

	assert.Equal(t, first.CustomerID, second.CustomerID)
}

func TestCreateBooking_ConcurrentRequestsForLastUnit(t *testing.T) {
	h := newHarness(t, 1)
	const workers = 12

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cmd := createCmd(date(6, 10), date(6, 12))
			cmd.Customer.Email = fmt.Sprintf("driver%d@example.com", i)
			_, err := commands.Dispatch[CreateBookingCommand, *dto.Booking](context.Background(), h.bus, cmd)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			if apperr.CodeOf(err) == apperr.CodeAvailability {
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
}

func TestUpdateBooking_RepricesWhilePending(t *testing.T) {
	h := newHarness(t, 1)
	b := h.create(t, createCmd(date(6, 3), date(6, 5)))

	ret := date(6, 6)
	extras := []int{0}
	out, err := commands.Dispatch[UpdateBookingCommand, *dto.Booking](context.Background(), h.bus, UpdateBookingCommand{
		BookingID:  b.ID,
		ReturnDate: &ret,
		Extras:     &extras,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out.RentalDays)
	assert.Equal(t, int64(15000+3000), out.Price.FinalTotal.Amount)
	assert.Equal(t, "GPS", out.Extras[0].Name)
	assert.Equal(t, []string{domainbooking.EventCreated, domainbooking.EventUpdated}, h.sink.names())
}

func TestUpdateBooking_VehicleSwapRebasesDiscountCurrency(t *testing.T) {
	h := newHarness(t, 1)
	usd, err := fleet.NewVehicle(fleet.CreateParams{ID: "car-us", Name: "Ford Focus", DailyRate: money.Must(4000, "USD"), TotalQuantity: 1})
	require.NoError(t, err)
	unit, err := h.factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Vehicles().Save(context.Background(), usd))
	require.NoError(t, unit.Commit(context.Background()))

	cmd := createCmd(date(6, 3), date(6, 5))
	cmd.ManualDiscount = 1000
	b := h.create(t, cmd)

	vehicleID := "car-us"
	out, err := commands.Dispatch[UpdateBookingCommand, *dto.Booking](context.Background(), h.bus, UpdateBookingCommand{
		BookingID: b.ID,
		VehicleID: &vehicleID,
	})
	require.NoError(t, err)
	assert.Equal(t, "USD", out.Price.FinalTotal.Currency)
	assert.Equal(t, int64(2*4000-1000), out.Price.FinalTotal.Amount)
	assert.Equal(t, dto.MoneyDTO{Amount: 1000, Currency: "USD"}, out.ManualDiscount)
}

func TestUpdateBooking_DoesNotCollideWithItself(t *testing.T) {
	h := newHarness(t, 1)
	b := h.create(t, createCmd(date(6, 3), date(6, 5)))
	pickup := date(6, 4)
	out, err := commands.Dispatch[UpdateBookingCommand, *dto.Booking](context.Background(), h.bus, UpdateBookingCommand{
		BookingID:  b.ID,
		PickupDate: &pickup,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.RentalDays)
}

func TestUpdateBooking_FieldLockAfterConfirmation(t *testing.T) {
	h := newHarness(t, 1)
	b := h.create(t, createCmd(date(6, 3), date(6, 5)))
	_, err := commands.Dispatch[TransitionStatusCommand, *dto.Booking](context.Background(), h.bus, TransitionStatusCommand{BookingID: b.ID, Status: "confirmed"})
	require.NoError(t, err)

	ret := date(6, 7)
	_, err = commands.Dispatch[UpdateBookingCommand, *dto.Booking](context.Background(), h.bus, UpdateBookingCommand{BookingID: b.ID, ReturnDate: &ret})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeFieldLocked, apperr.CodeOf(err))

	location := "Porto downtown"
	pickupTime := calendar.MustClock("12:30")
	out, err := commands.Dispatch[UpdateBookingCommand, *dto.Booking](context.Background(), h.bus, UpdateBookingCommand{
		BookingID:      b.ID,
		PickupLocation: &location,
		PickupTime:     &pickupTime,
	})
	require.NoError(t, err)
	assert.Equal(t, "Porto downtown", out.PickupLocation)
	assert.Equal(t, "12:30", out.PickupTime)
	assert.Equal(t, b.Price.FinalTotal, out.Price.FinalTotal)
}

func TestTransitionStatus_ForwardOnly(t *testing.T) {
	h := newHarness(t, 1)
	b := h.create(t, createCmd(date(6, 3), date(6, 5)))
	ctx := context.Background()

	for _, s := range []string{"confirmed", "active", "completed"} {
		out, err := commands.Dispatch[TransitionStatusCommand, *dto.Booking](ctx, h.bus, TransitionStatusCommand{BookingID: b.ID, Status: s})
		require.NoError(t, err, s)
		assert.Equal(t, s, out.Status)
	}
	_, err := commands.Dispatch[TransitionStatusCommand, *dto.Booking](ctx, h.bus, TransitionStatusCommand{BookingID: b.ID, Status: "cancelled"})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidTransition, apperr.CodeOf(err))

	_, err = commands.Dispatch[TransitionStatusCommand, *dto.Booking](ctx, h.bus, TransitionStatusCommand{BookingID: b.ID, Status: "pending"})
	assert.Equal(t, apperr.CodeInvalidTransition, apperr.CodeOf(err))
}

func TestTransitionStatus_CancelWithRefundFreesTheUnit(t *testing.T) {
	h := newHarness(t, 1)
	b := h.create(t, createCmd(date(6, 3), date(6, 5)))
	ctx := context.Background()

	out, err := commands.Dispatch[TransitionStatusCommand, *dto.Booking](ctx, h.bus, TransitionStatusCommand{
		BookingID: b.ID,
		Status:    "cancelled",
		Reason:    "flight cancelled",
		Refund:    &RefundInput{Amount: 4000, Reason: "goodwill"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", out.Status)
	assert.Equal(t, "flight cancelled", out.CancellationReason)
	assert.Equal(t, int64(4000), out.RefundedTotal.Amount)

	again := h.create(t, createCmd(date(6, 3), date(6, 5)))
	assert.Equal(t, "CBR001", again.Number)
}

func TestProcessRefund_CumulativeCap(t *testing.T) {
	h := newHarness(t, 1)
	b := h.create(t, createCmd(date(6, 3), date(6, 5)))
	ctx := context.Background()

	out, err := commands.Dispatch[ProcessRefundCommand, *dto.Booking](ctx, h.bus, ProcessRefundCommand{BookingID: b.ID, Amount: 6000})
	require.NoError(t, err)
	assert.Equal(t, "pending", out.Status)

	_, err = commands.Dispatch[ProcessRefundCommand, *dto.Booking](ctx, h.bus, ProcessRefundCommand{BookingID: b.ID, Amount: 5000})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidRefund, apperr.CodeOf(err))

	out, err = commands.Dispatch[ProcessRefundCommand, *dto.Booking](ctx, h.bus, ProcessRefundCommand{BookingID: b.ID, Amount: 5000, Override: true})
	require.NoError(t, err)
	assert.Equal(t, int64(11000), out.RefundedTotal.Amount)
	assert.Len(t, out.Refunds, 2)

	_, err = commands.Dispatch[ProcessRefundCommand, *dto.Booking](ctx, h.bus, ProcessRefundCommand{BookingID: b.ID, Amount: 0})
	assert.Equal(t, apperr.CodeInvalidRefund, apperr.CodeOf(err))
}

func TestRefundOnlyAccompaniesCancellation(t *testing.T) {
	h := newHarness(t, 1)
	b := h.create(t, createCmd(date(6, 3), date(6, 5)))
	_, err := commands.Dispatch[TransitionStatusCommand, *dto.Booking](context.Background(), h.bus, TransitionStatusCommand{
		BookingID: b.ID,
		Status:    "confirmed",
		Refund:    &RefundInput{Amount: 100},
	})
	assert.Equal(t, apperr.CodeInvalidRefund, apperr.CodeOf(err))
}

func TestPricingPolicy_LastDayRateMode(t *testing.T) {
	v, err := fleet.NewVehicle(fleet.CreateParams{
		ID: "car-2", Name: "Clio", DailyRate: eur(5000), TotalQuantity: 1,
		CustomRates: []fleet.CustomRate{{Type: fleet.RateDateRange, StartDate: date(6, 4), EndDate: date(6, 4), DailyRate: eur(8000)}},
		Misc:        fleet.Misc{LateReturnRule: true, LateReturnTime: calendar.MustClock("12:00")},
	})
	require.NoError(t, err)
	req := policies.QuoteRequest{
		PickupDate: date(6, 3), PickupTime: calendar.MustClock("10:00"),
		ReturnDate: date(6, 4), ReturnTime: calendar.MustClock("15:00"),
	}
	blended, err := policies.PricingPolicy{}.Quote(v, req)
	require.NoError(t, err)
	last, err := policies.PricingPolicy{LatePenalty: "last_day_rate"}.Quote(v, req)
	require.NoError(t, err)

	assert.True(t, blended.Days.LateReturnApplied)
	assert.Equal(t, 3, blended.Days.Days)
	assert.Equal(t, int64(6500), blended.Price.LateReturnPenalty.Amount)
	assert.Equal(t, int64(8000), last.Price.LateReturnPenalty.Amount)
}
