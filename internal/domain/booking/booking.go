package booking

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"carbooking/internal/domain/availability"
	"carbooking/internal/domain/calendar"
	"carbooking/internal/domain/customer"
	"carbooking/internal/domain/fleet"
	"carbooking/internal/domain/pricing"
	"carbooking/internal/domain/shared/daterange"
	"carbooking/internal/domain/shared/events"
	"carbooking/internal/domain/shared/money"
)

var (
	ErrBookingNotFound    = errors.New("booking: not found")
	ErrIDRequired         = errors.New("booking: id is required")
	ErrNumberRequired     = errors.New("booking: booking number is required")
	ErrVehicleRequired    = errors.New("booking: vehicle is required")
	ErrCustomerRequired   = errors.New("booking: customer is required")
	ErrPickupInPast       = errors.New("booking: pickup date is in the past")
	ErrInvalidPrice       = errors.New("booking: price breakdown is invalid")
	ErrRefundAmount       = errors.New("booking: refund amount must be positive")
	ErrRefundExceedsTotal = errors.New("booking: refund exceeds the amount still refundable")
)

type BookingID string

// SelectedExtra freezes the extra's name and rate at pricing time.
type SelectedExtra struct {
	Index     int         `json:"index"`
	Name      string      `json:"name"`
	DailyRate money.Money `json:"daily_rate"`
}

type Refund struct {
	ID          string
	Amount      money.Money
	Reason      string
	Override    bool
	ProcessedAt time.Time
}

type Booking struct {
	ID                 BookingID
	Number             string
	VehicleID          fleet.VehicleID
	CustomerID         customer.ID
	PickupDate         time.Time
	PickupTime         calendar.Clock
	ReturnDate         time.Time
	ReturnTime         calendar.Clock
	PickupLocation     string
	ReturnLocation     string
	HomeDelivery       bool
	DeliveryAddress    string
	RentalDays         int
	LateReturnApplied  bool
	Extras             []SelectedExtra
	Insurance          pricing.InsuranceTier
	ManualDiscount     money.Money
	Price              pricing.Breakdown
	Status             Status
	CancellationReason string
	InternalNotes      string
	CustomerNotes      string
	Refunds            []Refund
	Locale             string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Version            int64
	events.Recorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	ByNumber(ctx context.Context, number string) (*Booking, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	ListByVehicle(ctx context.Context, vehicleID fleet.VehicleID) ([]*Booking, error)
	ListByPickupDate(ctx context.Context, date time.Time) ([]*Booking, error)
	Save(ctx context.Context, b *Booking) error
}

// Quote is the outcome of pricing a booking: the billable days, the frozen
// extras and the breakdown.
type Quote struct {
	Days   calendar.RentalDays
	Extras []SelectedExtra
	Price  pricing.Breakdown
}

type CreateParams struct {
	ID              BookingID
	Number          string
	VehicleID       fleet.VehicleID
	CustomerID      customer.ID
	PickupDate      time.Time
	PickupTime      calendar.Clock
	ReturnDate      time.Time
	ReturnTime      calendar.Clock
	PickupLocation  string
	ReturnLocation  string
	HomeDelivery    bool
	DeliveryAddress string
	Insurance       pricing.InsuranceTier
	ManualDiscount  money.Money
	Quote           Quote
	InternalNotes   string
	CustomerNotes   string
	Locale          string
	CreatedAt       time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(params.Number) == "" {
		return nil, ErrNumberRequired
	}
	if params.VehicleID == "" {
		return nil, ErrVehicleRequired
	}
	if params.CustomerID == "" {
		return nil, ErrCustomerRequired
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	insurance := params.Insurance
	if insurance == "" {
		insurance = pricing.InsuranceBasic
	}
	b := &Booking{
		ID:              params.ID,
		Number:          strings.TrimSpace(params.Number),
		VehicleID:       params.VehicleID,
		CustomerID:      params.CustomerID,
		PickupDate:      calendar.DateOf(params.PickupDate),
		PickupTime:      params.PickupTime,
		ReturnDate:      calendar.DateOf(params.ReturnDate),
		ReturnTime:      params.ReturnTime,
		PickupLocation:  strings.TrimSpace(params.PickupLocation),
		ReturnLocation:  strings.TrimSpace(params.ReturnLocation),
		HomeDelivery:    params.HomeDelivery,
		DeliveryAddress: strings.TrimSpace(params.DeliveryAddress),
		Insurance:       insurance,
		ManualDiscount:  params.ManualDiscount,
		Status:          StatusPending,
		InternalNotes:   params.InternalNotes,
		CustomerNotes:   params.CustomerNotes,
		Locale:          customer.NormalizeLocale(params.Locale),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := b.validateSchedule(); err != nil {
		return nil, err
	}
	if err := b.applyQuote(params.Quote); err != nil {
		return nil, err
	}
	b.Record(BookingCreated{
		BookingID:  b.ID,
		Number:     b.Number,
		VehicleID:  b.VehicleID,
		CustomerID: b.CustomerID,
		PickupDate: b.PickupDate,
		ReturnDate: b.ReturnDate,
		Total:      b.Price.FinalTotal,
		At:         now,
	})
	return b, nil
}

// Reprice replaces the frozen price after a pricing-relevant edit.
func (b *Booking) Reprice(q Quote, now time.Time) error {
	if err := b.applyQuote(q); err != nil {
		return err
	}
	b.touch(now)
	return nil
}

func (b *Booking) applyQuote(q Quote) error {
	if q.Days.Days < 1 || q.Price.Days != q.Days.Days || q.Price.FinalTotal.IsNegative() {
		return ErrInvalidPrice
	}
	b.RentalDays = q.Days.Days
	b.LateReturnApplied = q.Days.LateReturnApplied
	b.Extras = slices.Clone(q.Extras)
	b.Price = q.Price.Copy()
	b.ManualDiscount.Currency = b.Price.Currency()
	return nil
}

// Transition moves the booking one step forward. Cancellation is allowed from
// every non-terminal status.
func (b *Booking) Transition(to Status, now time.Time) error {
	if to == StatusCancelled {
		return b.Cancel("", now)
	}
	if !b.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
	}
	from := b.Status
	b.Status = to
	b.touch(now)
	b.Record(BookingStatusChanged{BookingID: b.ID, Number: b.Number, From: from, To: to, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Cancel(reason string, now time.Time) error {
	if b.Status.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, StatusCancelled)
	}
	from := b.Status
	b.Status = StatusCancelled
	b.CancellationReason = strings.TrimSpace(reason)
	b.touch(now)
	b.Record(BookingStatusChanged{BookingID: b.ID, Number: b.Number, From: from, To: StatusCancelled, Reason: b.CancellationReason, At: b.UpdatedAt})
	return nil
}

// RecordRefund stores refund metadata without touching the status. Without an
// operator override the refunds may not exceed the final total.
func (b *Booking) RecordRefund(id string, amount money.Money, reason string, override bool, now time.Time) (Refund, error) {
	if amount.Amount <= 0 {
		return Refund{}, ErrRefundAmount
	}
	if amount.Currency != b.Price.Currency() {
		return Refund{}, money.ErrCurrencyMismatch
	}
	if !override && amount.Amount > b.Refundable().Amount {
		return Refund{}, fmt.Errorf("%w: %s requested, %s left", ErrRefundExceedsTotal, amount, b.Refundable())
	}
	b.touch(now)
	refund := Refund{
		ID:          id,
		Amount:      amount,
		Reason:      strings.TrimSpace(reason),
		Override:    override,
		ProcessedAt: b.UpdatedAt,
	}
	b.Refunds = append(b.Refunds, refund)
	b.Record(BookingRefunded{BookingID: b.ID, Number: b.Number, RefundID: id, Amount: amount, Reason: refund.Reason, Override: override, At: b.UpdatedAt})
	return refund, nil
}

func (b *Booking) RefundedTotal() money.Money {
	total := money.Zero(b.Price.Currency())
	for _, r := range b.Refunds {
		total.Amount += r.Amount.Amount
	}
	return total
}

// Refundable is the final total minus refunds already made, never negative.
func (b *Booking) Refundable() money.Money {
	left := b.Price.FinalTotal
	left.Amount -= b.RefundedTotal().Amount
	return left.ClampZero()
}

func (b *Booking) ExtraIndexes() []int {
	out := make([]int, 0, len(b.Extras))
	for _, e := range b.Extras {
		out = append(out, e.Index)
	}
	return out
}

func (b *Booking) PickupAt() time.Time {
	return calendar.Instant(b.PickupDate, b.PickupTime)
}

func (b *Booking) ReturnAt() time.Time {
	return calendar.Instant(b.ReturnDate, b.ReturnTime)
}

// Occupancy projects the booking onto the calendar days it holds a unit.
func (b *Booking) Occupancy() availability.Occupancy {
	start, end := availability.Window(b.PickupDate, b.ReturnDate)
	return availability.Occupancy{
		BookingID: string(b.ID),
		Range:     daterange.DateRange{Start: start, End: end},
		Cancelled: b.Status == StatusCancelled,
	}
}

func (b *Booking) validateSchedule() error {
	if !b.ReturnAt().After(b.PickupAt()) {
		return calendar.ErrInvalidRange
	}
	return nil
}

func (b *Booking) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	b.UpdatedAt = now.UTC()
}

// ValidatePickupDate rejects pickups on a calendar day before today.
func ValidatePickupDate(pickupDate, now time.Time) error {
	if calendar.DateOf(pickupDate).Before(calendar.DateOf(now)) {
		return ErrPickupInPast
	}
	return nil
}
