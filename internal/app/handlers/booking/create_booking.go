package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"carbooking/internal/app/commands"
	"carbooking/internal/app/dto"
	"carbooking/internal/app/handlers/support"
	"carbooking/internal/app/middleware"
	"carbooking/internal/app/policies"
	"carbooking/internal/app/uow"
	domainbooking "carbooking/internal/domain/booking"
	"carbooking/internal/domain/calendar"
	"carbooking/internal/domain/customer"
	"carbooking/internal/domain/fleet"
	"carbooking/internal/domain/pricing"
	"carbooking/internal/domain/shared/money"
)

const createBookingKey = "booking.create"

type CustomerInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Locale    string `json:"locale"`
}

type CreateBookingCommand struct {
	VehicleID       string         `json:"vehicle_id" validate:"required"`
	Customer        CustomerInput  `json:"customer"`
	PickupDate      time.Time      `json:"pickup_date" validate:"required"`
	PickupTime      calendar.Clock `json:"pickup_time"`
	ReturnDate      time.Time      `json:"return_date" validate:"required"`
	ReturnTime      calendar.Clock `json:"return_time"`
	PickupLocation  string         `json:"pickup_location"`
	ReturnLocation  string         `json:"return_location"`
	HomeDelivery    bool           `json:"home_delivery"`
	DeliveryAddress string         `json:"delivery_address"`
	Extras          []int          `json:"selected_extras"`
	Insurance       string         `json:"selected_insurance"`
	ManualDiscount  int64          `json:"manual_discount"`
	InternalNotes   string         `json:"internal_notes"`
	CustomerNotes   string         `json:"customer_notes"`
	IdempotencyKeyV string         `json:"-"`
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &dto.Booking{} }

type CreateBookingHandler struct {
	Deps
	Pricing        policies.PricingPolicy
	Numbers        domainbooking.NumberGenerator
	NumberAttempts int
	Logger         *slog.Logger
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.Booking, error) {
	res, err := h.handle(ctx, cmd)
	if err != nil {
		return nil, support.Classify(err)
	}
	return res, nil
}

func (h *CreateBookingHandler) handle(ctx context.Context, cmd CreateBookingCommand) (*dto.Booking, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	now := h.now()
	if err := domainbooking.ValidatePickupDate(cmd.PickupDate, now); err != nil {
		return nil, err
	}

	vehicle, err := unit.Vehicles().ByID(ctx, fleet.VehicleID(cmd.VehicleID))
	if err != nil {
		return nil, err
	}
	quote, err := h.Pricing.Quote(vehicle, policies.QuoteRequest{
		PickupDate:     cmd.PickupDate,
		PickupTime:     cmd.PickupTime,
		ReturnDate:     cmd.ReturnDate,
		ReturnTime:     cmd.ReturnTime,
		Extras:         cmd.Extras,
		Insurance:      pricing.InsuranceTier(cmd.Insurance),
		ManualDiscount: money.Money{Amount: cmd.ManualDiscount, Currency: vehicle.Currency()},
	})
	if err != nil {
		return nil, err
	}
	if err := ensureAvailable(ctx, unit, vehicle, cmd.PickupDate, cmd.ReturnDate, ""); err != nil {
		return nil, err
	}

	cust, err := h.upsertCustomer(ctx, unit, cmd.Customer, now)
	if err != nil {
		return nil, err
	}

	number, err := domainbooking.AssignNumber(ctx, h.Numbers, unit.Bookings().NumberExists, h.NumberAttempts)
	if err != nil {
		return nil, err
	}

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:              domainbooking.BookingID(h.newID()),
		Number:          number,
		VehicleID:       vehicle.ID,
		CustomerID:      cust.ID,
		PickupDate:      cmd.PickupDate,
		PickupTime:      cmd.PickupTime,
		ReturnDate:      cmd.ReturnDate,
		ReturnTime:      cmd.ReturnTime,
		PickupLocation:  cmd.PickupLocation,
		ReturnLocation:  cmd.ReturnLocation,
		HomeDelivery:    cmd.HomeDelivery,
		DeliveryAddress: cmd.DeliveryAddress,
		Insurance:       pricing.InsuranceTier(cmd.Insurance),
		ManualDiscount:  money.Money{Amount: cmd.ManualDiscount, Currency: vehicle.Currency()},
		Quote:           quote,
		InternalNotes:   cmd.InternalNotes,
		CustomerNotes:   cmd.CustomerNotes,
		Locale:          cust.Locale,
		CreatedAt:       now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := claimVehicle(ctx, unit, vehicle); err != nil {
		return nil, err
	}
	if err := support.RecordEvents(ctx, unit, h.Outbox, h.Encoder, b.Drain(), h.Logger); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking created", "booking", b.Number, "vehicle", vehicle.ID, "total", b.Price.FinalTotal.String())
	}
	out := dto.MapBooking(b)
	return &out, nil
}

// upsertCustomer finds the customer by email, refreshing contact details, or
// creates a new record.
func (h *CreateBookingHandler) upsertCustomer(ctx context.Context, unit uow.UnitOfWork, in CustomerInput, now time.Time) (*customer.Customer, error) {
	existing, err := unit.Customers().ByEmail(ctx, customer.NormalizeEmail(in.Email))
	switch {
	case err == nil:
		existing.UpdateContact(in.FirstName, in.LastName, in.Phone, in.Locale, now)
		if err := existing.Validate(); err != nil {
			return nil, err
		}
		if err := unit.Customers().Save(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	case errors.Is(err, customer.ErrNotFound):
		c, err := customer.NewCustomer(customer.CreateParams{
			ID:        customer.ID(h.newID()),
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Email:     in.Email,
			Phone:     in.Phone,
			Locale:    in.Locale,
			CreatedAt: now,
		})
		if err != nil {
			return nil, err
		}
		if err := unit.Customers().Save(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, err
	}
}

var _ commands.Handler[CreateBookingCommand, *dto.Booking] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = CreateBookingCommand{}
