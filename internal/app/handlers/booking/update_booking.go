package booking

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"carbooking/internal/app/commands"
	"carbooking/internal/app/dto"
	"carbooking/internal/app/handlers/support"
	"carbooking/internal/app/middleware"
	"carbooking/internal/app/policies"
	domainbooking "carbooking/internal/domain/booking"
	"carbooking/internal/domain/calendar"
	"carbooking/internal/domain/fleet"
	"carbooking/internal/domain/pricing"
	"carbooking/internal/domain/shared/money"
)

const updateBookingKey = "booking.update"

// UpdateBookingCommand is a partial edit; nil fields are left as they are.
type UpdateBookingCommand struct {
	BookingID       string          `json:"booking_id" validate:"required"`
	VehicleID       *string         `json:"vehicle_id"`
	PickupDate      *time.Time      `json:"pickup_date"`
	PickupTime      *calendar.Clock `json:"pickup_time"`
	ReturnDate      *time.Time      `json:"return_date"`
	ReturnTime      *calendar.Clock `json:"return_time"`
	PickupLocation  *string         `json:"pickup_location"`
	ReturnLocation  *string         `json:"return_location"`
	HomeDelivery    *bool           `json:"home_delivery"`
	DeliveryAddress *string         `json:"delivery_address"`
	Extras          *[]int          `json:"selected_extras"`
	Insurance       *string         `json:"selected_insurance"`
	ManualDiscount  *int64          `json:"manual_discount"`
	InternalNotes   *string         `json:"internal_notes"`
	CustomerNotes   *string         `json:"customer_notes"`
	IdempotencyKeyV string          `json:"-"`
}

func (c UpdateBookingCommand) Key() string { return updateBookingKey }

func (c UpdateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c UpdateBookingCommand) ResultPrototype() any { return &dto.Booking{} }

func (c UpdateBookingCommand) changes(currency string) domainbooking.Changes {
	ch := domainbooking.Changes{
		PickupDate:      c.PickupDate,
		PickupTime:      c.PickupTime,
		ReturnDate:      c.ReturnDate,
		ReturnTime:      c.ReturnTime,
		PickupLocation:  c.PickupLocation,
		ReturnLocation:  c.ReturnLocation,
		HomeDelivery:    c.HomeDelivery,
		DeliveryAddress: c.DeliveryAddress,
		Extras:          c.Extras,
		InternalNotes:   c.InternalNotes,
		CustomerNotes:   c.CustomerNotes,
	}
	if c.VehicleID != nil {
		id := fleet.VehicleID(*c.VehicleID)
		ch.VehicleID = &id
	}
	if c.Insurance != nil {
		tier := pricing.InsuranceTier(*c.Insurance)
		ch.Insurance = &tier
	}
	if c.ManualDiscount != nil {
		discount := money.Money{Amount: *c.ManualDiscount, Currency: currency}
		ch.ManualDiscount = &discount
	}
	return ch
}

type UpdateBookingHandler struct {
	Deps
	Pricing policies.PricingPolicy
	Logger  *slog.Logger
}

func (h *UpdateBookingHandler) Handle(ctx context.Context, cmd UpdateBookingCommand) (*dto.Booking, error) {
	res, err := h.handle(ctx, cmd)
	if err != nil {
		return nil, support.Classify(err)
	}
	return res, nil
}

func (h *UpdateBookingHandler) handle(ctx context.Context, cmd UpdateBookingCommand) (*dto.Booking, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	now := h.now()
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}

	changes := cmd.changes(b.Price.Currency())
	reprice := changes.AffectsPrice(b)
	changed, err := b.ApplyChanges(changes, now)
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		out := dto.MapBooking(b)
		return &out, nil
	}

	if reprice {
		if slices.Contains(changed, domainbooking.FieldPickupDate) {
			if err := domainbooking.ValidatePickupDate(b.PickupDate, now); err != nil {
				return nil, err
			}
		}
		vehicle, err := unit.Vehicles().ByID(ctx, b.VehicleID)
		if err != nil {
			return nil, err
		}
		// The discount amount follows the booking; its currency follows the
		// vehicle being priced.
		discount := money.Money{Amount: b.ManualDiscount.Amount, Currency: vehicle.Currency()}
		quote, err := h.Pricing.Quote(vehicle, policies.QuoteRequest{
			PickupDate:     b.PickupDate,
			PickupTime:     b.PickupTime,
			ReturnDate:     b.ReturnDate,
			ReturnTime:     b.ReturnTime,
			Extras:         b.ExtraIndexes(),
			Insurance:      b.Insurance,
			ManualDiscount: discount,
		})
		if err != nil {
			return nil, err
		}
		if err := ensureAvailable(ctx, unit, vehicle, b.PickupDate, b.ReturnDate, b.ID); err != nil {
			return nil, err
		}
		if err := b.Reprice(quote, now); err != nil {
			return nil, err
		}
		if err := claimVehicle(ctx, unit, vehicle); err != nil {
			return nil, err
		}
	}

	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := support.RecordEvents(ctx, unit, h.Outbox, h.Encoder, b.Drain(), h.Logger); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking updated", "booking", b.Number, "fields", changed, "repriced", reprice)
	}
	out := dto.MapBooking(b)
	return &out, nil
}

var _ commands.Handler[UpdateBookingCommand, *dto.Booking] = (*UpdateBookingHandler)(nil)
var _ middleware.IdempotentCommand = UpdateBookingCommand{}
