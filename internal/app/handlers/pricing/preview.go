package pricing

import (
	"context"
	"time"

	"carbooking/internal/app/dto"
	"carbooking/internal/app/handlers/support"
	"carbooking/internal/app/policies"
	"carbooking/internal/app/queries"
	"carbooking/internal/app/uow"
	"carbooking/internal/domain/availability"
	"carbooking/internal/domain/calendar"
	"carbooking/internal/domain/fleet"
	domainpricing "carbooking/internal/domain/pricing"
	"carbooking/internal/domain/shared/money"
)

const previewPriceKey = "pricing.preview"

type PreviewPriceQuery struct {
	VehicleID      string         `json:"vehicle_id" validate:"required"`
	PickupDate     time.Time      `json:"pickup_date" validate:"required"`
	PickupTime     calendar.Clock `json:"pickup_time"`
	ReturnDate     time.Time      `json:"return_date" validate:"required"`
	ReturnTime     calendar.Clock `json:"return_time"`
	Extras         []int          `json:"selected_extras"`
	Insurance      string         `json:"selected_insurance"`
	ManualDiscount int64          `json:"manual_discount"`
}

func (q PreviewPriceQuery) Key() string { return previewPriceKey }

// PreviewPriceHandler prices a selection for display. Availability is reported
// alongside but does not block the quote.
type PreviewPriceHandler struct {
	UoWFactory uow.UoWFactory
	Pricing    policies.PricingPolicy
}

func (h *PreviewPriceHandler) Handle(ctx context.Context, q PreviewPriceQuery) (dto.PriceQuote, error) {
	res, err := h.handle(ctx, q)
	return res, support.Classify(err)
}

func (h *PreviewPriceHandler) handle(ctx context.Context, q PreviewPriceQuery) (dto.PriceQuote, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PriceQuote{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	vehicle, err := unit.Vehicles().ByID(execCtx, fleet.VehicleID(q.VehicleID))
	if err != nil {
		return dto.PriceQuote{}, err
	}
	quote, err := h.Pricing.Quote(vehicle, policies.QuoteRequest{
		PickupDate:     q.PickupDate,
		PickupTime:     q.PickupTime,
		ReturnDate:     q.ReturnDate,
		ReturnTime:     q.ReturnTime,
		Extras:         q.Extras,
		Insurance:      domainpricing.InsuranceTier(q.Insurance),
		ManualDiscount: money.Money{Amount: q.ManualDiscount, Currency: vehicle.Currency()},
	})
	if err != nil {
		return dto.PriceQuote{}, err
	}
	bookings, err := unit.Bookings().ListByVehicle(execCtx, vehicle.ID)
	if err != nil {
		return dto.PriceQuote{}, err
	}
	occupancies := make([]availability.Occupancy, 0, len(bookings))
	for _, b := range bookings {
		occupancies = append(occupancies, b.Occupancy())
	}
	start, end := availability.Window(q.PickupDate, q.ReturnDate)
	avail, err := availability.Check(vehicle, start, end, occupancies)
	if err != nil {
		return dto.PriceQuote{}, err
	}
	return dto.PriceQuote{
		VehicleID:         string(vehicle.ID),
		RentalDays:        quote.Days.Days,
		LateReturnApplied: quote.Days.LateReturnApplied,
		Breakdown:         quote.Price,
		IsAvailable:       avail.IsAvailable,
		AvailableQuantity: avail.AvailableQuantity,
	}, nil
}

var _ queries.Handler[PreviewPriceQuery, dto.PriceQuote] = (*PreviewPriceHandler)(nil)
