package availability

import (
	"context"
	"time"

	"carbooking/internal/app/dto"
	"carbooking/internal/app/handlers/support"
	"carbooking/internal/app/queries"
	"carbooking/internal/app/uow"
	domainavailability "carbooking/internal/domain/availability"
	"carbooking/internal/domain/calendar"
	"carbooking/internal/domain/fleet"
)

const checkAvailabilityKey = "availability.check"

type CheckAvailabilityQuery struct {
	VehicleID  string    `json:"vehicle_id" validate:"required"`
	PickupDate time.Time `json:"pickup_date" validate:"required"`
	ReturnDate time.Time `json:"return_date" validate:"required"`
	// ExcludeBookingID leaves one booking out, for re-checking an edit.
	ExcludeBookingID string `json:"exclude_booking_id"`
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.Availability, error) {
	res, err := h.handle(ctx, q)
	return res, support.Classify(err)
}

func (h *CheckAvailabilityHandler) handle(ctx context.Context, q CheckAvailabilityQuery) (dto.Availability, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Availability{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	vehicle, err := unit.Vehicles().ByID(execCtx, fleet.VehicleID(q.VehicleID))
	if err != nil {
		return dto.Availability{}, err
	}
	bookings, err := unit.Bookings().ListByVehicle(execCtx, vehicle.ID)
	if err != nil {
		return dto.Availability{}, err
	}
	occupancies := make([]domainavailability.Occupancy, 0, len(bookings))
	for _, b := range bookings {
		occupancies = append(occupancies, b.Occupancy())
	}
	var opts []domainavailability.Option
	if q.ExcludeBookingID != "" {
		opts = append(opts, domainavailability.Exclude(q.ExcludeBookingID))
	}
	res, err := domainavailability.Check(vehicle, q.PickupDate, q.ReturnDate, occupancies, opts...)
	if err != nil {
		return dto.Availability{}, err
	}
	return dto.MapAvailability(string(vehicle.ID), calendar.FormatDate(q.PickupDate), calendar.FormatDate(q.ReturnDate), res), nil
}

var _ queries.Handler[CheckAvailabilityQuery, dto.Availability] = (*CheckAvailabilityHandler)(nil)
