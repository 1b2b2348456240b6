package booking

import (
	"context"
	"errors"
	"sort"
	"strings"

	"carbooking/internal/app/dto"
	"carbooking/internal/app/handlers/support"
	"carbooking/internal/app/queries"
	"carbooking/internal/app/uow"
	domainbooking "carbooking/internal/domain/booking"
	"carbooking/internal/domain/fleet"
	"carbooking/internal/domain/shared/apperr"
)

const (
	getBookingKey          = "booking.get"
	listVehicleBookingsKey = "booking.list_by_vehicle"
)

// GetBookingQuery looks a booking up by id or, failing that, by number.
type GetBookingQuery struct {
	BookingID string `json:"booking_id"`
	Number    string `json:"booking_number"`
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.Booking, error) {
	id := strings.TrimSpace(q.BookingID)
	number := strings.TrimSpace(q.Number)
	if id == "" && number == "" {
		return dto.Booking{}, apperr.New(apperr.CodeInvalidInput, "booking_id or booking_number is required")
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Booking{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	var b *domainbooking.Booking
	if id != "" {
		b, err = unit.Bookings().ByID(execCtx, domainbooking.BookingID(id))
	} else {
		b, err = unit.Bookings().ByNumber(execCtx, number)
	}
	if err != nil {
		return dto.Booking{}, support.Classify(err)
	}
	return dto.MapBooking(b), nil
}

// ListVehicleBookingsQuery returns the booked windows of one vehicle.
type ListVehicleBookingsQuery struct {
	VehicleID string `json:"vehicle_id" validate:"required"`
}

func (q ListVehicleBookingsQuery) Key() string { return listVehicleBookingsKey }

type ListVehicleBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListVehicleBookingsHandler) Handle(ctx context.Context, q ListVehicleBookingsQuery) (dto.VehicleBookingData, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.VehicleBookingData{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	vehicle, err := unit.Vehicles().ByID(execCtx, fleet.VehicleID(q.VehicleID))
	if err != nil {
		if errors.Is(err, fleet.ErrVehicleNotFound) {
			return dto.VehicleBookingData{}, apperr.Wrap(apperr.CodeNotFound, err)
		}
		return dto.VehicleBookingData{}, err
	}
	bookings, err := unit.Bookings().ListByVehicle(execCtx, vehicle.ID)
	if err != nil {
		return dto.VehicleBookingData{}, err
	}
	out := dto.VehicleBookingData{
		VehicleID:     string(vehicle.ID),
		TotalQuantity: vehicle.TotalQuantity,
		Occupancies:   make([]dto.Occupancy, 0, len(bookings)),
	}
	for _, b := range bookings {
		if b.Status == domainbooking.StatusCancelled {
			continue
		}
		out.Occupancies = append(out.Occupancies, dto.MapOccupancy(b))
	}
	sort.Slice(out.Occupancies, func(i, j int) bool {
		return out.Occupancies[i].From < out.Occupancies[j].From
	})
	return out, nil
}

var (
	_ queries.Handler[GetBookingQuery, dto.Booking]                     = (*GetBookingHandler)(nil)
	_ queries.Handler[ListVehicleBookingsQuery, dto.VehicleBookingData] = (*ListVehicleBookingsHandler)(nil)
)
