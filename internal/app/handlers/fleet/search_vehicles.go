package fleet

import (
	"context"
	"errors"
	"time"

	"carbooking/internal/app/dto"
	"carbooking/internal/app/handlers/support"
	"carbooking/internal/app/queries"
	"carbooking/internal/app/uow"
	"carbooking/internal/domain/availability"
	"carbooking/internal/domain/calendar"
	domainfleet "carbooking/internal/domain/fleet"
	"carbooking/internal/domain/shared/apperr"
)

const (
	searchVehiclesKey = "fleet.search"
	getVehicleKey     = "fleet.get"
	defaultLimit      = 50
)

// SearchVehiclesQuery filters the fleet. With both dates set, vehicles without
// a free unit are left out and the rest carry their available quantity.
type SearchVehiclesQuery struct {
	Type       string     `json:"type"`
	Location   string     `json:"location"`
	PickupDate *time.Time `json:"pickup_date"`
	ReturnDate *time.Time `json:"return_date"`
	Limit      int        `json:"limit" validate:"gte=0,lte=200"`
}

func (q SearchVehiclesQuery) Key() string { return searchVehiclesKey }

type SearchVehiclesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SearchVehiclesHandler) Handle(ctx context.Context, q SearchVehiclesQuery) (dto.VehicleCollection, error) {
	res, err := h.handle(ctx, q)
	return res, support.Classify(err)
}

func (h *SearchVehiclesHandler) handle(ctx context.Context, q SearchVehiclesQuery) (dto.VehicleCollection, error) {
	if (q.PickupDate == nil) != (q.ReturnDate == nil) {
		return dto.VehicleCollection{}, apperr.New(apperr.CodeInvalidDateRange, "pickup_date and return_date must be given together")
	}
	if q.PickupDate != nil && q.ReturnDate.Before(*q.PickupDate) {
		return dto.VehicleCollection{}, calendar.ErrInvalidRange
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.VehicleCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	// Booked-out vehicles are dropped before the limit applies.
	params := domainfleet.SearchParams{Type: q.Type, Location: q.Location}
	if q.PickupDate == nil {
		params.Limit = limit
	}
	vehicles, err := unit.Vehicles().Search(execCtx, params)
	if err != nil {
		return dto.VehicleCollection{}, err
	}
	out := dto.VehicleCollection{Items: make([]dto.VehicleSummary, 0, len(vehicles))}
	for _, v := range vehicles {
		summary := dto.VehicleSummary{Vehicle: dto.MapVehicle(v)}
		if q.PickupDate != nil {
			bookings, err := unit.Bookings().ListByVehicle(execCtx, v.ID)
			if err != nil {
				return dto.VehicleCollection{}, err
			}
			occupancies := make([]availability.Occupancy, 0, len(bookings))
			for _, b := range bookings {
				occupancies = append(occupancies, b.Occupancy())
			}
			start, end := availability.Window(*q.PickupDate, *q.ReturnDate)
			res, err := availability.Check(v, start, end, occupancies)
			if err != nil {
				return dto.VehicleCollection{}, err
			}
			if !res.IsAvailable {
				continue
			}
			left := res.AvailableQuantity
			summary.AvailableQuantity = &left
		}
		out.Items = append(out.Items, summary)
		if len(out.Items) == limit {
			break
		}
	}
	return out, nil
}

type GetVehicleQuery struct {
	VehicleID string `json:"vehicle_id" validate:"required"`
}

func (q GetVehicleQuery) Key() string { return getVehicleKey }

type GetVehicleHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetVehicleHandler) Handle(ctx context.Context, q GetVehicleQuery) (dto.Vehicle, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Vehicle{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	v, err := unit.Vehicles().ByID(execCtx, domainfleet.VehicleID(q.VehicleID))
	if err != nil {
		if errors.Is(err, domainfleet.ErrVehicleNotFound) {
			return dto.Vehicle{}, apperr.Wrap(apperr.CodeNotFound, err)
		}
		return dto.Vehicle{}, err
	}
	return dto.MapVehicle(v), nil
}

var (
	_ queries.Handler[SearchVehiclesQuery, dto.VehicleCollection] = (*SearchVehiclesHandler)(nil)
	_ queries.Handler[GetVehicleQuery, dto.Vehicle]               = (*GetVehicleHandler)(nil)
)
