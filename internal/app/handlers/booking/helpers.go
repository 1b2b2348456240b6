package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"carbooking/internal/app/outbox"
	"carbooking/internal/app/uow"
	"carbooking/internal/domain/availability"
	domainbooking "carbooking/internal/domain/booking"
	"carbooking/internal/domain/fleet"
)

// Deps are the collaborators shared by the booking write handlers.
type Deps struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	IDs     func() string
	Now     func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d Deps) newID() string {
	if d.IDs != nil {
		return d.IDs()
	}
	return uuid.NewString()
}

// ensureAvailable re-reads the vehicle's bookings inside the current unit and
// fails when no unit is left for the window.
func ensureAvailable(ctx context.Context, unit uow.UnitOfWork, v *fleet.Vehicle, pickupDate, returnDate time.Time, exclude domainbooking.BookingID) error {
	res, err := checkAvailability(ctx, unit, v, pickupDate, returnDate, exclude)
	if err != nil {
		return err
	}
	if !res.IsAvailable {
		return availability.ErrNoUnitsLeft
	}
	return nil
}

func checkAvailability(ctx context.Context, unit uow.UnitOfWork, v *fleet.Vehicle, pickupDate, returnDate time.Time, exclude domainbooking.BookingID) (availability.Result, error) {
	existing, err := unit.Bookings().ListByVehicle(ctx, v.ID)
	if err != nil {
		return availability.Result{}, err
	}
	occupancies := make([]availability.Occupancy, 0, len(existing))
	for _, b := range existing {
		occupancies = append(occupancies, b.Occupancy())
	}
	start, end := availability.Window(pickupDate, returnDate)
	var opts []availability.Option
	if exclude != "" {
		opts = append(opts, availability.Exclude(string(exclude)))
	}
	return availability.Check(v, start, end, occupancies, opts...)
}

// claimVehicle bumps the vehicle's booking version so a concurrent writer
// that read the same bookings fails on commit.
func claimVehicle(ctx context.Context, unit uow.UnitOfWork, v *fleet.Vehicle) error {
	next, err := unit.Vehicles().BumpBookingVersion(ctx, v.ID, v.BookingVersion)
	if err != nil {
		return err
	}
	v.BookingVersion = next
	return nil
}
