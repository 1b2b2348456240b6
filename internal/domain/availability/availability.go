package availability

import (
	"errors"
	"time"

	"carbooking/internal/domain/fleet"
	"carbooking/internal/domain/shared/daterange"
)

var ErrNoUnitsLeft = errors.New("availability: no units left for the requested dates")

// Occupancy is the projection of a booking that holds one vehicle unit over
// its rental window.
type Occupancy struct {
	BookingID string
	Range     daterange.DateRange
	Cancelled bool
}

type Result struct {
	AvailableQuantity int  `json:"available_quantity"`
	TotalQuantity     int  `json:"total_quantity"`
	IsAvailable       bool `json:"is_available"`
}

type Option func(*checkOptions)

type checkOptions struct {
	exclude string
}

// Exclude ignores the occupancy of the given booking, used when a booking is
// re-checked against its own window after an edit.
func Exclude(bookingID string) Option {
	return func(o *checkOptions) { o.exclude = bookingID }
}

// Check counts units left for [pickupDate, returnDate). Every non-cancelled
// occupancy overlapping the window takes one unit.
func Check(v *fleet.Vehicle, pickupDate, returnDate time.Time, existing []Occupancy, opts ...Option) (Result, error) {
	window, err := daterange.New(pickupDate, returnDate)
	if err != nil {
		return Result{}, err
	}
	var o checkOptions
	for _, opt := range opts {
		opt(&o)
	}
	overlapping := 0
	for _, occ := range existing {
		if occ.Cancelled {
			continue
		}
		if o.exclude != "" && occ.BookingID == o.exclude {
			continue
		}
		if occ.Range.Overlaps(window) {
			overlapping++
		}
	}
	if overlapping > v.TotalQuantity {
		overlapping = v.TotalQuantity
	}
	available := v.TotalQuantity - overlapping
	return Result{
		AvailableQuantity: available,
		TotalQuantity:     v.TotalQuantity,
		IsAvailable:       available > 0,
	}, nil
}

// Window widens a same-day rental to one calendar day so it still occupies a unit.
func Window(pickupDate, returnDate time.Time) (time.Time, time.Time) {
	start := daterange.Truncate(pickupDate)
	end := daterange.Truncate(returnDate)
	if !end.After(start) {
		end = start.AddDate(0, 0, 1)
	}
	return start, end
}
