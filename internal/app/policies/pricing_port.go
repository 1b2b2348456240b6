package policies

import (
	"time"

	"carbooking/internal/domain/booking"
	"carbooking/internal/domain/calendar"
	"carbooking/internal/domain/fleet"
	"carbooking/internal/domain/pricing"
	"carbooking/internal/domain/shared/money"
)

// QuoteRequest is the selection a price is computed for.
type QuoteRequest struct {
	PickupDate     time.Time
	PickupTime     calendar.Clock
	ReturnDate     time.Time
	ReturnTime     calendar.Clock
	Extras         []int
	Insurance      pricing.InsuranceTier
	ManualDiscount money.Money
}

// PricingPolicy turns a vehicle and a selection into a booking quote. The
// late penalty mode is a deployment setting.
type PricingPolicy struct {
	LatePenalty pricing.LatePenaltyMode
}

func (p PricingPolicy) Quote(v *fleet.Vehicle, req QuoteRequest) (booking.Quote, error) {
	days, err := calendar.ComputeRentalDays(req.PickupDate, req.PickupTime, req.ReturnDate, req.ReturnTime, v.Misc.LateRule())
	if err != nil {
		return booking.Quote{}, err
	}
	discount := req.ManualDiscount
	if discount.Currency == "" {
		discount.Currency = v.Currency()
	}
	price, err := pricing.Compose(pricing.Input{
		Vehicle:           v,
		PickupDate:        req.PickupDate,
		Days:              days.Days,
		LateReturnApplied: days.LateReturnApplied,
		Extras:            req.Extras,
		Insurance:         req.Insurance,
		ManualDiscount:    discount,
		LatePenalty:       p.LatePenalty,
	})
	if err != nil {
		return booking.Quote{}, err
	}
	return booking.Quote{Days: days, Extras: selectedExtras(v, req.Extras), Price: price}, nil
}

func selectedExtras(v *fleet.Vehicle, indexes []int) []booking.SelectedExtra {
	seen := make(map[int]struct{}, len(indexes))
	out := make([]booking.SelectedExtra, 0, len(indexes))
	for _, idx := range indexes {
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		extra := v.Extras[idx]
		out = append(out, booking.SelectedExtra{Index: idx, Name: extra.Name, DailyRate: extra.DailyRate})
	}
	return out
}
