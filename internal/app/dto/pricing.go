package dto

import "carbooking/internal/domain/pricing"

// PriceQuote is a priced selection that has not been booked.
type PriceQuote struct {
	VehicleID         string            `json:"vehicle_id"`
	RentalDays        int               `json:"rental_days"`
	LateReturnApplied bool              `json:"late_return_applied"`
	Breakdown         pricing.Breakdown `json:"pricing_breakdown"`
	IsAvailable       bool              `json:"is_available"`
	AvailableQuantity int               `json:"available_quantity"`
}
