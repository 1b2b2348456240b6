package dto

import (
	"carbooking/internal/domain/availability"
	"carbooking/internal/domain/booking"
	"carbooking/internal/domain/calendar"
)

// Occupancy is one booked window on the vehicle calendar. End is exclusive.
type Occupancy struct {
	BookingID string `json:"booking_id"`
	Number    string `json:"booking_number"`
	Status    string `json:"status"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// VehicleBookingData is what the admin calendar needs to shade booked days.
type VehicleBookingData struct {
	VehicleID     string      `json:"vehicle_id"`
	TotalQuantity int         `json:"total_quantity"`
	Occupancies   []Occupancy `json:"occupancies"`
}

func MapOccupancy(b *booking.Booking) Occupancy {
	occ := b.Occupancy()
	return Occupancy{
		BookingID: string(b.ID),
		Number:    b.Number,
		Status:    string(b.Status),
		From:      calendar.FormatDate(occ.Range.Start),
		To:        calendar.FormatDate(occ.Range.End),
	}
}

type Availability struct {
	VehicleID         string `json:"vehicle_id"`
	PickupDate        string `json:"pickup_date"`
	ReturnDate        string `json:"return_date"`
	AvailableQuantity int    `json:"available_quantity"`
	TotalQuantity     int    `json:"total_quantity"`
	IsAvailable       bool   `json:"is_available"`
}

func MapAvailability(vehicleID string, pickup, ret string, res availability.Result) Availability {
	return Availability{
		VehicleID:         vehicleID,
		PickupDate:        pickup,
		ReturnDate:        ret,
		AvailableQuantity: res.AvailableQuantity,
		TotalQuantity:     res.TotalQuantity,
		IsAvailable:       res.IsAvailable,
	}
}
