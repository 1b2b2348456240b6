package dto

import (
	"time"

	"carbooking/internal/domain/booking"
	"carbooking/internal/domain/calendar"
	"carbooking/internal/domain/pricing"
	"carbooking/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(m money.Money) MoneyDTO {
	return MoneyDTO{Amount: m.Amount, Currency: m.Currency}
}

type SelectedExtra struct {
	Index     int      `json:"index"`
	Name      string   `json:"name"`
	DailyRate MoneyDTO `json:"daily_rate"`
}

type Refund struct {
	ID          string    `json:"id"`
	Amount      MoneyDTO  `json:"amount"`
	Reason      string    `json:"reason,omitempty"`
	Override    bool      `json:"override"`
	ProcessedAt time.Time `json:"processed_at"`
}

type Booking struct {
	ID                 string            `json:"id"`
	Number             string            `json:"booking_number"`
	VehicleID          string            `json:"vehicle_id"`
	CustomerID         string            `json:"customer_id"`
	PickupDate         string            `json:"pickup_date"`
	PickupTime         string            `json:"pickup_time"`
	ReturnDate         string            `json:"return_date"`
	ReturnTime         string            `json:"return_time"`
	PickupLocation     string            `json:"pickup_location,omitempty"`
	ReturnLocation     string            `json:"return_location,omitempty"`
	HomeDelivery       bool              `json:"home_delivery"`
	DeliveryAddress    string            `json:"delivery_address,omitempty"`
	RentalDays         int               `json:"rental_days"`
	LateReturnApplied  bool              `json:"late_return_applied"`
	Extras             []SelectedExtra   `json:"selected_extras"`
	Insurance          string            `json:"selected_insurance"`
	ManualDiscount     MoneyDTO          `json:"manual_discount"`
	Price              pricing.Breakdown `json:"pricing_breakdown"`
	Status             string            `json:"status"`
	StatusMessage      string            `json:"status_message"`
	CancellationReason string            `json:"cancellation_reason,omitempty"`
	InternalNotes      string            `json:"internal_notes,omitempty"`
	CustomerNotes      string            `json:"customer_notes,omitempty"`
	Refunds            []Refund          `json:"refunds"`
	RefundedTotal      MoneyDTO          `json:"refunded_total"`
	EditableFields     []string          `json:"editable_fields"`
	Locale             string            `json:"locale"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

func MapBooking(b *booking.Booking) Booking {
	if b == nil {
		return Booking{}
	}
	extras := make([]SelectedExtra, 0, len(b.Extras))
	for _, e := range b.Extras {
		extras = append(extras, SelectedExtra{Index: e.Index, Name: e.Name, DailyRate: MapMoney(e.DailyRate)})
	}
	refunds := make([]Refund, 0, len(b.Refunds))
	for _, r := range b.Refunds {
		refunds = append(refunds, Refund{ID: r.ID, Amount: MapMoney(r.Amount), Reason: r.Reason, Override: r.Override, ProcessedAt: r.ProcessedAt})
	}
	discount := b.ManualDiscount
	if discount.Currency == "" {
		discount.Currency = b.Price.Currency()
	}
	return Booking{
		ID:                 string(b.ID),
		Number:             b.Number,
		VehicleID:          string(b.VehicleID),
		CustomerID:         string(b.CustomerID),
		PickupDate:         calendar.FormatDate(b.PickupDate),
		PickupTime:         b.PickupTime.String(),
		ReturnDate:         calendar.FormatDate(b.ReturnDate),
		ReturnTime:         b.ReturnTime.String(),
		PickupLocation:     b.PickupLocation,
		ReturnLocation:     b.ReturnLocation,
		HomeDelivery:       b.HomeDelivery,
		DeliveryAddress:    b.DeliveryAddress,
		RentalDays:         b.RentalDays,
		LateReturnApplied:  b.LateReturnApplied,
		Extras:             extras,
		Insurance:          string(b.Insurance),
		ManualDiscount:     MapMoney(discount),
		Price:              b.Price.Copy(),
		Status:             string(b.Status),
		StatusMessage:      b.Status.Message(),
		CancellationReason: b.CancellationReason,
		InternalNotes:      b.InternalNotes,
		CustomerNotes:      b.CustomerNotes,
		Refunds:            refunds,
		RefundedTotal:      MapMoney(b.RefundedTotal()),
		EditableFields:     booking.EditableFields(b.Status),
		Locale:             b.Locale,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

type BookingCollection struct {
	Items []Booking `json:"items"`
}
