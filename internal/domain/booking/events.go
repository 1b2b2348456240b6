package booking

import (
	"time"

	"carbooking/internal/domain/customer"
	"carbooking/internal/domain/fleet"
	"carbooking/internal/domain/shared/money"
)

const (
	EventCreated       = "booking.created"
	EventUpdated       = "booking.updated"
	EventStatusChanged = "booking.status_changed"
	EventRefunded      = "booking.refunded"
)

type BookingCreated struct {
	BookingID  BookingID       `json:"booking_id"`
	Number     string          `json:"booking_number"`
	VehicleID  fleet.VehicleID `json:"vehicle_id"`
	CustomerID customer.ID     `json:"customer_id"`
	PickupDate time.Time       `json:"pickup_date"`
	ReturnDate time.Time       `json:"return_date"`
	Total      money.Money     `json:"final_total"`
	At         time.Time       `json:"at"`
}

func (e BookingCreated) EventName() string     { return EventCreated }
func (e BookingCreated) AggregateID() string   { return string(e.BookingID) }
func (e BookingCreated) OccurredAt() time.Time { return e.At }

type BookingUpdated struct {
	BookingID BookingID `json:"booking_id"`
	Number    string    `json:"booking_number"`
	Fields    []string  `json:"fields"`
	At        time.Time `json:"at"`
}

func (e BookingUpdated) EventName() string     { return EventUpdated }
func (e BookingUpdated) AggregateID() string   { return string(e.BookingID) }
func (e BookingUpdated) OccurredAt() time.Time { return e.At }

type BookingStatusChanged struct {
	BookingID BookingID `json:"booking_id"`
	Number    string    `json:"booking_number"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

func (e BookingStatusChanged) EventName() string     { return EventStatusChanged }
func (e BookingStatusChanged) AggregateID() string   { return string(e.BookingID) }
func (e BookingStatusChanged) OccurredAt() time.Time { return e.At }

type BookingRefunded struct {
	BookingID BookingID   `json:"booking_id"`
	Number    string      `json:"booking_number"`
	RefundID  string      `json:"refund_id"`
	Amount    money.Money `json:"amount"`
	Reason    string      `json:"reason,omitempty"`
	Override  bool        `json:"override"`
	At        time.Time   `json:"at"`
}

func (e BookingRefunded) EventName() string     { return EventRefunded }
func (e BookingRefunded) AggregateID() string   { return string(e.BookingID) }
func (e BookingRefunded) OccurredAt() time.Time { return e.At }
