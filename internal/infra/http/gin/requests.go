package ginserver

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"carbooking/internal/domain/calendar"
)

// Dates travel as "YYYY-MM-DD" and times of day as "HH:MM" on the wire.

func parseDate(field, raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	d, err := calendar.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

func parseOptionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	d, err := parseDate(field, *raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseClock(field, raw, fallback string) (calendar.Clock, error) {
	if strings.TrimSpace(raw) == "" {
		raw = fallback
	}
	c, err := calendar.ParseClock(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return c, nil
}

func parseOptionalClock(field string, raw *string) (*calendar.Clock, error) {
	if raw == nil {
		return nil, nil
	}
	c, err := parseClock(field, *raw, "")
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func parseLimit(raw string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("limit must be a non-negative integer")
	}
	return n, nil
}

type customerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Locale    string `json:"locale"`
}

type createBookingRequest struct {
	VehicleID       string          `json:"vehicle_id"`
	Customer        customerRequest `json:"customer"`
	PickupDate      string          `json:"pickup_date"`
	PickupTime      string          `json:"pickup_time"`
	ReturnDate      string          `json:"return_date"`
	ReturnTime      string          `json:"return_time"`
	PickupLocation  string          `json:"pickup_location"`
	ReturnLocation  string          `json:"return_location"`
	HomeDelivery    bool            `json:"home_delivery"`
	DeliveryAddress string          `json:"delivery_address"`
	Extras          []int           `json:"selected_extras"`
	Insurance       string          `json:"selected_insurance"`
	ManualDiscount  int64           `json:"manual_discount"`
	InternalNotes   string          `json:"internal_notes"`
	CustomerNotes   string          `json:"customer_notes"`
}

type updateBookingRequest struct {
	VehicleID       *string `json:"vehicle_id"`
	PickupDate      *string `json:"pickup_date"`
	PickupTime      *string `json:"pickup_time"`
	ReturnDate      *string `json:"return_date"`
	ReturnTime      *string `json:"return_time"`
	PickupLocation  *string `json:"pickup_location"`
	ReturnLocation  *string `json:"return_location"`
	HomeDelivery    *bool   `json:"home_delivery"`
	DeliveryAddress *string `json:"delivery_address"`
	Extras          *[]int  `json:"selected_extras"`
	Insurance       *string `json:"selected_insurance"`
	ManualDiscount  *int64  `json:"manual_discount"`
	InternalNotes   *string `json:"internal_notes"`
	CustomerNotes   *string `json:"customer_notes"`
}

type refundRequest struct {
	Amount   int64  `json:"amount"`
	Reason   string `json:"reason"`
	Override bool   `json:"override"`
}

type transitionRequest struct {
	Status string         `json:"status"`
	Reason string         `json:"reason"`
	Refund *refundRequest `json:"refund"`
}

type cancelRequest struct {
	Reason string         `json:"reason"`
	Refund *refundRequest `json:"refund"`
}

type previewRequest struct {
	VehicleID      string `json:"vehicle_id"`
	PickupDate     string `json:"pickup_date"`
	PickupTime     string `json:"pickup_time"`
	ReturnDate     string `json:"return_date"`
	ReturnTime     string `json:"return_time"`
	Extras         []int  `json:"selected_extras"`
	Insurance      string `json:"selected_insurance"`
	ManualDiscount int64  `json:"manual_discount"`
}

const defaultClock = "10:00"
