package booking

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"carbooking/internal/domain/calendar"
	"carbooking/internal/domain/fleet"
	"carbooking/internal/domain/pricing"
	"carbooking/internal/domain/shared/money"
)

var ErrFieldLocked = errors.New("booking: field is locked for the current status")

const (
	FieldVehicle         = "vehicle_id"
	FieldPickupDate      = "pickup_date"
	FieldPickupTime      = "pickup_time"
	FieldReturnDate      = "return_date"
	FieldReturnTime      = "return_time"
	FieldPickupLocation  = "pickup_location"
	FieldReturnLocation  = "return_location"
	FieldHomeDelivery    = "home_delivery"
	FieldDeliveryAddress = "delivery_address"
	FieldExtras          = "selected_extras"
	FieldInsurance       = "selected_insurance"
	FieldManualDiscount  = "manual_discount"
	FieldInternalNotes   = "internal_notes"
	FieldCustomerNotes   = "customer_notes"
)

var allFields = []string{
	FieldVehicle, FieldPickupDate, FieldPickupTime, FieldReturnDate, FieldReturnTime,
	FieldPickupLocation, FieldReturnLocation, FieldHomeDelivery, FieldDeliveryAddress,
	FieldExtras, FieldInsurance, FieldManualDiscount, FieldInternalNotes, FieldCustomerNotes,
}

// postPendingFields stay editable once a booking leaves pending. None of them
// affects the price.
var postPendingFields = []string{
	FieldPickupTime, FieldPickupLocation, FieldReturnLocation, FieldHomeDelivery,
	FieldDeliveryAddress, FieldInternalNotes, FieldCustomerNotes,
}

// EditableFields returns the fields an operator may change in the given status.
func EditableFields(s Status) []string {
	if s == StatusPending {
		return slices.Clone(allFields)
	}
	return slices.Clone(postPendingFields)
}

// Changes is a partial update. Nil fields are left untouched.
type Changes struct {
	VehicleID       *fleet.VehicleID
	PickupDate      *time.Time
	PickupTime      *calendar.Clock
	ReturnDate      *time.Time
	ReturnTime      *calendar.Clock
	PickupLocation  *string
	ReturnLocation  *string
	HomeDelivery    *bool
	DeliveryAddress *string
	Extras          *[]int
	Insurance       *pricing.InsuranceTier
	ManualDiscount  *money.Money
	InternalNotes   *string
	CustomerNotes   *string
}

// changedFields lists the fields whose new value differs from the booking.
func (c Changes) changedFields(b *Booking) []string {
	var out []string
	add := func(field string, changed bool) {
		if changed {
			out = append(out, field)
		}
	}
	add(FieldVehicle, c.VehicleID != nil && *c.VehicleID != b.VehicleID)
	add(FieldPickupDate, c.PickupDate != nil && !calendar.DateOf(*c.PickupDate).Equal(b.PickupDate))
	add(FieldPickupTime, c.PickupTime != nil && *c.PickupTime != b.PickupTime)
	add(FieldReturnDate, c.ReturnDate != nil && !calendar.DateOf(*c.ReturnDate).Equal(b.ReturnDate))
	add(FieldReturnTime, c.ReturnTime != nil && *c.ReturnTime != b.ReturnTime)
	add(FieldPickupLocation, c.PickupLocation != nil && strings.TrimSpace(*c.PickupLocation) != b.PickupLocation)
	add(FieldReturnLocation, c.ReturnLocation != nil && strings.TrimSpace(*c.ReturnLocation) != b.ReturnLocation)
	add(FieldHomeDelivery, c.HomeDelivery != nil && *c.HomeDelivery != b.HomeDelivery)
	add(FieldDeliveryAddress, c.DeliveryAddress != nil && strings.TrimSpace(*c.DeliveryAddress) != b.DeliveryAddress)
	add(FieldExtras, c.Extras != nil && !slices.Equal(*c.Extras, b.ExtraIndexes()))
	add(FieldInsurance, c.Insurance != nil && *c.Insurance != b.Insurance)
	add(FieldManualDiscount, c.ManualDiscount != nil && c.ManualDiscount.Amount != b.ManualDiscount.Amount)
	add(FieldInternalNotes, c.InternalNotes != nil && *c.InternalNotes != b.InternalNotes)
	add(FieldCustomerNotes, c.CustomerNotes != nil && *c.CustomerNotes != b.CustomerNotes)
	return out
}

// AffectsPrice reports whether applying c requires a new price breakdown.
func (c Changes) AffectsPrice(b *Booking) bool {
	for _, f := range c.changedFields(b) {
		switch f {
		case FieldVehicle, FieldPickupDate, FieldReturnDate, FieldReturnTime,
			FieldExtras, FieldInsurance, FieldManualDiscount:
			return true
		case FieldPickupTime:
			if b.Status == StatusPending {
				return true
			}
		}
	}
	return false
}

// ApplyChanges enforces the field lock and copies the changed values onto the
// booking. Selected extras keep only their index until the caller reprices.
func (b *Booking) ApplyChanges(c Changes, now time.Time) ([]string, error) {
	changed := c.changedFields(b)
	if len(changed) == 0 {
		return nil, nil
	}
	editable := EditableFields(b.Status)
	for _, f := range changed {
		if !slices.Contains(editable, f) {
			return nil, fmt.Errorf("%w: %s while %s", ErrFieldLocked, f, b.Status)
		}
	}

	if c.VehicleID != nil {
		b.VehicleID = *c.VehicleID
	}
	if c.PickupDate != nil {
		b.PickupDate = calendar.DateOf(*c.PickupDate)
	}
	if c.PickupTime != nil {
		b.PickupTime = *c.PickupTime
	}
	if c.ReturnDate != nil {
		b.ReturnDate = calendar.DateOf(*c.ReturnDate)
	}
	if c.ReturnTime != nil {
		b.ReturnTime = *c.ReturnTime
	}
	if c.PickupLocation != nil {
		b.PickupLocation = strings.TrimSpace(*c.PickupLocation)
	}
	if c.ReturnLocation != nil {
		b.ReturnLocation = strings.TrimSpace(*c.ReturnLocation)
	}
	if c.HomeDelivery != nil {
		b.HomeDelivery = *c.HomeDelivery
	}
	if c.DeliveryAddress != nil {
		b.DeliveryAddress = strings.TrimSpace(*c.DeliveryAddress)
	}
	if c.Extras != nil {
		b.Extras = make([]SelectedExtra, 0, len(*c.Extras))
		for _, idx := range *c.Extras {
			b.Extras = append(b.Extras, SelectedExtra{Index: idx})
		}
	}
	if c.Insurance != nil {
		b.Insurance = *c.Insurance
	}
	if c.ManualDiscount != nil {
		b.ManualDiscount = *c.ManualDiscount
	}
	if c.InternalNotes != nil {
		b.InternalNotes = *c.InternalNotes
	}
	if c.CustomerNotes != nil {
		b.CustomerNotes = *c.CustomerNotes
	}
	if err := b.validateSchedule(); err != nil {
		return nil, err
	}
	b.touch(now)
	b.Record(BookingUpdated{BookingID: b.ID, Number: b.Number, Fields: changed, At: b.UpdatedAt})
	return changed, nil
}
