package mongo

import (
	"time"

	domainbooking "carbooking/internal/domain/booking"
	"carbooking/internal/domain/calendar"
	domaincustomer "carbooking/internal/domain/customer"
	domainfleet "carbooking/internal/domain/fleet"
	"carbooking/internal/domain/pricing"
	"carbooking/internal/domain/shared/money"
)

type customRateDocument struct {
	Type      string      `bson:"type"`
	StartDate time.Time   `bson:"start_date,omitempty"`
	EndDate   time.Time   `bson:"end_date,omitempty"`
	DailyRate money.Money `bson:"daily_rate"`
}

type extraDocument struct {
	Name      string      `bson:"name"`
	DailyRate money.Money `bson:"daily_rate"`
}

type premiumDocument struct {
	Enabled    bool        `bson:"enabled"`
	DailyRate  money.Money `bson:"daily_rate"`
	Deductible money.Money `bson:"deductible"`
}

// vehicleDocument leaves booking_version out of $set so a fleet edit never
// rewinds the counter bumped by concurrent bookings.
type vehicleDocument struct {
	ID             string               `bson:"_id"`
	Name           string               `bson:"name"`
	Type           string               `bson:"type"`
	Location       string               `bson:"location"`
	DailyRate      money.Money          `bson:"daily_rate"`
	TotalQuantity  int                  `bson:"total_quantity"`
	CustomRates    []customRateDocument `bson:"custom_rates"`
	Extras         []extraDocument      `bson:"extras"`
	Premium        premiumDocument      `bson:"premium_insurance"`
	LateReturnRule bool                 `bson:"late_return_rule"`
	LateReturnTime int                  `bson:"late_return_time"`
	BookingVersion int64                `bson:"booking_version,omitempty"`
	CreatedAt      time.Time            `bson:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at"`
}

func newVehicleDocument(v *domainfleet.Vehicle) vehicleDocument {
	doc := vehicleDocument{
		ID:             string(v.ID),
		Name:           v.Name,
		Type:           v.Type,
		Location:       v.Location,
		DailyRate:      v.DailyRate,
		TotalQuantity:  v.TotalQuantity,
		Premium:        premiumDocument(v.Insurance.Premium),
		LateReturnRule: v.Misc.LateReturnRule,
		LateReturnTime: int(v.Misc.LateReturnTime),
		CreatedAt:      v.CreatedAt,
		UpdatedAt:      v.UpdatedAt,
	}
	for _, r := range v.CustomRates {
		doc.CustomRates = append(doc.CustomRates, customRateDocument{
			Type:      string(r.Type),
			StartDate: r.StartDate,
			EndDate:   r.EndDate,
			DailyRate: r.DailyRate,
		})
	}
	for _, e := range v.Extras {
		doc.Extras = append(doc.Extras, extraDocument(e))
	}
	return doc
}

func (d vehicleDocument) toAggregate() *domainfleet.Vehicle {
	v := &domainfleet.Vehicle{
		ID:             domainfleet.VehicleID(d.ID),
		Name:           d.Name,
		Type:           d.Type,
		Location:       d.Location,
		DailyRate:      d.DailyRate,
		TotalQuantity:  d.TotalQuantity,
		Insurance:      domainfleet.InsuranceOptions{Premium: domainfleet.PremiumInsurance(d.Premium)},
		Misc:           domainfleet.Misc{LateReturnRule: d.LateReturnRule, LateReturnTime: calendar.Clock(d.LateReturnTime)},
		BookingVersion: d.BookingVersion,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
	for _, r := range d.CustomRates {
		v.CustomRates = append(v.CustomRates, domainfleet.CustomRate{
			Type:      domainfleet.CustomRateType(r.Type),
			StartDate: r.StartDate.UTC(),
			EndDate:   r.EndDate.UTC(),
			DailyRate: r.DailyRate,
		})
	}
	for _, e := range d.Extras {
		v.Extras = append(v.Extras, domainfleet.ExtraService(e))
	}
	return v
}

type selectedExtraDocument struct {
	Index     int         `bson:"index"`
	Name      string      `bson:"name"`
	DailyRate money.Money `bson:"daily_rate"`
}

type refundDocument struct {
	ID          string      `bson:"id"`
	Amount      money.Money `bson:"amount"`
	Reason      string      `bson:"reason"`
	Override    bool        `bson:"override"`
	ProcessedAt time.Time   `bson:"processed_at"`
}

type bookingDocument struct {
	ID                 string                  `bson:"_id"`
	Number             string                  `bson:"number"`
	VehicleID          string                  `bson:"vehicle_id"`
	CustomerID         string                  `bson:"customer_id"`
	PickupDate         time.Time               `bson:"pickup_date"`
	PickupTime         int                     `bson:"pickup_time"`
	ReturnDate         time.Time               `bson:"return_date"`
	ReturnTime         int                     `bson:"return_time"`
	PickupLocation     string                  `bson:"pickup_location"`
	ReturnLocation     string                  `bson:"return_location"`
	HomeDelivery       bool                    `bson:"home_delivery"`
	DeliveryAddress    string                  `bson:"delivery_address"`
	RentalDays         int                     `bson:"rental_days"`
	LateReturnApplied  bool                    `bson:"late_return_applied"`
	Extras             []selectedExtraDocument `bson:"extras"`
	Insurance          string                  `bson:"insurance"`
	ManualDiscount     money.Money             `bson:"manual_discount"`
	Price              pricing.Breakdown       `bson:"price"`
	Status             string                  `bson:"status"`
	CancellationReason string                  `bson:"cancellation_reason"`
	InternalNotes      string                  `bson:"internal_notes"`
	CustomerNotes      string                  `bson:"customer_notes"`
	Refunds            []refundDocument        `bson:"refunds"`
	Locale             string                  `bson:"locale"`
	CreatedAt          time.Time               `bson:"created_at"`
	UpdatedAt          time.Time               `bson:"updated_at"`
	Version            int64                   `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:                 string(b.ID),
		Number:             b.Number,
		VehicleID:          string(b.VehicleID),
		CustomerID:         string(b.CustomerID),
		PickupDate:         b.PickupDate,
		PickupTime:         int(b.PickupTime),
		ReturnDate:         b.ReturnDate,
		ReturnTime:         int(b.ReturnTime),
		PickupLocation:     b.PickupLocation,
		ReturnLocation:     b.ReturnLocation,
		HomeDelivery:       b.HomeDelivery,
		DeliveryAddress:    b.DeliveryAddress,
		RentalDays:         b.RentalDays,
		LateReturnApplied:  b.LateReturnApplied,
		Insurance:          string(b.Insurance),
		ManualDiscount:     b.ManualDiscount,
		Price:              b.Price,
		Status:             string(b.Status),
		CancellationReason: b.CancellationReason,
		InternalNotes:      b.InternalNotes,
		CustomerNotes:      b.CustomerNotes,
		Locale:             b.Locale,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		Version:            b.Version,
	}
	for _, e := range b.Extras {
		doc.Extras = append(doc.Extras, selectedExtraDocument(e))
	}
	for _, r := range b.Refunds {
		doc.Refunds = append(doc.Refunds, refundDocument(r))
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	b := &domainbooking.Booking{
		ID:                 domainbooking.BookingID(d.ID),
		Number:             d.Number,
		VehicleID:          domainfleet.VehicleID(d.VehicleID),
		CustomerID:         domaincustomer.ID(d.CustomerID),
		PickupDate:         d.PickupDate.UTC(),
		PickupTime:         calendar.Clock(d.PickupTime),
		ReturnDate:         d.ReturnDate.UTC(),
		ReturnTime:         calendar.Clock(d.ReturnTime),
		PickupLocation:     d.PickupLocation,
		ReturnLocation:     d.ReturnLocation,
		HomeDelivery:       d.HomeDelivery,
		DeliveryAddress:    d.DeliveryAddress,
		RentalDays:         d.RentalDays,
		LateReturnApplied:  d.LateReturnApplied,
		Insurance:          pricing.InsuranceTier(d.Insurance),
		ManualDiscount:     d.ManualDiscount,
		Price:              d.Price.Copy(),
		Status:             domainbooking.Status(d.Status),
		CancellationReason: d.CancellationReason,
		InternalNotes:      d.InternalNotes,
		CustomerNotes:      d.CustomerNotes,
		Locale:             d.Locale,
		CreatedAt:          d.CreatedAt.UTC(),
		UpdatedAt:          d.UpdatedAt.UTC(),
		Version:            d.Version,
	}
	for _, e := range d.Extras {
		b.Extras = append(b.Extras, domainbooking.SelectedExtra(e))
	}
	for _, r := range d.Refunds {
		ref := domainbooking.Refund(r)
		ref.ProcessedAt = ref.ProcessedAt.UTC()
		b.Refunds = append(b.Refunds, ref)
	}
	return b
}

type customerDocument struct {
	ID        string    `bson:"_id"`
	FirstName string    `bson:"first_name"`
	LastName  string    `bson:"last_name"`
	FullName  string    `bson:"full_name"`
	Email     string    `bson:"email"`
	Phone     string    `bson:"phone"`
	Locale    string    `bson:"locale"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func newCustomerDocument(c *domaincustomer.Customer) customerDocument {
	return customerDocument{
		ID:        string(c.ID),
		FirstName: c.FirstName,
		LastName:  c.LastName,
		FullName:  c.FullName(),
		Email:     c.Email,
		Phone:     c.Phone,
		Locale:    c.Locale,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (d customerDocument) toAggregate() *domaincustomer.Customer {
	return &domaincustomer.Customer{
		ID:        domaincustomer.ID(d.ID),
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		Phone:     d.Phone,
		Locale:    d.Locale,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}
