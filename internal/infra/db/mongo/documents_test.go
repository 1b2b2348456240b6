package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	domainbooking "carbooking/internal/domain/booking"
	"carbooking/internal/domain/calendar"
	domainfleet "carbooking/internal/domain/fleet"
	"carbooking/internal/domain/pricing"
	"carbooking/internal/domain/shared/money"
)

func eur(cents int64) money.Money { return money.Must(cents, "EUR") }

func TestVehicleDocument_RoundTripThroughBSON(t *testing.T) {
	v := &domainfleet.Vehicle{
		ID:            "car-1",
		Name:          "Golf",
		Type:          "compact",
		Location:      "Airport",
		DailyRate:     eur(5000),
		TotalQuantity: 2,
		CustomRates: []domainfleet.CustomRate{
			{Type: domainfleet.RateWeekends, DailyRate: eur(6000)},
			{Type: domainfleet.RateDateRange, StartDate: time.Date(2030, 7, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2030, 7, 31, 0, 0, 0, 0, time.UTC), DailyRate: eur(9000)},
		},
		Extras:         []domainfleet.ExtraService{{Name: "GPS", DailyRate: eur(1000)}},
		Insurance:      domainfleet.InsuranceOptions{Premium: domainfleet.PremiumInsurance{Enabled: true, DailyRate: eur(1500), Deductible: eur(50000)}},
		Misc:           domainfleet.Misc{LateReturnRule: true, LateReturnTime: calendar.MustClock("12:00")},
		BookingVersion: 7,
		CreatedAt:      time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	raw, err := bson.Marshal(newVehicleDocument(v))
	require.NoError(t, err)
	var doc vehicleDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))

	want := *v
	want.BookingVersion = 0
	assert.Equal(t, &want, doc.toAggregate())
}

func TestVehicleDocument_SaveLeavesBookingVersionOut(t *testing.T) {
	doc := newVehicleDocument(&domainfleet.Vehicle{ID: "car-1", DailyRate: eur(5000), BookingVersion: 3})
	doc.BookingVersion = 0

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	_, lookupErr := bson.Raw(raw).LookupErr("booking_version")
	assert.Error(t, lookupErr)
}

func TestBookingDocument_RoundTripThroughBSON(t *testing.T) {
	b := &domainbooking.Booking{
		ID:         "bk-1",
		Number:     "CBR001",
		VehicleID:  "car-1",
		CustomerID: "cus-1",
		PickupDate: time.Date(2030, 6, 3, 0, 0, 0, 0, time.UTC),
		PickupTime: calendar.MustClock("10:00"),
		ReturnDate: time.Date(2030, 6, 5, 0, 0, 0, 0, time.UTC),
		ReturnTime: calendar.MustClock("09:30"),
		RentalDays: 2,
		Extras:     []domainbooking.SelectedExtra{{Index: 0, Name: "GPS", DailyRate: eur(1000)}},
		Insurance:  pricing.InsuranceBasic,
		Price: pricing.Breakdown{
			Days:       2,
			LineItems:  []pricing.LineItem{{Name: "Base rate", Kind: pricing.KindBaseRate, Quantity: 2, Amount: eur(10000)}},
			FinalTotal: eur(12000),
		},
		Status:    domainbooking.StatusCancelled,
		Refunds:   []domainbooking.Refund{{ID: "rf-1", Amount: eur(2000), Reason: "goodwill", ProcessedAt: time.Date(2030, 6, 1, 8, 0, 0, 0, time.UTC)}},
		Locale:    "de",
		CreatedAt: time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2030, 6, 1, 8, 0, 0, 0, time.UTC),
		Version:   4,
	}

	raw, err := bson.Marshal(newBookingDocument(b))
	require.NoError(t, err)
	var doc bookingDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	got := doc.toAggregate()

	assert.Equal(t, b.Number, got.Number)
	assert.Equal(t, b.PickupTime, got.PickupTime)
	assert.Equal(t, b.Extras, got.Extras)
	assert.Equal(t, b.Refunds, got.Refunds)
	assert.Equal(t, b.Price.FinalTotal, got.Price.FinalTotal)
	assert.Equal(t, b.Price.LineItems, got.Price.LineItems)
	assert.True(t, b.PickupDate.Equal(got.PickupDate))
	assert.Equal(t, int64(4), got.Version)
}
