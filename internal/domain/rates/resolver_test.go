package rates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"carbooking/internal/domain/fleet"
	"carbooking/internal/domain/shared/money"
)

func eur(cents int64) money.Money { return money.Must(cents, "EUR") }

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func vehicleWith(rates ...fleet.CustomRate) *fleet.Vehicle {
	return &fleet.Vehicle{ID: "car-1", Name: "Golf", DailyRate: eur(5000), TotalQuantity: 1, CustomRates: rates}
}

func TestResolveDailyRates_DefaultRate(t *testing.T) {
	s := ResolveDailyRates(vehicleWith(), day(6, 3), day(6, 6))

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, int64(15000), s.Total().Amount)
	assert.Equal(t, int64(0), s.CustomDelta().Amount)
	for _, d := range s.Days {
		assert.Equal(t, SourceDefault, d.Source)
	}
}

func TestResolveDailyRates_DateRangeBeatsWeekend(t *testing.T) {
	// 2024-06-07 is a Friday; 8th and 9th are the weekend.
	v := vehicleWith(
		fleet.CustomRate{Type: fleet.RateWeekends, DailyRate: eur(6000)},
		fleet.CustomRate{Type: fleet.RateDateRange, StartDate: day(6, 9), EndDate: day(6, 10), DailyRate: eur(9000)},
	)
	s := ResolveDailyRates(v, day(6, 7), day(6, 11))

	want := []struct {
		amount int64
		source Source
	}{
		{5000, SourceDefault},
		{6000, SourceWeekends},
		{9000, SourceDateRange},
		{9000, SourceDateRange},
	}
	if assert.Len(t, s.Days, len(want)) {
		for i, w := range want {
			assert.Equal(t, w.amount, s.Days[i].Rate.Amount, "day %d", i)
			assert.Equal(t, w.source, s.Days[i].Source, "day %d", i)
		}
	}
	assert.Equal(t, int64(29000), s.Total().Amount)
	assert.Equal(t, int64(9000), s.CustomDelta().Amount)
	assert.Equal(t, int64(7250), s.Average().Amount)
	assert.Equal(t, int64(9000), s.Last().Amount)
}

func TestResolveDailyRates_LastDefinedRangeWins(t *testing.T) {
	v := vehicleWith(
		fleet.CustomRate{Type: fleet.RateDateRange, StartDate: day(6, 1), EndDate: day(6, 30), DailyRate: eur(7000)},
		fleet.CustomRate{Type: fleet.RateDateRange, StartDate: day(6, 10), EndDate: day(6, 12), DailyRate: eur(8000)},
	)
	s := ResolveDailyRates(v, day(6, 9), day(6, 11))

	assert.Equal(t, int64(7000), s.Days[0].Rate.Amount)
	assert.Equal(t, int64(8000), s.Days[1].Rate.Amount)
}

func TestResolveDailyRates_Idempotent(t *testing.T) {
	v := vehicleWith(fleet.CustomRate{Type: fleet.RateWeekends, DailyRate: eur(6000)})

	first := ResolveDailyRates(v, day(6, 1), day(6, 15))
	second := ResolveDailyRates(v, day(6, 1), day(6, 15))

	assert.Equal(t, first, second)
}

func TestResolveDailyRates_EmptyWindow(t *testing.T) {
	s := ResolveDailyRates(vehicleWith(), day(6, 5), day(6, 5))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, int64(5000), s.Average().Amount)
}
