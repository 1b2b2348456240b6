// Package rates resolves the effective daily rate of a vehicle for each rental day.
package rates

import (
	"time"

	"carbooking/internal/domain/fleet"
	"carbooking/internal/domain/shared/daterange"
	"carbooking/internal/domain/shared/money"
)

type Source string

const (
	SourceDefault   Source = "default"
	SourceDateRange Source = "date_range"
	SourceWeekends  Source = "weekends"
)

type DailyRate struct {
	Date   time.Time   `json:"date"`
	Rate   money.Money `json:"rate"`
	Source Source      `json:"source"`
}

// Schedule is the ordered per-day rate list of a rental window.
type Schedule struct {
	Days    []DailyRate
	Default money.Money
}

// ResolveDailyRates returns one rate per calendar day in [pickupDate, returnDate).
func ResolveDailyRates(v *fleet.Vehicle, pickupDate, returnDate time.Time) Schedule {
	start := daterange.Truncate(pickupDate)
	end := daterange.Truncate(returnDate)
	n := 0
	if end.After(start) {
		n = int(end.Sub(start) / (24 * time.Hour))
	}
	return ResolveDays(v, start, n)
}

// ResolveDays returns rates for n consecutive days starting at the pickup date.
func ResolveDays(v *fleet.Vehicle, pickupDate time.Time, n int) Schedule {
	s := Schedule{Default: v.DailyRate}
	if n <= 0 {
		return s
	}
	s.Days = make([]DailyRate, 0, n)
	d := daterange.Truncate(pickupDate)
	for i := 0; i < n; i++ {
		rate, src := rateFor(v, d)
		s.Days = append(s.Days, DailyRate{Date: d, Rate: rate, Source: src})
		d = d.AddDate(0, 0, 1)
	}
	return s
}

// rateFor scans custom rates in definition order. A later date_range rate
// covering the same day wins over an earlier one; weekend rates only apply
// when no date_range rate matched.
func rateFor(v *fleet.Vehicle, d time.Time) (money.Money, Source) {
	var (
		rangeRate    money.Money
		rangeMatched bool
		weekendRate  money.Money
		weekendFound bool
	)
	for _, r := range v.CustomRates {
		switch r.Type {
		case fleet.RateDateRange:
			if r.Covers(d) {
				rangeRate = r.DailyRate
				rangeMatched = true
			}
		case fleet.RateWeekends:
			if isWeekend(d) {
				weekendRate = r.DailyRate
				weekendFound = true
			}
		}
	}
	switch {
	case rangeMatched:
		return rangeRate, SourceDateRange
	case weekendFound:
		return weekendRate, SourceWeekends
	default:
		return v.DailyRate, SourceDefault
	}
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (s Schedule) Len() int { return len(s.Days) }

// Total sums the resolved rates.
func (s Schedule) Total() money.Money {
	total := money.Zero(s.Default.Currency)
	for _, d := range s.Days {
		total.Amount += d.Rate.Amount
	}
	return total
}

// DefaultTotal is what the window would cost without any custom rate.
func (s Schedule) DefaultTotal() money.Money {
	return s.Default.Multiply(int64(len(s.Days)))
}

// CustomDelta is the difference custom rates make against the default rate.
func (s Schedule) CustomDelta() money.Money {
	total := s.Total()
	total.Amount -= s.DefaultTotal().Amount
	return total
}

// Average is the blended daily rate, rounded half-up to the cent. An empty
// schedule averages to the default rate.
func (s Schedule) Average() money.Money {
	if len(s.Days) == 0 {
		return s.Default
	}
	avg, _ := s.Total().DivRound(int64(len(s.Days)))
	return avg
}

// Last returns the rate of the final day, or the default rate for an empty schedule.
func (s Schedule) Last() money.Money {
	if len(s.Days) == 0 {
		return s.Default
	}
	return s.Days[len(s.Days)-1].Rate
}
