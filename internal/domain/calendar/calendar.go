// Package calendar turns pickup and return date/time pairs into billable rental days.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"carbooking/internal/domain/shared/daterange"
)

const dateLayout = "2006-01-02"

var (
	ErrInvalidRange = errors.New("calendar: return must be after pickup")
	ErrInvalidClock = errors.New("calendar: time must be formatted as HH:MM")
	ErrInvalidDate  = errors.New("calendar: date must be formatted as YYYY-MM-DD")
)

// Clock is a time of day expressed in minutes since midnight.
type Clock int

// ParseClock parses "HH:MM" (24h).
func ParseClock(raw string) (Clock, error) {
	raw = strings.TrimSpace(raw)
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

// MustClock panics on malformed input; used for fixtures and tests.
func MustClock(raw string) Clock {
	c, err := ParseClock(raw)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseDate parses a "YYYY-MM-DD" calendar date in UTC.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return t, nil
}

// DateOf drops the time of day, keeping the calendar date in UTC.
func DateOf(t time.Time) time.Time {
	return daterange.Truncate(t)
}

// FormatDate renders a calendar date as "YYYY-MM-DD".
func FormatDate(d time.Time) string {
	return d.Format(dateLayout)
}

// Instant combines a calendar date with a clock time.
func Instant(date time.Time, clock Clock) time.Time {
	d := daterange.Truncate(date)
	return d.Add(time.Duration(clock) * time.Minute)
}

// RentalDays is the billable day count of a rental.
type RentalDays struct {
	Days              int  `json:"days"`
	LateReturnApplied bool `json:"late_return_applied"`
}

// LateReturnRule charges an extra day when the return time is after Threshold.
type LateReturnRule struct {
	Enabled   bool
	Threshold Clock
}

// ComputeRentalDays counts started 24h periods between pickup and return, at
// least one, plus a penalty day when the late-return rule fires. The late check
// compares clock times only, independent of how many days the rental spans.
func ComputeRentalDays(pickupDate time.Time, pickupTime Clock, returnDate time.Time, returnTime Clock, rule LateReturnRule) (RentalDays, error) {
	pickup := Instant(pickupDate, pickupTime)
	ret := Instant(returnDate, returnTime)
	if !ret.After(pickup) {
		return RentalDays{}, ErrInvalidRange
	}
	span := ret.Sub(pickup)
	const day = 24 * time.Hour
	days := int(span / day)
	if span%day != 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	result := RentalDays{Days: days}
	if rule.Enabled && returnTime > rule.Threshold {
		result.Days++
		result.LateReturnApplied = true
	}
	return result, nil
}
