package daterange

import (
	"errors"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: end date must be after start date")
)

const day = 24 * time.Hour

// DateRange represents a half-open interval of calendar days [Start, End).
// Both bounds are truncated to UTC midnight.
type DateRange struct {
	Start time.Time `json:"start" bson:"start"`
	End   time.Time `json:"end" bson:"end"`
}

func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: Truncate(start), End: Truncate(end)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Truncate drops the clock part of t, keeping its calendar date in UTC.
func Truncate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Days is the number of calendar days covered by the range.
func (dr DateRange) Days() int {
	return int(dr.End.Sub(dr.Start) / day)
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.Start.Before(other.End) && other.Start.Before(dr.End)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Truncate(t)
	return !t.Before(dr.Start) && t.Before(dr.End)
}

// EachDay calls fn for every calendar day of the range in order.
func (dr DateRange) EachDay(fn func(d time.Time)) {
	for d := dr.Start; d.Before(dr.End); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// AddDays shifts a calendar date by n days.
func AddDays(d time.Time, n int) time.Time {
	return Truncate(d).AddDate(0, 0, n)
}
