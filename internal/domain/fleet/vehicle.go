package fleet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"carbooking/internal/domain/calendar"
	"carbooking/internal/domain/shared/daterange"
	"carbooking/internal/domain/shared/money"
)

var (
	ErrVehicleNotFound        = errors.New("fleet: vehicle not found")
	ErrIDRequired             = errors.New("fleet: vehicle id is required")
	ErrNameRequired           = errors.New("fleet: vehicle name is required")
	ErrQuantity               = errors.New("fleet: total quantity must be at least 1")
	ErrDailyRate              = errors.New("fleet: daily rate must be non-negative")
	ErrCustomRateType         = errors.New("fleet: unknown custom rate type")
	ErrCustomRateDates        = errors.New("fleet: custom rate start date must not be after end date")
	ErrOverlappingCustomRates = errors.New("fleet: date range custom rates overlap")
	ErrExtraName              = errors.New("fleet: extra service name is required")
	ErrConcurrentUpdate       = errors.New("fleet: vehicle changed concurrently")
)

type VehicleID string

type CustomRateType string

const (
	RateDateRange CustomRateType = "date_range"
	RateWeekends  CustomRateType = "weekends"
)

// CustomRate overrides the default daily rate on specific dates or on weekends.
// StartDate and EndDate are inclusive and only meaningful for date_range rates.
type CustomRate struct {
	Type      CustomRateType
	StartDate time.Time
	EndDate   time.Time
	DailyRate money.Money
}

// Covers reports whether a date_range rate applies to the given calendar day.
func (r CustomRate) Covers(d time.Time) bool {
	if r.Type != RateDateRange {
		return false
	}
	d = daterange.Truncate(d)
	return !d.Before(r.StartDate) && !d.After(r.EndDate)
}

type ExtraService struct {
	Name      string
	DailyRate money.Money
}

type PremiumInsurance struct {
	Enabled    bool
	DailyRate  money.Money
	Deductible money.Money
}

// InsuranceOptions lists the tiers a vehicle offers. The basic tier is always
// available and free.
type InsuranceOptions struct {
	Premium PremiumInsurance
}

type Misc struct {
	LateReturnRule bool
	LateReturnTime calendar.Clock
}

// LateRule returns the late-return rule in calendar terms.
func (m Misc) LateRule() calendar.LateReturnRule {
	return calendar.LateReturnRule{Enabled: m.LateReturnRule, Threshold: m.LateReturnTime}
}

type Vehicle struct {
	ID            VehicleID
	Name          string
	Type          string
	Location      string
	DailyRate     money.Money
	TotalQuantity int
	CustomRates   []CustomRate
	Extras        []ExtraService
	Insurance     InsuranceOptions
	Misc          Misc
	// BookingVersion is bumped by every committed booking write that touches
	// this vehicle; booking creation compares and sets it.
	BookingVersion int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type SearchParams struct {
	Type     string
	Location string
	Limit    int
}

type Repository interface {
	ByID(ctx context.Context, id VehicleID) (*Vehicle, error)
	Save(ctx context.Context, v *Vehicle) error
	Search(ctx context.Context, params SearchParams) ([]*Vehicle, error)
	// BumpBookingVersion atomically increments BookingVersion if it still
	// equals expected, otherwise returns ErrConcurrentUpdate.
	BumpBookingVersion(ctx context.Context, id VehicleID, expected int64) (int64, error)
}

type CreateParams struct {
	ID            VehicleID
	Name          string
	Type          string
	Location      string
	DailyRate     money.Money
	TotalQuantity int
	CustomRates   []CustomRate
	Extras        []ExtraService
	Insurance     InsuranceOptions
	Misc          Misc
	Now           time.Time
}

func NewVehicle(params CreateParams) (*Vehicle, error) {
	now := params.Now.UTC()
	if now.IsZero() {
		now = time.Now().UTC()
	}
	v := &Vehicle{
		ID:            VehicleID(strings.TrimSpace(string(params.ID))),
		Name:          strings.TrimSpace(params.Name),
		Type:          strings.TrimSpace(params.Type),
		Location:      strings.TrimSpace(params.Location),
		DailyRate:     params.DailyRate,
		TotalQuantity: params.TotalQuantity,
		CustomRates:   normalizeRates(params.CustomRates),
		Extras:        append([]ExtraService(nil), params.Extras...),
		Insurance:     params.Insurance,
		Misc:          params.Misc,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Vehicle) Validate() error {
	if v.ID == "" {
		return ErrIDRequired
	}
	if v.Name == "" {
		return ErrNameRequired
	}
	if v.TotalQuantity < 1 {
		return ErrQuantity
	}
	if v.DailyRate.IsNegative() {
		return ErrDailyRate
	}
	if _, err := money.New(0, v.DailyRate.Currency); err != nil {
		return fmt.Errorf("fleet: vehicle %s: %w", v.ID, err)
	}
	for i, r := range v.CustomRates {
		switch r.Type {
		case RateDateRange:
			if r.StartDate.IsZero() || r.EndDate.IsZero() || r.StartDate.After(r.EndDate) {
				return fmt.Errorf("%w (rate #%d)", ErrCustomRateDates, i)
			}
		case RateWeekends:
		default:
			return fmt.Errorf("%w: %q", ErrCustomRateType, r.Type)
		}
		if r.DailyRate.IsNegative() {
			return ErrDailyRate
		}
	}
	if err := checkRangeOverlaps(v.CustomRates); err != nil {
		return err
	}
	for _, extra := range v.Extras {
		if strings.TrimSpace(extra.Name) == "" {
			return ErrExtraName
		}
		if extra.DailyRate.IsNegative() {
			return ErrDailyRate
		}
	}
	return nil
}

func (v *Vehicle) Currency() string {
	return v.DailyRate.Currency
}

func normalizeRates(rates []CustomRate) []CustomRate {
	out := make([]CustomRate, 0, len(rates))
	for _, r := range rates {
		r.StartDate = daterange.Truncate(r.StartDate)
		r.EndDate = daterange.Truncate(r.EndDate)
		out = append(out, r)
	}
	return out
}

func checkRangeOverlaps(rates []CustomRate) error {
	for i := 0; i < len(rates); i++ {
		if rates[i].Type != RateDateRange {
			continue
		}
		for j := i + 1; j < len(rates); j++ {
			if rates[j].Type != RateDateRange {
				continue
			}
			if !rates[i].StartDate.After(rates[j].EndDate) && !rates[j].StartDate.After(rates[i].EndDate) {
				return fmt.Errorf("%w (rates #%d and #%d)", ErrOverlappingCustomRates, i, j)
			}
		}
	}
	return nil
}
