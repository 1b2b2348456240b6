package pricing

import (
	"errors"
	"fmt"
	"time"

	"carbooking/internal/domain/fleet"
	"carbooking/internal/domain/rates"
	"carbooking/internal/domain/shared/money"
)

var (
	ErrVehicleRequired  = errors.New("pricing: vehicle is required")
	ErrDaysRequired     = errors.New("pricing: rental days must be positive")
	ErrUnknownExtra     = errors.New("pricing: selected extra does not exist on the vehicle")
	ErrPremiumDisabled  = errors.New("pricing: premium insurance is not offered for this vehicle")
	ErrUnknownInsurance = errors.New("pricing: unknown insurance tier")
	ErrNegativeDiscount = errors.New("pricing: discount cannot be negative")
	ErrUnknownPenalty   = errors.New("pricing: unknown late penalty mode")
)

type Kind string

const (
	KindBaseRate      Kind = "base_rate"
	KindLateReturnFee Kind = "late_return_fee"
	KindExtra         Kind = "extra"
	KindInsurance     Kind = "insurance"
)

type ChargeType string

const (
	ChargeDaily ChargeType = "daily"
	ChargeFlat  ChargeType = "flat"
)

type InsuranceTier string

const (
	InsuranceBasic   InsuranceTier = "basic"
	InsurancePremium InsuranceTier = "premium"
)

// LatePenaltyMode picks the day rate charged for a late return.
type LatePenaltyMode string

const (
	LatePenaltyBlendedAverage LatePenaltyMode = "blended_average"
	LatePenaltyLastDayRate    LatePenaltyMode = "last_day_rate"
)

func ParseLatePenaltyMode(raw string) (LatePenaltyMode, error) {
	switch mode := LatePenaltyMode(raw); mode {
	case "":
		return LatePenaltyBlendedAverage, nil
	case LatePenaltyBlendedAverage, LatePenaltyLastDayRate:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPenalty, raw)
	}
}

// LineItem is one priced component of a booking. BaseRate and ExtraRate are
// the unit rates kept for display and audit.
type LineItem struct {
	Name      string      `json:"name" bson:"name"`
	Kind      Kind        `json:"kind" bson:"kind"`
	Quantity  int         `json:"quantity" bson:"quantity"`
	Amount    money.Money `json:"amount" bson:"amount"`
	Free      bool        `json:"free" bson:"free"`
	Type      ChargeType  `json:"type" bson:"type"`
	BaseRate  money.Money `json:"base_rate" bson:"base_rate"`
	ExtraRate money.Money `json:"extra_rate" bson:"extra_rate"`
}

type Discount struct {
	Name   string      `json:"name" bson:"name"`
	Amount money.Money `json:"amount" bson:"amount"`
}

type Breakdown struct {
	Days              int               `json:"days" bson:"days"`
	LateReturnApplied bool              `json:"late_return_applied" bson:"late_return_applied"`
	DailyRates        []rates.DailyRate `json:"daily_rates" bson:"daily_rates"`
	LineItems         []LineItem        `json:"line_items" bson:"line_items"`
	Discounts         []Discount        `json:"discounts" bson:"discounts"`
	BaseTotal         money.Money       `json:"base_total" bson:"base_total"`
	CustomRatesTotal  money.Money       `json:"custom_rates_total" bson:"custom_rates_total"`
	ExtrasTotal       money.Money       `json:"extras_total" bson:"extras_total"`
	InsuranceTotal    money.Money       `json:"insurance_total" bson:"insurance_total"`
	LateReturnPenalty money.Money       `json:"late_return_penalty" bson:"late_return_penalty"`
	DiscountTotal     money.Money       `json:"discount_total" bson:"discount_total"`
	FinalTotal        money.Money       `json:"final_total" bson:"final_total"`
}

func (b Breakdown) Copy() Breakdown {
	clone := b
	clone.DailyRates = append([]rates.DailyRate(nil), b.DailyRates...)
	clone.LineItems = append([]LineItem(nil), b.LineItems...)
	clone.Discounts = append([]Discount(nil), b.Discounts...)
	return clone
}

// LineSum adds up every line item amount. Free items are zero by construction.
func (b Breakdown) LineSum() money.Money {
	total := money.Zero(b.FinalTotal.Currency)
	for _, item := range b.LineItems {
		total.Amount += item.Amount.Amount
	}
	return total
}

func (b Breakdown) Currency() string {
	return b.FinalTotal.Currency
}

type Input struct {
	Vehicle           *fleet.Vehicle
	PickupDate        time.Time
	Days              int
	LateReturnApplied bool
	Extras            []int
	Insurance         InsuranceTier
	ManualDiscount    money.Money
	LatePenalty       LatePenaltyMode
}

// Compose turns a vehicle, the rental day count and the customer selection
// into an itemized breakdown. No partial breakdown is returned on error.
func Compose(in Input) (Breakdown, error) {
	v := in.Vehicle
	if v == nil {
		return Breakdown{}, ErrVehicleRequired
	}
	if in.Days < 1 {
		return Breakdown{}, ErrDaysRequired
	}
	cur := v.Currency()
	if in.ManualDiscount.IsNegative() {
		return Breakdown{}, ErrNegativeDiscount
	}
	if in.ManualDiscount.Currency != "" && in.ManualDiscount.Currency != cur {
		return Breakdown{}, money.ErrCurrencyMismatch
	}
	mode, err := ParseLatePenaltyMode(string(in.LatePenalty))
	if err != nil {
		return Breakdown{}, err
	}

	baseDays := in.Days
	if in.LateReturnApplied && in.Days > 1 {
		baseDays = in.Days - 1
	}
	schedule := rates.ResolveDays(v, in.PickupDate, baseDays)

	b := Breakdown{
		Days:              in.Days,
		LateReturnApplied: in.LateReturnApplied,
		DailyRates:        schedule.Days,
		BaseTotal:         schedule.Total(),
		CustomRatesTotal:  schedule.CustomDelta(),
		ExtrasTotal:       money.Zero(cur),
		InsuranceTotal:    money.Zero(cur),
		LateReturnPenalty: money.Zero(cur),
		DiscountTotal:     money.Zero(cur),
	}

	if in.LateReturnApplied {
		avg := schedule.Average()
		b.LineItems = append(b.LineItems, LineItem{
			Name:     "Base rate",
			Kind:     KindBaseRate,
			Quantity: baseDays,
			Amount:   b.BaseTotal,
			Free:     b.BaseTotal.IsZero(),
			Type:     ChargeDaily,
			BaseRate: avg,
		})
		penalty := avg
		if mode == LatePenaltyLastDayRate {
			penalty = schedule.Last()
		}
		b.LateReturnPenalty = penalty
		b.LineItems = append(b.LineItems, LineItem{
			Name:     "Late return fee",
			Kind:     KindLateReturnFee,
			Quantity: 1,
			Amount:   penalty,
			Free:     penalty.IsZero(),
			Type:     ChargeFlat,
			BaseRate: penalty,
		})
	} else {
		b.LineItems = append(b.LineItems, LineItem{
			Name:     "Base rate",
			Kind:     KindBaseRate,
			Quantity: in.Days,
			Amount:   b.BaseTotal,
			Free:     b.BaseTotal.IsZero(),
			Type:     ChargeDaily,
			BaseRate: schedule.Average(),
		})
	}

	seen := make(map[int]struct{}, len(in.Extras))
	for _, idx := range in.Extras {
		if idx < 0 || idx >= len(v.Extras) {
			return Breakdown{}, fmt.Errorf("%w: index %d", ErrUnknownExtra, idx)
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		extra := v.Extras[idx]
		amount := extra.DailyRate.Multiply(int64(in.Days))
		b.ExtrasTotal.Amount += amount.Amount
		b.LineItems = append(b.LineItems, LineItem{
			Name:      extra.Name,
			Kind:      KindExtra,
			Quantity:  in.Days,
			Amount:    amount,
			Free:      extra.DailyRate.IsZero(),
			Type:      ChargeDaily,
			ExtraRate: extra.DailyRate,
		})
	}

	switch in.Insurance {
	case "", InsuranceBasic:
		b.LineItems = append(b.LineItems, LineItem{
			Name:      "Basic insurance",
			Kind:      KindInsurance,
			Quantity:  in.Days,
			Amount:    money.Zero(cur),
			Free:      true,
			Type:      ChargeDaily,
			ExtraRate: money.Zero(cur),
		})
	case InsurancePremium:
		premium := v.Insurance.Premium
		if !premium.Enabled {
			return Breakdown{}, ErrPremiumDisabled
		}
		amount := premium.DailyRate.Multiply(int64(in.Days))
		b.InsuranceTotal = amount
		b.LineItems = append(b.LineItems, LineItem{
			Name:      "Premium insurance",
			Kind:      KindInsurance,
			Quantity:  in.Days,
			Amount:    amount,
			Free:      premium.DailyRate.IsZero(),
			Type:      ChargeDaily,
			ExtraRate: premium.DailyRate,
		})
	default:
		return Breakdown{}, fmt.Errorf("%w: %q", ErrUnknownInsurance, in.Insurance)
	}

	subtotal := b.BaseTotal.Amount + b.LateReturnPenalty.Amount + b.ExtrasTotal.Amount + b.InsuranceTotal.Amount
	discount := in.ManualDiscount.Amount
	if discount > subtotal {
		discount = subtotal
	}
	if discount > 0 {
		b.DiscountTotal = money.Money{Amount: discount, Currency: cur}
		b.Discounts = append(b.Discounts, Discount{Name: "Manual discount", Amount: b.DiscountTotal})
	}
	b.FinalTotal = money.Money{Amount: subtotal - discount, Currency: cur}.ClampZero()
	return b, nil
}
