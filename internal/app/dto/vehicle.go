package dto

import (
	"time"

	"carbooking/internal/domain/calendar"
	"carbooking/internal/domain/fleet"
)

type CustomRate struct {
	Type      string   `json:"type"`
	StartDate string   `json:"start_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
	DailyRate MoneyDTO `json:"daily_rate"`
}

type ExtraService struct {
	Index     int      `json:"index"`
	Name      string   `json:"name"`
	DailyRate MoneyDTO `json:"daily_rate"`
}

type PremiumInsurance struct {
	Enabled    bool     `json:"enabled"`
	DailyRate  MoneyDTO `json:"daily_rate"`
	Deductible MoneyDTO `json:"deductible"`
}

type Vehicle struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Type           string           `json:"type,omitempty"`
	Location       string           `json:"location,omitempty"`
	DailyRate      MoneyDTO         `json:"daily_rate"`
	TotalQuantity  int              `json:"total_quantity"`
	CustomRates    []CustomRate     `json:"custom_rates"`
	Extras         []ExtraService   `json:"extras"`
	Premium        PremiumInsurance `json:"premium_insurance"`
	LateReturnRule bool             `json:"late_return_rule"`
	LateReturnTime string           `json:"late_return_time,omitempty"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// VehicleSummary is a search hit, annotated with availability when the search
// carried dates.
type VehicleSummary struct {
	Vehicle
	AvailableQuantity *int `json:"available_quantity,omitempty"`
}

type VehicleCollection struct {
	Items []VehicleSummary `json:"items"`
}

func MapVehicle(v *fleet.Vehicle) Vehicle {
	if v == nil {
		return Vehicle{}
	}
	rates := make([]CustomRate, 0, len(v.CustomRates))
	for _, r := range v.CustomRates {
		item := CustomRate{Type: string(r.Type), DailyRate: MapMoney(r.DailyRate)}
		if r.Type == fleet.RateDateRange {
			item.StartDate = calendar.FormatDate(r.StartDate)
			item.EndDate = calendar.FormatDate(r.EndDate)
		}
		rates = append(rates, item)
	}
	extras := make([]ExtraService, 0, len(v.Extras))
	for i, e := range v.Extras {
		extras = append(extras, ExtraService{Index: i, Name: e.Name, DailyRate: MapMoney(e.DailyRate)})
	}
	out := Vehicle{
		ID:            string(v.ID),
		Name:          v.Name,
		Type:          v.Type,
		Location:      v.Location,
		DailyRate:     MapMoney(v.DailyRate),
		TotalQuantity: v.TotalQuantity,
		CustomRates:   rates,
		Extras:        extras,
		Premium: PremiumInsurance{
			Enabled:    v.Insurance.Premium.Enabled,
			DailyRate:  MapMoney(v.Insurance.Premium.DailyRate),
			Deductible: MapMoney(v.Insurance.Premium.Deductible),
		},
		LateReturnRule: v.Misc.LateReturnRule,
		UpdatedAt:      v.UpdatedAt,
	}
	if v.Misc.LateReturnRule {
		out.LateReturnTime = v.Misc.LateReturnTime.String()
	}
	return out
}
