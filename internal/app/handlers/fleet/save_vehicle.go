package fleet

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"carbooking/internal/app/commands"
	"carbooking/internal/app/dto"
	"carbooking/internal/app/handlers/support"
	"carbooking/internal/app/middleware"
	"carbooking/internal/domain/calendar"
	domainfleet "carbooking/internal/domain/fleet"
	"carbooking/internal/domain/shared/money"
)

const saveVehicleKey = "fleet.save"

type CustomRateInput struct {
	Type      string `json:"type" validate:"required,oneof=date_range weekends"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	DailyRate int64  `json:"daily_rate"`
}

type ExtraInput struct {
	Name      string `json:"name" validate:"required"`
	DailyRate int64  `json:"daily_rate"`
}

type PremiumInput struct {
	Enabled    bool  `json:"enabled"`
	DailyRate  int64 `json:"daily_rate"`
	Deductible int64 `json:"deductible"`
}

// SaveVehicleCommand creates or replaces a vehicle definition.
type SaveVehicleCommand struct {
	ID              string            `json:"id" validate:"required"`
	Name            string            `json:"name" validate:"required"`
	Type            string            `json:"type"`
	Location        string            `json:"location"`
	DailyRate       int64             `json:"daily_rate"`
	Currency        string            `json:"currency" validate:"required,len=3"`
	TotalQuantity   int               `json:"total_quantity"`
	CustomRates     []CustomRateInput `json:"custom_rates" validate:"dive"`
	Extras          []ExtraInput      `json:"extras" validate:"dive"`
	Premium         PremiumInput      `json:"premium_insurance"`
	LateReturnRule  bool              `json:"late_return_rule"`
	LateReturnTime  string            `json:"late_return_time"`
	IdempotencyKeyV string            `json:"-"`
}

func (c SaveVehicleCommand) Key() string { return saveVehicleKey }

func (c SaveVehicleCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c SaveVehicleCommand) ResultPrototype() any { return &dto.Vehicle{} }

func (c SaveVehicleCommand) params(now time.Time) (domainfleet.CreateParams, error) {
	cur := c.Currency
	rate, err := money.New(c.DailyRate, cur)
	if err != nil {
		return domainfleet.CreateParams{}, err
	}
	p := domainfleet.CreateParams{
		ID:            domainfleet.VehicleID(c.ID),
		Name:          c.Name,
		Type:          c.Type,
		Location:      c.Location,
		DailyRate:     rate,
		TotalQuantity: c.TotalQuantity,
		Insurance: domainfleet.InsuranceOptions{Premium: domainfleet.PremiumInsurance{
			Enabled:    c.Premium.Enabled,
			DailyRate:  money.Money{Amount: c.Premium.DailyRate, Currency: rate.Currency},
			Deductible: money.Money{Amount: c.Premium.Deductible, Currency: rate.Currency},
		}},
		Misc: domainfleet.Misc{LateReturnRule: c.LateReturnRule},
		Now:  now,
	}
	if c.LateReturnRule {
		clock, err := calendar.ParseClock(c.LateReturnTime)
		if err != nil {
			return domainfleet.CreateParams{}, err
		}
		p.Misc.LateReturnTime = clock
	}
	for _, r := range c.CustomRates {
		cr := domainfleet.CustomRate{
			Type:      domainfleet.CustomRateType(r.Type),
			DailyRate: money.Money{Amount: r.DailyRate, Currency: rate.Currency},
		}
		if cr.Type == domainfleet.RateDateRange {
			if cr.StartDate, err = calendar.ParseDate(r.StartDate); err != nil {
				return domainfleet.CreateParams{}, errors.Join(domainfleet.ErrCustomRateDates, err)
			}
			if cr.EndDate, err = calendar.ParseDate(r.EndDate); err != nil {
				return domainfleet.CreateParams{}, errors.Join(domainfleet.ErrCustomRateDates, err)
			}
		}
		p.CustomRates = append(p.CustomRates, cr)
	}
	for _, e := range c.Extras {
		p.Extras = append(p.Extras, domainfleet.ExtraService{
			Name:      e.Name,
			DailyRate: money.Money{Amount: e.DailyRate, Currency: rate.Currency},
		})
	}
	return p, nil
}

type SaveVehicleHandler struct {
	Now    func() time.Time
	Logger *slog.Logger
}

func (h *SaveVehicleHandler) Handle(ctx context.Context, cmd SaveVehicleCommand) (*dto.Vehicle, error) {
	res, err := h.handle(ctx, cmd)
	if err != nil {
		return nil, support.Classify(err)
	}
	return res, nil
}

func (h *SaveVehicleHandler) handle(ctx context.Context, cmd SaveVehicleCommand) (*dto.Vehicle, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}
	params, err := cmd.params(now)
	if err != nil {
		return nil, err
	}
	v, err := domainfleet.NewVehicle(params)
	if err != nil {
		return nil, err
	}
	existing, err := unit.Vehicles().ByID(ctx, v.ID)
	switch {
	case err == nil:
		v.CreatedAt = existing.CreatedAt
		v.BookingVersion = existing.BookingVersion
	case !errors.Is(err, domainfleet.ErrVehicleNotFound):
		return nil, err
	}
	if err := unit.Vehicles().Save(ctx, v); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("vehicle saved", "vehicle", v.ID, "quantity", v.TotalQuantity)
	}
	out := dto.MapVehicle(v)
	return &out, nil
}

var (
	_ commands.Handler[SaveVehicleCommand, *dto.Vehicle] = (*SaveVehicleHandler)(nil)
	_ middleware.IdempotentCommand                       = SaveVehicleCommand{}
)
