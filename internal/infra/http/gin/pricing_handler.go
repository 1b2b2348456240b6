package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"carbooking/internal/app/dto"
	pricingapp "carbooking/internal/app/handlers/pricing"
	"carbooking/internal/app/queries"
)

var errDatePair = errors.New("pickup_date and return_date must be given together")

type PricingHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h PricingHandler) Preview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	q := pricingapp.PreviewPriceQuery{
		VehicleID:      strings.TrimSpace(req.VehicleID),
		Extras:         req.Extras,
		Insurance:      req.Insurance,
		ManualDiscount: req.ManualDiscount,
	}
	var err error
	if q.PickupDate, err = parseDate("pickup_date", req.PickupDate); err != nil {
		invalidSchedule(c, err)
		return
	}
	if q.ReturnDate, err = parseDate("return_date", req.ReturnDate); err != nil {
		invalidSchedule(c, err)
		return
	}
	if q.PickupTime, err = parseClock("pickup_time", req.PickupTime, defaultClock); err != nil {
		invalidSchedule(c, err)
		return
	}
	if q.ReturnTime, err = parseClock("return_time", req.ReturnTime, defaultClock); err != nil {
		invalidSchedule(c, err)
		return
	}
	result, err := queries.Ask[pricingapp.PreviewPriceQuery, dto.PriceQuote](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err, h.Logger)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PricingHTTP = PricingHandler{}
