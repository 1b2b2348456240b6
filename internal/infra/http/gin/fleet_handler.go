package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"carbooking/internal/app/commands"
	"carbooking/internal/app/dto"
	availabilityapp "carbooking/internal/app/handlers/availability"
	bookingapp "carbooking/internal/app/handlers/booking"
	fleetapp "carbooking/internal/app/handlers/fleet"
	"carbooking/internal/app/queries"
)

type FleetHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

// Search lists vehicles; with both dates given only vehicles with a free unit
// are returned.
func (h FleetHandler) Search(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		badRequest(c, err)
		return
	}
	q := fleetapp.SearchVehiclesQuery{
		Type:     strings.TrimSpace(c.Query("type")),
		Location: strings.TrimSpace(c.Query("location")),
		Limit:    limit,
	}
	pickup, hasPickup := c.GetQuery("pickup_date")
	ret, hasReturn := c.GetQuery("return_date")
	if hasPickup != hasReturn {
		badRequest(c, errDatePair)
		return
	}
	if q.PickupDate, err = parseOptionalDate("pickup_date", &pickup); err != nil {
		invalidSchedule(c, err)
		return
	}
	if q.ReturnDate, err = parseOptionalDate("return_date", &ret); err != nil {
		invalidSchedule(c, err)
		return
	}
	result, err := queries.Ask[fleetapp.SearchVehiclesQuery, dto.VehicleCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err, h.Logger)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h FleetHandler) Get(c *gin.Context) {
	q := fleetapp.GetVehicleQuery{VehicleID: strings.TrimSpace(c.Param("id"))}
	result, err := queries.Ask[fleetapp.GetVehicleQuery, dto.Vehicle](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err, h.Logger)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Save creates or replaces the vehicle identified by the path.
func (h FleetHandler) Save(c *gin.Context) {
	var cmd fleetapp.SaveVehicleCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		badRequest(c, err)
		return
	}
	cmd.ID = strings.TrimSpace(c.Param("id"))
	cmd.IdempotencyKeyV = idempotencyKey(c)
	result, err := commands.Dispatch[fleetapp.SaveVehicleCommand, *dto.Vehicle](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err, h.Logger)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h FleetHandler) Bookings(c *gin.Context) {
	q := bookingapp.ListVehicleBookingsQuery{VehicleID: strings.TrimSpace(c.Param("id"))}
	result, err := queries.Ask[bookingapp.ListVehicleBookingsQuery, dto.VehicleBookingData](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err, h.Logger)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h FleetHandler) Availability(c *gin.Context) {
	q := availabilityapp.CheckAvailabilityQuery{
		VehicleID:        strings.TrimSpace(c.Param("id")),
		ExcludeBookingID: strings.TrimSpace(c.Query("exclude_booking_id")),
	}
	var err error
	if q.PickupDate, err = parseDate("pickup_date", c.Query("pickup_date")); err != nil {
		invalidSchedule(c, err)
		return
	}
	if q.ReturnDate, err = parseDate("return_date", c.Query("return_date")); err != nil {
		invalidSchedule(c, err)
		return
	}
	result, err := queries.Ask[availabilityapp.CheckAvailabilityQuery, dto.Availability](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err, h.Logger)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ FleetHTTP = FleetHandler{}
