package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"carbooking/internal/app/commands"
	"carbooking/internal/app/dto"
	bookingapp "carbooking/internal/app/handlers/booking"
	"carbooking/internal/app/queries"
	"carbooking/internal/domain/booking"
	"carbooking/internal/domain/shared/apperr"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		VehicleID: strings.TrimSpace(req.VehicleID),
		Customer: bookingapp.CustomerInput{
			FirstName: req.Customer.FirstName,
			LastName:  req.Customer.LastName,
			Email:     req.Customer.Email,
			Phone:     req.Customer.Phone,
			Locale:    req.Customer.Locale,
		},
		PickupLocation:  req.PickupLocation,
		ReturnLocation:  req.ReturnLocation,
		HomeDelivery:    req.HomeDelivery,
		DeliveryAddress: req.DeliveryAddress,
		Extras:          req.Extras,
		Insurance:       req.Insurance,
		ManualDiscount:  req.ManualDiscount,
		InternalNotes:   req.InternalNotes,
		CustomerNotes:   req.CustomerNotes,
		IdempotencyKeyV: idempotencyKey(c),
	}
	var err error
	if cmd.PickupDate, err = parseDate("pickup_date", req.PickupDate); err != nil {
		invalidSchedule(c, err)
		return
	}
	if cmd.ReturnDate, err = parseDate("return_date", req.ReturnDate); err != nil {
		invalidSchedule(c, err)
		return
	}
	if cmd.PickupTime, err = parseClock("pickup_time", req.PickupTime, defaultClock); err != nil {
		invalidSchedule(c, err)
		return
	}
	if cmd.ReturnTime, err = parseClock("return_time", req.ReturnTime, defaultClock); err != nil {
		invalidSchedule(c, err)
		return
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err, h.Logger)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	h.get(c, bookingapp.GetBookingQuery{BookingID: strings.TrimSpace(c.Param("id"))})
}

func (h BookingHandler) GetByNumber(c *gin.Context) {
	number := strings.TrimSpace(c.Query("number"))
	if number == "" {
		respondError(c, apperr.New(apperr.CodeInvalidInput, "the number query parameter is required"), nil)
		return
	}
	h.get(c, bookingapp.GetBookingQuery{Number: strings.ToUpper(number)})
}

func (h BookingHandler) get(c *gin.Context, q bookingapp.GetBookingQuery) {
	result, err := queries.Ask[bookingapp.GetBookingQuery, dto.Booking](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err, h.Logger)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Update(c *gin.Context) {
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.UpdateBookingCommand{
		BookingID:       strings.TrimSpace(c.Param("id")),
		VehicleID:       req.VehicleID,
		PickupLocation:  req.PickupLocation,
		ReturnLocation:  req.ReturnLocation,
		HomeDelivery:    req.HomeDelivery,
		DeliveryAddress: req.DeliveryAddress,
		Extras:          req.Extras,
		Insurance:       req.Insurance,
		ManualDiscount:  req.ManualDiscount,
		InternalNotes:   req.InternalNotes,
		CustomerNotes:   req.CustomerNotes,
		IdempotencyKeyV: idempotencyKey(c),
	}
	var err error
	if cmd.PickupDate, err = parseOptionalDate("pickup_date", req.PickupDate); err != nil {
		invalidSchedule(c, err)
		return
	}
	if cmd.ReturnDate, err = parseOptionalDate("return_date", req.ReturnDate); err != nil {
		invalidSchedule(c, err)
		return
	}
	if cmd.PickupTime, err = parseOptionalClock("pickup_time", req.PickupTime); err != nil {
		invalidSchedule(c, err)
		return
	}
	if cmd.ReturnTime, err = parseOptionalClock("return_time", req.ReturnTime); err != nil {
		invalidSchedule(c, err)
		return
	}
	h.dispatchBooking(c, cmd)
}

func (h BookingHandler) Transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.dispatchBooking(c, bookingapp.TransitionStatusCommand{
		BookingID:       strings.TrimSpace(c.Param("id")),
		Status:          strings.ToLower(strings.TrimSpace(req.Status)),
		Reason:          req.Reason,
		Refund:          refundInput(req.Refund),
		IdempotencyKeyV: idempotencyKey(c),
	})
}

// Cancel is the transition to cancelled with an optional refund in the same
// request.
func (h BookingHandler) Cancel(c *gin.Context) {
	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	h.dispatchBooking(c, bookingapp.TransitionStatusCommand{
		BookingID:       strings.TrimSpace(c.Param("id")),
		Status:          string(booking.StatusCancelled),
		Reason:          req.Reason,
		Refund:          refundInput(req.Refund),
		IdempotencyKeyV: idempotencyKey(c),
	})
}

func (h BookingHandler) Refund(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.dispatchBooking(c, bookingapp.ProcessRefundCommand{
		BookingID:       strings.TrimSpace(c.Param("id")),
		Amount:          req.Amount,
		Reason:          req.Reason,
		Override:        req.Override,
		IdempotencyKeyV: idempotencyKey(c),
	})
}

func (h BookingHandler) dispatchBooking(c *gin.Context, cmd commands.Command) {
	result, err := commands.Dispatch[commands.Command, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err, h.Logger)
		return
	}
	c.JSON(http.StatusOK, result)
}

func refundInput(req *refundRequest) *bookingapp.RefundInput {
	if req == nil {
		return nil
	}
	return &bookingapp.RefundInput{Amount: req.Amount, Reason: req.Reason, Override: req.Override}
}

func invalidSchedule(c *gin.Context, err error) {
	respondError(c, apperr.Wrap(apperr.CodeInvalidDateRange, err), nil)
}

var _ BookingHTTP = BookingHandler{}
