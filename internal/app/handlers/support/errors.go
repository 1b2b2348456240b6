package support

import (
	"errors"

	"carbooking/internal/domain/availability"
	"carbooking/internal/domain/booking"
	"carbooking/internal/domain/calendar"
	"carbooking/internal/domain/customer"
	"carbooking/internal/domain/fleet"
	"carbooking/internal/domain/pricing"
	"carbooking/internal/domain/shared/apperr"
	"carbooking/internal/domain/shared/daterange"
	"carbooking/internal/domain/shared/money"
)

type classification struct {
	target error
	code   apperr.Code
}

var classifications = []classification{
	{fleet.ErrVehicleNotFound, apperr.CodeInvalidVehicle},
	{fleet.ErrIDRequired, apperr.CodeInvalidVehicle},
	{fleet.ErrNameRequired, apperr.CodeInvalidVehicle},
	{fleet.ErrQuantity, apperr.CodeInvalidVehicle},
	{fleet.ErrDailyRate, apperr.CodeInvalidVehicle},
	{fleet.ErrCustomRateType, apperr.CodeInvalidVehicle},
	{fleet.ErrCustomRateDates, apperr.CodeInvalidVehicle},
	{fleet.ErrOverlappingCustomRates, apperr.CodeInvalidVehicle},
	{fleet.ErrExtraName, apperr.CodeInvalidVehicle},
	{fleet.ErrConcurrentUpdate, apperr.CodePersistenceConflict},
	{calendar.ErrInvalidRange, apperr.CodeInvalidDateRange},
	{calendar.ErrInvalidClock, apperr.CodeInvalidDateRange},
	{calendar.ErrInvalidDate, apperr.CodeInvalidDateRange},
	{daterange.ErrInvalidRange, apperr.CodeInvalidDateRange},
	{booking.ErrPickupInPast, apperr.CodeInvalidDateRange},
	{customer.ErrIDRequired, apperr.CodeInvalidCustomer},
	{customer.ErrNameRequired, apperr.CodeInvalidCustomer},
	{customer.ErrEmailRequired, apperr.CodeInvalidCustomer},
	{customer.ErrEmailMalformed, apperr.CodeInvalidCustomer},
	{availability.ErrNoUnitsLeft, apperr.CodeAvailability},
	{pricing.ErrUnknownExtra, apperr.CodeInvalidSelection},
	{pricing.ErrPremiumDisabled, apperr.CodeInvalidSelection},
	{pricing.ErrUnknownInsurance, apperr.CodeInvalidSelection},
	{pricing.ErrNegativeDiscount, apperr.CodeInvalidDiscount},
	{money.ErrCurrencyMismatch, apperr.CodeInvalidInput},
	{money.ErrInvalidCurrency, apperr.CodeInvalidInput},
	{booking.ErrInvalidTransition, apperr.CodeInvalidTransition},
	{booking.ErrFieldLocked, apperr.CodeFieldLocked},
	{booking.ErrRefundAmount, apperr.CodeInvalidRefund},
	{booking.ErrRefundExceedsTotal, apperr.CodeInvalidRefund},
	{booking.ErrBookingNumberExhausted, apperr.CodeBookingNumberExhausted},
	{booking.ErrBookingNotFound, apperr.CodeNotFound},
	{customer.ErrNotFound, apperr.CodeNotFound},
}

// Classify attaches a stable code to known domain errors. Errors that already
// carry a code and unknown errors pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	for _, c := range classifications {
		if errors.Is(err, c.target) {
			return apperr.Wrap(c.code, err)
		}
	}
	return err
}
