// Package apperr classifies domain failures into stable, user-facing codes.
package apperr

import (
	"errors"
	"net/http"
)

type Code string

const (
	CodeInvalidVehicle         Code = "invalid_vehicle"
	CodeInvalidDateRange       Code = "invalid_date_range"
	CodeInvalidCustomer        Code = "invalid_customer"
	CodeAvailability           Code = "availability"
	CodeInvalidSelection       Code = "invalid_selection"
	CodeInvalidTransition      Code = "invalid_transition"
	CodeFieldLocked            Code = "field_locked"
	CodeInvalidDiscount        Code = "invalid_discount"
	CodeInvalidRefund          Code = "invalid_refund"
	CodePersistenceConflict    Code = "persistence_conflict"
	CodeBookingNumberExhausted Code = "booking_number_exhausted"
	CodeInvalidInput           Code = "invalid_input"
	CodeNotFound               Code = "not_found"
	CodeUnauthorized           Code = "unauthorized"
	CodeForbidden              Code = "forbidden"
	CodeInternal               Code = "internal"
)

// Error carries a stable code, a message safe to show to end users and the
// underlying cause for logs.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code to err. The error message is used as the public message.
func Wrap(code Code, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: err.Error(), Err: err}
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two *Error values by code so sentinel kinds work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Err == nil
}

// CodeOf returns the code of the first *Error in the chain, or CodeInternal.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// HTTPStatus maps a code to the response status used by the API layer.
func HTTPStatus(code Code) int {
	switch code {
	case CodeInvalidVehicle, CodeInvalidDateRange, CodeInvalidCustomer,
		CodeInvalidSelection, CodeInvalidDiscount, CodeInvalidRefund, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeAvailability, CodeInvalidTransition, CodeFieldLocked, CodePersistenceConflict:
		return http.StatusConflict
	case CodeBookingNumberExhausted:
		return http.StatusServiceUnavailable
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
