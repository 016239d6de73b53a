package models

import (
	"errors"
	"net/http"
)

// Error is a domain error with a stable code and an HTTP status.
type Error struct {
	Code    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Is matches by code, so a derived error still matches its sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of the error with another message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Status: e.Status, Message: msg}
}

var (
	ErrInvalidQR            = &Error{"INVALID_QR", http.StatusBadRequest, "QR code is invalid"}
	ErrInvalidOrExpiredQR   = &Error{"INVALID_OR_EXPIRED_QR", http.StatusBadRequest, "QR code is invalid or expired"}
	ErrInsufficientPoints   = &Error{"INSUFFICIENT_POINTS", http.StatusBadRequest, "not enough points"}
	ErrLoyaltyNotReady      = &Error{"LOYALTY_NOT_READY", http.StatusBadRequest, "not enough stamps yet"}
	ErrOfferNotFound        = &Error{"OFFER_NOT_FOUND", http.StatusNotFound, "service not found"}
	ErrNotFound             = &Error{"NOT_FOUND", http.StatusNotFound, "not found"}
	ErrValidation           = &Error{"VALIDATION_ERROR", http.StatusBadRequest, "validation failed"}
	ErrBookingValidation    = &Error{"BOOKING_VALIDATION_ERROR", http.StatusBadRequest, "booking request is not valid"}
	ErrSlotUnavailable      = &Error{"BOOKING_SLOT_UNAVAILABLE", http.StatusConflict, "time slot is no longer available"}
	ErrProvider             = &Error{"BOOKING_PROVIDER_ERROR", http.StatusBadGateway, "booking provider error"}
	ErrBookingNotCancelable = &Error{"BOOKING_NOT_CANCELABLE", http.StatusBadRequest, "booking can not be canceled"}
	ErrCancelNotAvailable   = &Error{"CANCEL_NOT_AVAILABLE", http.StatusBadRequest, "cancel not available"}
	ErrForbidden            = &Error{"FORBIDDEN", http.StatusForbidden, "forbidden"}
	ErrUnauthorized         = &Error{"UNAUTHORIZED", http.StatusUnauthorized, "unauthorized"}
	ErrRateLimited          = &Error{"RATE_LIMITED", http.StatusTooManyRequests, "too many requests"}
	ErrInternal             = &Error{"INTERNAL", http.StatusInternalServerError, "internal error"}
)

// AsError extracts a domain error, nil if err is not one.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
