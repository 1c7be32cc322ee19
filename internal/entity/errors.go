package entity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// Event errors
	ErrEventNotFound    = errors.New("event not found")
	ErrEventNotActive   = errors.New("event is not open for booking")
	ErrEventHasBookings = errors.New("event has bookings and cannot be deleted")
	ErrSeatsBelowBooked = errors.New("total seats cannot be lower than seats already booked")
	ErrNotEnoughSeats   = errors.New("not enough seats available")

	// Booking errors
	ErrBookingNotFound    = errors.New("booking not found")
	ErrDuplicateReference = errors.New("booking reference already exists")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// General errors
	ErrInvalidInput     = errors.New("invalid input")
	ErrConcurrentUpdate = errors.New("concurrent update detected")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden operation")
)

// CapacityError reports a reservation that asked for more seats than remain.
type CapacityError struct {
	Requested int
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("not enough seats available: requested %d, available %d", e.Requested, e.Available)
}

func (e *CapacityError) Unwrap() error { return ErrNotEnoughSeats }

// ValidationError carries per-field messages for a rejected request.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }
