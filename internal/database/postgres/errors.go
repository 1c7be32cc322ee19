package repository

import (
	"errors"
	"fmt"

	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/lib/pq"
)

const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"

	constraintBookingReference = "bookings_booking_reference_key"
	constraintUserEmail        = "users_email_key"
)

// translateError maps driver errors onto the entity error taxonomy and
// wraps everything else with the operation name.
func translateError(op string, err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch string(pqErr.Code) {
	case codeUniqueViolation:
		switch pqErr.Constraint {
		case constraintBookingReference:
			return entity.ErrDuplicateReference
		case constraintUserEmail:
			return entity.ErrUserAlreadyExists
		}
	case codeForeignKeyViolation:
		if pqErr.Table == "bookings" || pqErr.Table == "events" {
			return entity.ErrEventHasBookings
		}
	case codeCheckViolation:
		return fmt.Errorf("%s: %w: %s", op, entity.ErrInvalidInput, pqErr.Constraint)
	case codeSerializationFailure, codeDeadlockDetected:
		return entity.ErrConcurrentUpdate
	}

	return fmt.Errorf("%s: %w", op, err)
}
