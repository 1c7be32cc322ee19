package database

import (
	"context"
	"errors"
	"time"

	"github.com/ds124wfegd/ticketbooker/internal/entity"
)

type EventRepository interface {
	Create(ctx context.Context, event *entity.Event) error
	GetByID(ctx context.Context, id int64) (*entity.Event, error)
	List(ctx context.Context, filter entity.EventFilter) ([]*entity.Event, error)

	// Update rewrites the editable fields. A change of TotalSeats shifts
	// AvailableSeats by the same delta and fails with ErrSeatsBelowBooked
	// when the result would go negative.
	Update(ctx context.Context, event *entity.Event) error
	Delete(ctx context.Context, id int64) error

	// UpdateAvailableSeats is a compare-and-set on the seat counter:
	// ErrConcurrentUpdate when the stored value is no longer expected.
	UpdateAvailableSeats(ctx context.Context, id int64, expected, newCount int) error

	// CompletePast marks active events dated before now as completed.
	CompletePast(ctx context.Context, now time.Time) (int64, error)
}

type BookingRepository interface {
	// ReserveSeats decrements the event's available seats and inserts the
	// booking as one atomic unit. On success the booking carries its ID,
	// amount, date and event summary, and the updated event is returned.
	ReserveSeats(ctx context.Context, booking *entity.Booking) (*entity.Event, error)

	GetByID(ctx context.Context, id int64) (*entity.Booking, error)
	GetByUserID(ctx context.Context, userID int64) ([]*entity.Booking, error)
	CountByEvent(ctx context.Context, eventID int64) (int, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

var (
	// ErrCacheMiss is returned by EventCache when the key is absent.
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheStale is returned by SetEvent when the event was invalidated
	// after the caller read its version.
	ErrCacheStale = errors.New("cache entry invalidated during fill")
)

// EventCache holds read-through copies of single events. Every DeleteEvent
// bumps the event's version; a fill started before that is refused.
type EventCache interface {
	GetEvent(ctx context.Context, id int64) (*entity.Event, error)
	Version(ctx context.Context, id int64) (int64, error)
	SetEvent(ctx context.Context, event *entity.Event, version int64) error
	DeleteEvent(ctx context.Context, id int64) error
}
