package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ds124wfegd/ticketbooker/internal/database"
	"github.com/ds124wfegd/ticketbooker/internal/entity"
)

type bookingRepository struct {
	store *Store
}

func NewBookingRepository(store *Store) database.BookingRepository {
	return &bookingRepository{store: store}
}

// ReserveSeats runs check, decrement and insert under the event's lock.
// store.mu is only held for the map reads and the final write, so
// reservations on different events do not wait for each other.
func (r *bookingRepository) ReserveSeats(ctx context.Context, booking *entity.Booking) (*entity.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := r.store.eventLocks.Lock(booking.EventID)
	defer unlock()

	r.store.mu.RLock()
	current, ok := r.store.events[booking.EventID]
	var snapshot entity.Event
	if ok {
		snapshot = *current
	}
	r.store.mu.RUnlock()

	if !ok {
		return nil, entity.ErrEventNotFound
	}
	if !snapshot.IsBookable() {
		return nil, entity.ErrEventNotActive
	}
	if snapshot.AvailableSeats < booking.NumberOfTickets {
		return nil, &entity.CapacityError{Requested: booking.NumberOfTickets, Available: snapshot.AvailableSeats}
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	// references are global, another event's reservation may have taken it
	if _, taken := r.store.refs[booking.BookingReference]; taken {
		return nil, entity.ErrDuplicateReference
	}

	// seat counters only change under the event lock we hold, so the
	// capacity check above still holds
	event := r.store.events[booking.EventID]
	now := time.Now().UTC()
	event.AvailableSeats -= booking.NumberOfTickets
	event.UpdatedAt = now

	booking.TotalAmount = entity.ChargeFor(event.Price, booking.NumberOfTickets)
	booking.BookingDate = now
	if booking.Status == "" {
		booking.Status = entity.BookingStatusConfirmed
	}
	if booking.PaymentStatus == "" {
		booking.PaymentStatus = entity.PaymentStatusPaid
	}

	r.store.nextBookingID++
	booking.ID = r.store.nextBookingID

	stored := *booking
	stored.Event = nil
	r.store.bookings[booking.ID] = &stored
	r.store.refs[booking.BookingReference] = booking.ID

	booking.Event = event.Summary()
	return copyEvent(event), nil
}

// withEvent returns a copy of b carrying the current summary of its event.
// Caller holds store.mu.
func (r *bookingRepository) withEvent(b *entity.Booking) *entity.Booking {
	c := *b
	if event, ok := r.store.events[b.EventID]; ok {
		c.Event = event.Summary()
	}
	return &c
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*entity.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	b, ok := r.store.bookings[id]
	if !ok {
		return nil, entity.ErrBookingNotFound
	}
	return r.withEvent(b), nil
}

func (r *bookingRepository) GetByUserID(ctx context.Context, userID int64) ([]*entity.Booking, error) {
	r.store.mu.RLock()
	bookings := make([]*entity.Booking, 0)
	for _, b := range r.store.bookings {
		if b.UserID == userID {
			bookings = append(bookings, r.withEvent(b))
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].BookingDate.Equal(bookings[j].BookingDate) {
			return bookings[i].ID > bookings[j].ID
		}
		return bookings[i].BookingDate.After(bookings[j].BookingDate)
	})
	return bookings, nil
}

func (r *bookingRepository) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, b := range r.store.bookings {
		if b.EventID == eventID {
			count++
		}
	}
	return count, nil
}
