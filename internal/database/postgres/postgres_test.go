package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventCols = []string{
	"id", "title", "description", "date", "time", "venue", "address", "category", "price",
	"total_seats", "available_seats", "image", "organizer_id", "status", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "postgres"), mock
}

func eventRow(id int64, price float64, total, available int, status entity.EventStatus) *sqlmock.Rows {
	date := time.Date(2026, 12, 1, 19, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(eventCols).AddRow(
		id, "Jazz Night", "Live jazz", date, "07:00 PM", "Blue Hall", "1 Main St",
		"concert", price, total, available, entity.DefaultEventImage, int64(1), string(status), date, date,
	)
}

func newBooking(eventID int64, tickets int) *entity.Booking {
	return &entity.Booking{
		BookingReference: "BK-20261019-AB12CD34",
		UserID:           5,
		EventID:          eventID,
		NumberOfTickets:  tickets,
		Attendee:         entity.AttendeeInfo{Name: "Ann", Email: "ann@example.com", Phone: "+100"},
	}
}

func TestReserveSeatsCommitsDecrementAndInsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE events\s+SET available_seats = available_seats - \$1`).
		WithArgs(3, sqlmock.AnyArg(), int64(1), "active").
		WillReturnRows(eventRow(1, 50.0, 10, 7, entity.EventStatusActive))
	mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs("BK-20261019-AB12CD34", int64(5), int64(1), 3, 150.0, sqlmock.AnyArg(),
			"confirmed", "paid", "Ann", "ann@example.com", "+100").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectCommit()

	booking := newBooking(1, 3)
	event, err := repo.ReserveSeats(context.Background(), booking)

	require.NoError(t, err)
	assert.Equal(t, 7, event.AvailableSeats)
	assert.Equal(t, int64(42), booking.ID)
	assert.InDelta(t, 150.0, booking.TotalAmount, 1e-9)
	assert.Equal(t, entity.BookingStatusConfirmed, booking.Status)
	require.NotNil(t, booking.Event)
	assert.Equal(t, "Jazz Night", booking.Event.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsRejections(t *testing.T) {
	tests := []struct {
		name    string
		state   *sqlmock.Rows
		checkFn func(t *testing.T, err error)
	}{
		{
			name:  "not enough seats",
			state: sqlmock.NewRows([]string{"status", "available_seats"}).AddRow("active", 2),
			checkFn: func(t *testing.T, err error) {
				var capErr *entity.CapacityError
				require.True(t, errors.As(err, &capErr))
				assert.Equal(t, 2, capErr.Available)
				assert.Equal(t, 5, capErr.Requested)
			},
		},
		{
			name:  "event cancelled",
			state: sqlmock.NewRows([]string{"status", "available_seats"}).AddRow("cancelled", 20),
			checkFn: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, entity.ErrEventNotActive)
			},
		},
		{
			name:  "event missing",
			state: sqlmock.NewRows([]string{"status", "available_seats"}),
			checkFn: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, entity.ErrEventNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewBookingRepository(db)

			mock.ExpectBegin()
			mock.ExpectQuery(`UPDATE events`).WillReturnRows(sqlmock.NewRows(eventCols))
			mock.ExpectQuery(`SELECT status, available_seats FROM events`).
				WithArgs(int64(1)).
				WillReturnRows(tt.state)
			mock.ExpectRollback()

			booking := newBooking(1, 5)
			_, err := repo.ReserveSeats(context.Background(), booking)

			require.Error(t, err)
			tt.checkFn(t, err)
			assert.Zero(t, booking.ID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReserveSeatsDuplicateReferenceRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE events`).WillReturnRows(eventRow(1, 10, 10, 9, entity.EventStatusActive))
	mock.ExpectQuery(`INSERT INTO bookings`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: constraintBookingReference})
	mock.ExpectRollback()

	_, err := repo.ReserveSeats(context.Background(), newBooking(1, 1))

	assert.ErrorIs(t, err, entity.ErrDuplicateReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsSerializationFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE events`).WillReturnError(&pq.Error{Code: "40001"})
	mock.ExpectRollback()

	_, err := repo.ReserveSeats(context.Background(), newBooking(1, 1))

	assert.ErrorIs(t, err, entity.ErrConcurrentUpdate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingGetByIDJoinsEvent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	date := time.Date(2026, 12, 1, 19, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "booking_reference", "user_id", "event_id", "number_of_tickets",
		"total_amount", "booking_date", "status", "payment_status",
		"attendee_name", "attendee_email", "attendee_phone",
		"event_title", "event_date", "event_venue", "event_price", "event_address",
	}).AddRow(
		int64(9), "BK-20261019-AB12CD34", int64(5), int64(1), 2,
		80.0, date, "confirmed", "paid",
		"Ann", "ann@example.com", "+100",
		"Jazz Night", date, "Blue Hall", 40.0, "1 Main St",
	)
	mock.ExpectQuery(`FROM bookings b\s+JOIN events e`).WithArgs(int64(9)).WillReturnRows(rows)

	booking, err := repo.GetByID(context.Background(), 9)

	require.NoError(t, err)
	assert.Equal(t, "Ann", booking.Attendee.Name)
	assert.Equal(t, "Blue Hall", booking.Event.Venue)
	assert.Equal(t, int64(1), booking.Event.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	mock.ExpectQuery(`FROM bookings b`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, entity.ErrBookingNotFound)
}

func TestEventListBuildsFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)

	mock.ExpectQuery(`WHERE status = \$1 AND category = \$2 AND \(title ILIKE \$3 OR description ILIKE \$3\) ORDER BY date ASC`).
		WithArgs("active", "concert", "%jazz%").
		WillReturnRows(eventRow(1, 40, 100, 100, entity.EventStatusActive))

	events, err := repo.List(context.Background(), entity.EventFilter{Category: entity.CategoryConcert, Search: " jazz "})

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, entity.CategoryConcert, events[0].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventUpdateRejectsTotalBelowBooked(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)

	mock.ExpectQuery(`UPDATE events`).WillReturnRows(sqlmock.NewRows(eventCols))
	mock.ExpectQuery(`(?s)SELECT .* FROM events WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(eventRow(1, 40, 100, 10, entity.EventStatusActive))

	err := repo.Update(context.Background(), &entity.Event{ID: 1, TotalSeats: 50, Status: entity.EventStatusActive})

	assert.ErrorIs(t, err, entity.ErrSeatsBelowBooked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventDeleteBlockedByBookings(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM events WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 1)

	assert.ErrorIs(t, err, entity.ErrEventHasBookings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventDeleteWithoutBookings(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT COUNT`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM events`).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAvailableSeatsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)

	mock.ExpectExec(`UPDATE events\s+SET available_seats = \$1`).
		WithArgs(5, sqlmock.AnyArg(), int64(1), 8).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`(?s)SELECT .* FROM events WHERE id = \$1`).
		WillReturnRows(eventRow(1, 40, 10, 6, entity.EventStatusActive))

	err := repo.UpdateAvailableSeats(context.Background(), 1, 8, 5)

	assert.ErrorIs(t, err, entity.ErrConcurrentUpdate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAvailableSeatsOutOfRange(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)

	mock.ExpectExec(`UPDATE events`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`(?s)SELECT .* FROM events`).
		WillReturnRows(eventRow(1, 40, 10, 6, entity.EventStatusActive))

	err := repo.UpdateAvailableSeats(context.Background(), 1, 6, 11)

	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestCompletePast(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec(`UPDATE events SET status = \$1`).
		WithArgs("completed", now, "active").
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.CompletePast(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: constraintUserEmail})

	err := repo.Create(context.Background(), &entity.User{Name: "Ann", Email: "Ann@Example.com", Role: entity.RoleUser})

	assert.ErrorIs(t, err, entity.ErrUserAlreadyExists)
}
