package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/ticketbooker/internal/database"
	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/jmoiron/sqlx"
)

// bookingRow is the flat shape of a booking joined with its event.
type bookingRow struct {
	entity.Booking
	AttendeeName  string    `db:"attendee_name"`
	AttendeeEmail string    `db:"attendee_email"`
	AttendeePhone string    `db:"attendee_phone"`
	EventTitle    string    `db:"event_title"`
	EventDate     time.Time `db:"event_date"`
	EventVenue    string    `db:"event_venue"`
	EventPrice    float64   `db:"event_price"`
	EventAddress  string    `db:"event_address"`
}

func (r *bookingRow) toEntity() *entity.Booking {
	b := r.Booking
	b.Attendee = entity.AttendeeInfo{
		Name:  r.AttendeeName,
		Email: r.AttendeeEmail,
		Phone: r.AttendeePhone,
	}
	b.Event = &entity.EventSummary{
		ID:      r.EventID,
		Title:   r.EventTitle,
		Date:    r.EventDate,
		Venue:   r.EventVenue,
		Price:   r.EventPrice,
		Address: r.EventAddress,
	}
	return &b
}

const bookingSelect = `
	SELECT
		b.id, b.booking_reference, b.user_id, b.event_id, b.number_of_tickets,
		b.total_amount, b.booking_date, b.status, b.payment_status,
		b.attendee_name, b.attendee_email, b.attendee_phone,
		e.title AS event_title, e.date AS event_date, e.venue AS event_venue,
		e.price AS event_price, e.address AS event_address
	FROM bookings b
	JOIN events e ON e.id = b.event_id
`

type bookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) database.BookingRepository {
	return &bookingRepository{db: db}
}

// ReserveSeats decrements the seat counter and inserts the booking in one
// transaction. The conditional UPDATE holds the event row lock until commit,
// so competing reservations for the same event queue behind it.
func (r *bookingRepository) ReserveSeats(ctx context.Context, booking *entity.Booking) (*entity.Event, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	var event entity.Event
	err = tx.GetContext(ctx, &event, `
		UPDATE events
		SET available_seats = available_seats - $1, updated_at = $2
		WHERE id = $3 AND status = $4 AND available_seats >= $1
		RETURNING `+eventColumns,
		booking.NumberOfTickets, now, booking.EventID, entity.EventStatusActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, explainRejection(ctx, tx, booking)
	}
	if err != nil {
		return nil, translateError("reserve seats", err)
	}

	booking.TotalAmount = entity.ChargeFor(event.Price, booking.NumberOfTickets)
	booking.BookingDate = now
	if booking.Status == "" {
		booking.Status = entity.BookingStatusConfirmed
	}
	if booking.PaymentStatus == "" {
		booking.PaymentStatus = entity.PaymentStatusPaid
	}

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO bookings (
			booking_reference, user_id, event_id, number_of_tickets, total_amount,
			booking_date, status, payment_status, attendee_name, attendee_email, attendee_phone
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		booking.BookingReference,
		booking.UserID,
		booking.EventID,
		booking.NumberOfTickets,
		booking.TotalAmount,
		booking.BookingDate,
		booking.Status,
		booking.PaymentStatus,
		booking.Attendee.Name,
		booking.Attendee.Email,
		booking.Attendee.Phone,
	).Scan(&booking.ID)
	if err != nil {
		return nil, translateError("insert booking", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, translateError("commit reservation", err)
	}

	booking.Event = event.Summary()
	return &event, nil
}

// explainRejection reads the event inside the same transaction to tell the
// caller why the conditional decrement matched nothing.
func explainRejection(ctx context.Context, tx *sqlx.Tx, booking *entity.Booking) error {
	var state struct {
		Status         entity.EventStatus `db:"status"`
		AvailableSeats int                `db:"available_seats"`
	}
	err := tx.GetContext(ctx, &state, `SELECT status, available_seats FROM events WHERE id = $1`, booking.EventID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.ErrEventNotFound
	}
	if err != nil {
		return translateError("inspect event", err)
	}
	if state.Status != entity.EventStatusActive {
		return entity.ErrEventNotActive
	}
	return &entity.CapacityError{Requested: booking.NumberOfTickets, Available: state.AvailableSeats}
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*entity.Booking, error) {
	var row bookingRow
	err := r.db.GetContext(ctx, &row, bookingSelect+` WHERE b.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrBookingNotFound
	}
	if err != nil {
		return nil, translateError("get booking", err)
	}
	return row.toEntity(), nil
}

func (r *bookingRepository) GetByUserID(ctx context.Context, userID int64) ([]*entity.Booking, error) {
	var rows []bookingRow
	err := r.db.SelectContext(ctx, &rows, bookingSelect+` WHERE b.user_id = $1 ORDER BY b.booking_date DESC, b.id DESC`, userID)
	if err != nil {
		return nil, translateError("get user bookings", err)
	}

	bookings := make([]*entity.Booking, 0, len(rows))
	for i := range rows {
		bookings = append(bookings, rows[i].toEntity())
	}
	return bookings, nil
}

func (r *bookingRepository) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM bookings WHERE event_id = $1`, eventID); err != nil {
		return 0, translateError("count bookings", err)
	}
	return count, nil
}
