package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ds124wfegd/ticketbooker/internal/database"
	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/jmoiron/sqlx"
)

const eventColumns = `id, title, description, date, time, venue, address, category, price,
	total_seats, available_seats, image, organizer_id, status, created_at, updated_at`

type eventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) database.EventRepository {
	return &eventRepository{db: db}
}

// Create inserts the event with every seat available.
func (r *eventRepository) Create(ctx context.Context, event *entity.Event) error {
	query := `
		INSERT INTO events (
			title, description, date, time, venue, address, category, price,
			total_seats, available_seats, image, organizer_id, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9, $10, $11, $12, $13, $13)
		RETURNING id
	`

	now := time.Now().UTC()
	if event.Status == "" {
		event.Status = entity.EventStatusActive
	}
	if event.Image == "" {
		event.Image = entity.DefaultEventImage
	}

	err := r.db.QueryRowxContext(ctx, query,
		event.Title,
		event.Description,
		event.Date,
		event.Time,
		event.Venue,
		event.Address,
		event.Category,
		event.Price,
		event.TotalSeats,
		event.Image,
		event.OrganizerID,
		event.Status,
		now,
	).Scan(&event.ID)
	if err != nil {
		return translateError("create event", err)
	}

	event.AvailableSeats = event.TotalSeats
	event.CreatedAt = now
	event.UpdatedAt = now
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*entity.Event, error) {
	var event entity.Event
	err := r.db.GetContext(ctx, &event, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrEventNotFound
	}
	if err != nil {
		return nil, translateError("get event", err)
	}
	return &event, nil
}

func (r *eventRepository) List(ctx context.Context, filter entity.EventFilter) ([]*entity.Event, error) {
	var (
		conds []string
		args  []interface{}
	)

	status := filter.Status
	if status == "" {
		status = entity.EventStatusActive
	}
	args = append(args, status)
	conds = append(conds, fmt.Sprintf("status = $%d", len(args)))

	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY date ASC, id ASC`

	events := make([]*entity.Event, 0)
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, translateError("list events", err)
	}
	return events, nil
}

func (r *eventRepository) Update(ctx context.Context, event *entity.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, date = $3, time = $4, venue = $5, address = $6,
			category = $7, price = $8, image = $9, status = $10,
			available_seats = available_seats + ($11 - total_seats),
			total_seats = $11,
			updated_at = $12
		WHERE id = $13 AND available_seats + ($11 - total_seats) >= 0
		RETURNING ` + eventColumns

	var updated entity.Event
	err := r.db.GetContext(ctx, &updated, query,
		event.Title,
		event.Description,
		event.Date,
		event.Time,
		event.Venue,
		event.Address,
		event.Category,
		event.Price,
		event.Image,
		event.Status,
		event.TotalSeats,
		time.Now().UTC(),
		event.ID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		// either the row is gone or the seat guard rejected the change
		if _, getErr := r.GetByID(ctx, event.ID); getErr != nil {
			return getErr
		}
		return entity.ErrSeatsBelowBooked
	}
	if err != nil {
		return translateError("update event", err)
	}

	*event = updated
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// FOR UPDATE keeps a concurrent reservation from sneaking in between
	// the count and the delete
	var locked int64
	err = tx.GetContext(ctx, &locked, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.ErrEventNotFound
	}
	if err != nil {
		return translateError("lock event", err)
	}

	var bookingCount int
	if err := tx.GetContext(ctx, &bookingCount, `SELECT COUNT(*) FROM bookings WHERE event_id = $1`, id); err != nil {
		return translateError("count event bookings", err)
	}
	if bookingCount > 0 {
		return entity.ErrEventHasBookings
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
		return translateError("delete event", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *eventRepository) UpdateAvailableSeats(ctx context.Context, id int64, expected, newCount int) error {
	query := `
		UPDATE events
		SET available_seats = $1, updated_at = $2
		WHERE id = $3 AND available_seats = $4 AND $1 BETWEEN 0 AND total_seats
	`

	result, err := r.db.ExecContext(ctx, query, newCount, time.Now().UTC(), id, expected)
	if err != nil {
		return translateError("update available seats", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if newCount < 0 || newCount > current.TotalSeats {
		return entity.NewValidationError("availableSeats", fmt.Sprintf("must be between 0 and %d", current.TotalSeats))
	}
	return entity.ErrConcurrentUpdate
}

func (r *eventRepository) CompletePast(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE events SET status = $1, updated_at = $2 WHERE status = $3 AND date < $2`,
		entity.EventStatusCompleted, now, entity.EventStatusActive,
	)
	if err != nil {
		return 0, translateError("complete past events", err)
	}
	return result.RowsAffected()
}
