package postgres

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/ticketbooker/config"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	_ "github.com/lib/pq"
)

func DSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)
}

func NewPostgresDB(ctx context.Context, cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	logrus.WithFields(logrus.Fields{
		"host": cfg.Host,
		"db":   cfg.DBName,
	}).Info("Successfully connected to PostgreSQL")
	return db, nil
}

// migrations are idempotent and applied in order on every start.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
		phone VARCHAR(50) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT users_email_key UNIQUE (email)
	)`,

	`CREATE TABLE IF NOT EXISTS events (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(100) NOT NULL,
		description VARCHAR(1000) NOT NULL,
		date TIMESTAMPTZ NOT NULL,
		time VARCHAR(20) NOT NULL,
		venue VARCHAR(200) NOT NULL,
		address VARCHAR(300) NOT NULL,
		category VARCHAR(20) NOT NULL
			CHECK (category IN ('conference', 'concert', 'sports', 'theater', 'workshop', 'other')),
		price NUMERIC(12, 2) NOT NULL CHECK (price >= 0),
		total_seats INTEGER NOT NULL CHECK (total_seats >= 1),
		available_seats INTEGER NOT NULL,
		image VARCHAR(255) NOT NULL DEFAULT 'default-event.jpg',
		organizer_id BIGINT REFERENCES users(id),
		status VARCHAR(20) NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'cancelled', 'completed')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT events_seats_check CHECK (available_seats >= 0 AND available_seats <= total_seats)
	)`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGSERIAL PRIMARY KEY,
		booking_reference VARCHAR(32) NOT NULL,
		user_id BIGINT NOT NULL REFERENCES users(id),
		event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE RESTRICT,
		number_of_tickets INTEGER NOT NULL CHECK (number_of_tickets BETWEEN 1 AND 10),
		total_amount NUMERIC(12, 2) NOT NULL CHECK (total_amount >= 0),
		booking_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		status VARCHAR(20) NOT NULL DEFAULT 'confirmed' CHECK (status IN ('pending', 'confirmed', 'cancelled')),
		payment_status VARCHAR(20) NOT NULL DEFAULT 'paid' CHECK (payment_status IN ('paid', 'pending', 'failed')),
		attendee_name VARCHAR(200) NOT NULL,
		attendee_email VARCHAR(255) NOT NULL,
		attendee_phone VARCHAR(50) NOT NULL,
		CONSTRAINT bookings_booking_reference_key UNIQUE (booking_reference)
	)`,

	// Indexes
	`CREATE INDEX IF NOT EXISTS idx_events_date_category ON events(date, category)`,
	`CREATE INDEX IF NOT EXISTS idx_events_status ON events(status)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_user_date ON bookings(user_id, booking_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_event_id ON bookings(event_id)`,
}

func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	for i, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %d: %w", i, err)
		}
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}
