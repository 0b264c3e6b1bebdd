// Package database provides PostgreSQL connection management using pgx.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventix/internal/config"
)

// NewPool creates and validates a pgxpool connection pool.
// It retries a few times to accommodate containers starting up.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, log logrus.FieldLogger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime

	attempts := cfg.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= attempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		log.WithFields(logrus.Fields{
			"attempt":  attempt,
			"attempts": attempts,
		}).WithError(err).Warn("db connect failed, retrying in 2s")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return nil, fmt.Errorf("connect to postgres: %w", err)
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var schema = []string{
	`DO $$ BEGIN
		CREATE TYPE user_type AS ENUM ('attend', 'organize');
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$`,

	`DO $$ BEGIN
		CREATE TYPE booking_status AS ENUM ('confirmed', 'pending', 'cancelled');
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$`,

	`CREATE TABLE IF NOT EXISTS identities (
		id            UUID PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		metadata      JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS profiles (
		id        UUID PRIMARY KEY REFERENCES identities(id) ON DELETE CASCADE,
		full_name TEXT NOT NULL DEFAULT '',
		user_type user_type NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS events (
		id           UUID PRIMARY KEY,
		organizer_id UUID NOT NULL REFERENCES identities(id) ON DELETE CASCADE,
		title        TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		event_date   TIMESTAMPTZ NOT NULL,
		location     TEXT NOT NULL,
		capacity     INTEGER NOT NULL CHECK (capacity > 0),
		seats_left   INTEGER NOT NULL,
		category     TEXT,
		image_path   TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT seats_left_in_range CHECK (seats_left >= 0 AND seats_left <= capacity)
	)`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id          UUID PRIMARY KEY,
		event_id    UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		attendee_id UUID NOT NULL REFERENCES identities(id) ON DELETE CASCADE,
		tickets     INTEGER NOT NULL CHECK (tickets > 0),
		status      booking_status NOT NULL DEFAULT 'confirmed',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT bookings_event_attendee_key UNIQUE (event_id, attendee_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_events_organizer ON events(organizer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_date ON events(event_date)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_attendee ON bookings(attendee_id, created_at DESC)`,
}
