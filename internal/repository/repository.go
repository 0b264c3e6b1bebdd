// Package repository implements all database queries for Eventix.
// It uses pgx directly (no ORM) for transparency and performance.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrNotEnoughSeats is returned when an event cannot cover the requested tickets.
var ErrNotEnoughSeats = errors.New("not enough seats available")

// ErrAlreadyBooked is returned when the attendee already holds a booking for the event.
var ErrAlreadyBooked = errors.New("booking already exists for this event")

// ErrEmailTaken is returned when an account with the same email exists.
var ErrEmailTaken = errors.New("email already registered")

// ErrCapacityBelowBooked is returned when an edit would shrink capacity below
// the number of seats already booked.
var ErrCapacityBelowBooked = errors.New("capacity cannot be lower than the number of booked seats")

const uniqueViolation = "23505"

// DBTX is the subset of *pgxpool.Pool the repositories need.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type scanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
