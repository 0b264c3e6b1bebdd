package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
)

// BookingRepository handles persistence for bookings.
type BookingRepository struct {
	db DBTX
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

// Book inserts a booking and takes its seats from the event in a single
// transaction.
//
// The event row is locked with SELECT … FOR UPDATE before seats_left is read,
// so two concurrent bookers are serialised on that row: the second one reads
// the counter only after the first has committed or rolled back, and the last
// seats cannot be sold twice. Clients never read-then-write seats_left; they
// only issue the insert and this transaction performs the decrement.
//
// The (event_id, attendee_id) unique constraint backs up the duplicate check
// below, so a racing second insert from the same attendee fails with 23505
// and is reported as ErrAlreadyBooked. Any failure rolls back the decrement.
func (r *BookingRepository) Book(ctx context.Context, in model.BookingInsert) (b *model.Booking, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var seatsLeft int
	err = tx.QueryRow(ctx,
		`SELECT seats_left FROM events WHERE id = $1 FOR UPDATE`,
		in.EventID,
	).Scan(&seatsLeft)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE event_id = $1 AND attendee_id = $2)`,
		in.EventID, in.AttendeeID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if exists {
		return nil, ErrAlreadyBooked
	}

	// Only confirmed bookings hold seats.
	if in.Status == model.BookingConfirmed {
		if seatsLeft < in.Tickets {
			return nil, ErrNotEnoughSeats
		}
		_, err = tx.Exec(ctx,
			`UPDATE events SET seats_left = seats_left - $2 WHERE id = $1`,
			in.EventID, in.Tickets,
		)
		if err != nil {
			return nil, fmt.Errorf("decrement seats_left: %w", err)
		}
	}

	b = &model.Booking{
		ID:         uuid.New().String(),
		EventID:    in.EventID,
		AttendeeID: in.AttendeeID,
		Tickets:    in.Tickets,
		Status:     in.Status,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO bookings (id, event_id, attendee_id, tickets, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		b.ID, b.EventID, b.AttendeeID, b.Tickets, string(b.Status), b.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyBooked
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return b, nil
}

// FindOne returns the attendee's booking for an event, or nil when there is none.
// Absence is not an error.
func (r *BookingRepository) FindOne(ctx context.Context, eventID, attendeeID string) (*model.Booking, error) {
	var b model.Booking
	err := r.db.QueryRow(ctx,
		`SELECT id, event_id, attendee_id, tickets, status, created_at
		 FROM bookings WHERE event_id = $1 AND attendee_id = $2`,
		eventID, attendeeID,
	).Scan(&b.ID, &b.EventID, &b.AttendeeID, &b.Tickets, &b.Status, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return &b, nil
}

// ListByAttendee returns an attendee's bookings with their event summary,
// newest first.
func (r *BookingRepository) ListByAttendee(ctx context.Context, attendeeID string) ([]model.Booking, error) {
	rows, err := r.db.Query(ctx,
		`SELECT b.id, b.event_id, b.attendee_id, b.tickets, b.status, b.created_at,
		        e.title, e.event_date, e.location
		 FROM bookings b
		 JOIN events e ON e.id = b.event_id
		 WHERE b.attendee_id = $1
		 ORDER BY b.created_at DESC`,
		attendeeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		var (
			b  model.Booking
			ev model.EventSummary
		)
		if err := rows.Scan(&b.ID, &b.EventID, &b.AttendeeID, &b.Tickets, &b.Status, &b.CreatedAt,
			&ev.Title, &ev.EventDate, &ev.Location); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		b.Event = &ev
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// ListByEvent returns all bookings for a given event.
func (r *BookingRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Booking, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, event_id, attendee_id, tickets, status, created_at
		 FROM bookings
		 WHERE event_id = $1
		 ORDER BY created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.EventID, &b.AttendeeID, &b.Tickets, &b.Status, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
