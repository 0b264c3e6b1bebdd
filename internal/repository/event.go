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

const eventColumns = `id, organizer_id, title, description, event_date, location,
	capacity, seats_left, category, image_path, created_at`

// EventRepository handles persistence for events.
type EventRepository struct {
	db DBTX
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db DBTX) *EventRepository {
	return &EventRepository{db: db}
}

func scanEvent(row scanner) (*model.Event, error) {
	var (
		e                   model.Event
		category, imagePath *string
	)
	err := row.Scan(&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.EventDate, &e.Location,
		&e.Capacity, &e.SeatsLeft, &category, &imagePath, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Category = deref(category)
	e.ImagePath = deref(imagePath)
	return &e, nil
}

// Create inserts a new event with every seat available.
func (r *EventRepository) Create(ctx context.Context, organizerID string, in model.EventInput) (*model.Event, error) {
	event := &model.Event{
		ID:          uuid.New().String(),
		OrganizerID: organizerID,
		Title:       in.Title,
		Description: in.Description,
		EventDate:   in.EventDate.UTC(),
		Location:    in.Location,
		Capacity:    in.Capacity,
		SeatsLeft:   in.Capacity,
		Category:    in.Category,
		CreatedAt:   time.Now().UTC(),
	}
	if in.ImagePath != nil {
		event.ImagePath = *in.ImagePath
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		event.ID, event.OrganizerID, event.Title, event.Description, event.EventDate, event.Location,
		event.Capacity, event.SeatsLeft, nullable(event.Category), nullable(event.ImagePath), event.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) list(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// List returns events ordered by date, optionally filtered by category.
func (r *EventRepository) List(ctx context.Context, category string) ([]model.Event, error) {
	if category == "" {
		return r.list(ctx, `SELECT `+eventColumns+` FROM events ORDER BY event_date ASC`)
	}
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events WHERE category = $1 ORDER BY event_date ASC`,
		category,
	)
}

// ListByOrganizer returns an organizer's events ordered by date.
func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error) {
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events WHERE organizer_id = $1 ORDER BY event_date ASC`,
		organizerID,
	)
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// Update rewrites an event's editable fields. A capacity change moves
// seats_left by the same delta; the row lock keeps concurrent bookings from
// slipping in between the check and the write. A nil ImagePath keeps the
// stored image.
func (r *EventRepository) Update(ctx context.Context, id string, in model.EventInput) (event *model.Event, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var capacity, seatsLeft int
	err = tx.QueryRow(ctx,
		`SELECT capacity, seats_left FROM events WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&capacity, &seatsLeft)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}
	if booked := capacity - seatsLeft; in.Capacity < booked {
		return nil, ErrCapacityBelowBooked
	}

	event, err = scanEvent(tx.QueryRow(ctx,
		`UPDATE events
		 SET title = $2, description = $3, event_date = $4, location = $5, category = $6,
		     seats_left = seats_left + ($7 - capacity), capacity = $7,
		     image_path = COALESCE($8, image_path)
		 WHERE id = $1
		 RETURNING `+eventColumns,
		id, in.Title, in.Description, in.EventDate.UTC(), in.Location, nullable(in.Category),
		in.Capacity, in.ImagePath,
	))
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return event, nil
}

// Delete removes an event; its bookings go with it.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
