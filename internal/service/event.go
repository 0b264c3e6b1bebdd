package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
	"github.com/Shivanand-hulikatti/eventix/internal/notify"
	"github.com/Shivanand-hulikatti/eventix/internal/policy"
)

// EventService orchestrates event-related business operations.
type EventService struct {
	events    EventStore
	bookings  BookingStore
	images    ImageStore
	publisher notify.Publisher
	log       logrus.FieldLogger
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(
	events EventStore,
	bookings BookingStore,
	images ImageStore,
	publisher notify.Publisher,
	log logrus.FieldLogger,
) *EventService {
	return &EventService{events: events, bookings: bookings, images: images, publisher: publisher, log: log}
}

func checkImagePath(p policy.Principal, in model.EventInput) error {
	if in.ImagePath == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*in.ImagePath)
	if trimmed == "" {
		return fmt.Errorf("%w: image_path cannot be empty", model.ErrInvalidInput)
	}
	return policy.CanUpload(p, trimmed)
}

// Create validates the input and inserts the event owned by the caller.
func (s *EventService) Create(ctx context.Context, p policy.Principal, in model.EventInput) (*model.Event, error) {
	if err := policy.CanCreateEvent(p); err != nil {
		return nil, err
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := checkImagePath(p, in); err != nil {
		return nil, err
	}
	ev, err := s.events.Create(ctx, p.UserID, in)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.log.WithFields(logrus.Fields{"event_id": ev.ID, "organizer_id": p.UserID}).Info("event created")
	return ev, nil
}

// Update edits an event the caller owns. When a new image replaces an old
// one the old object is removed.
func (s *EventService) Update(ctx context.Context, p policy.Principal, id string, in model.EventInput) (*model.Event, error) {
	current, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanModifyEvent(p, current); err != nil {
		return nil, err
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := checkImagePath(p, in); err != nil {
		return nil, err
	}

	updated, err := s.events.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	if in.ImagePath != nil && current.ImagePath != "" && current.ImagePath != updated.ImagePath {
		s.removeImage(current.ImagePath)
	}
	return updated, nil
}

// Delete removes an event the caller owns, its bookings and its image.
func (s *EventService) Delete(ctx context.Context, p policy.Principal, id string) error {
	ev, err := s.events.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.CanModifyEvent(p, ev); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	if ev.ImagePath != "" {
		s.removeImage(ev.ImagePath)
	}

	n := notify.Notification{Kind: notify.KindEventDeleted, EventID: id, At: time.Now().UTC()}
	if err := publish(ctx, s.publisher, n); err != nil {
		s.log.WithError(err).WithField("event_id", id).Warn("event deleted notification not sent")
	}
	s.log.WithFields(logrus.Fields{"event_id": id, "organizer_id": p.UserID}).Info("event deleted")
	return nil
}

func (s *EventService) removeImage(path string) {
	if err := s.images.Remove(path); err != nil {
		s.log.WithError(err).WithField("image_path", path).Warn("failed to remove event image")
	}
}

// Get returns a single event. Events are public.
func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: event id is required", model.ErrInvalidInput)
	}
	return s.events.GetByID(ctx, id)
}

// List returns all events ordered by date, optionally filtered by category.
func (s *EventService) List(ctx context.Context, category string) ([]model.Event, error) {
	return s.events.List(ctx, strings.TrimSpace(category))
}

// ListMine returns the caller's own events.
func (s *EventService) ListMine(ctx context.Context, p policy.Principal) ([]model.Event, error) {
	if err := policy.CanCreateEvent(p); err != nil {
		return nil, err
	}
	return s.events.ListByOrganizer(ctx, p.UserID)
}

// Stats summarises the caller's events for the dashboard.
func (s *EventService) Stats(ctx context.Context, p policy.Principal) (model.DashboardStats, error) {
	events, err := s.ListMine(ctx, p)
	if err != nil {
		return model.DashboardStats{}, err
	}
	return model.StatsFor(events), nil
}

// Bookings lists the bookings of an event the caller owns.
func (s *EventService) Bookings(ctx context.Context, p policy.Principal, id string) ([]model.Booking, error) {
	ev, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanModifyEvent(p, ev); err != nil {
		return nil, err
	}
	return s.bookings.ListByEvent(ctx, id)
}
