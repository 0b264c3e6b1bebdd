package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventix/internal/metrics"
	"github.com/Shivanand-hulikatti/eventix/internal/model"
	"github.com/Shivanand-hulikatti/eventix/internal/notify"
	"github.com/Shivanand-hulikatti/eventix/internal/policy"
	"github.com/Shivanand-hulikatti/eventix/internal/repository"
)

// BookingService validates booking writes and delegates the seat accounting
// to the repository transaction.
type BookingService struct {
	bookings  BookingStore
	events    EventStore
	publisher notify.Publisher
	metrics   BookingMetrics
	log       logrus.FieldLogger
}

func NewBookingService(
	bookings BookingStore,
	events EventStore,
	publisher notify.Publisher,
	m BookingMetrics,
	log logrus.FieldLogger,
) *BookingService {
	return &BookingService{bookings: bookings, events: events, publisher: publisher, metrics: m, log: log}
}

// Create inserts a booking for the caller. Seats are taken atomically with
// the insert; the caller never writes seats_left.
func (s *BookingService) Create(ctx context.Context, p policy.Principal, in model.BookingInsert) (*model.Booking, error) {
	b, err := s.create(ctx, p, in)
	s.metrics.BookingAttempt(outcomeOf(err))
	return b, err
}

func (s *BookingService) create(ctx context.Context, p policy.Principal, in model.BookingInsert) (*model.Booking, error) {
	if in.Status != model.BookingConfirmed && in.Status != model.BookingPending {
		return nil, fmt.Errorf("%w: status must be %q or %q", model.ErrInvalidInput, model.BookingConfirmed, model.BookingPending)
	}
	if in.Tickets < 1 {
		return nil, fmt.Errorf("%w: tickets must be at least 1", model.ErrInvalidInput)
	}
	if in.EventID == "" {
		return nil, fmt.Errorf("%w: event_id is required", model.ErrInvalidInput)
	}
	if err := policy.CanInsertBooking(p, in); err != nil {
		return nil, err
	}

	b, err := s.bookings.Book(ctx, in)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) ||
			errors.Is(err, repository.ErrNotEnoughSeats) ||
			errors.Is(err, repository.ErrAlreadyBooked) {
			return nil, err
		}
		return nil, fmt.Errorf("book event: %w", err)
	}

	log := s.log.WithFields(logrus.Fields{"booking_id": b.ID, "event_id": b.EventID, "tickets": b.Tickets})
	log.Info("booking created")
	if b.Status == model.BookingConfirmed {
		n := notify.Notification{
			Kind:       notify.KindBookingConfirmed,
			EventID:    b.EventID,
			AttendeeID: b.AttendeeID,
			Tickets:    b.Tickets,
			At:         time.Now().UTC(),
		}
		if err := publish(ctx, s.publisher, n); err != nil {
			log.WithError(err).Warn("booking notification not sent")
		}
	}
	return b, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeConfirmed
	case errors.Is(err, repository.ErrNotEnoughSeats):
		return metrics.OutcomeSoldOut
	case errors.Is(err, repository.ErrAlreadyBooked):
		return metrics.OutcomeAlreadyBooked
	case errors.Is(err, policy.ErrPolicy):
		return metrics.OutcomeDenied
	case errors.Is(err, model.ErrInvalidInput):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

// FindOne returns the booking for (eventID, attendeeID) if the caller may
// see it. Rows the caller may not read are reported as absent.
func (s *BookingService) FindOne(ctx context.Context, p policy.Principal, eventID, attendeeID string) (*model.Booking, error) {
	b, err := s.bookings.FindOne(ctx, eventID, attendeeID)
	if err != nil || b == nil {
		return nil, err
	}
	var ev *model.Event
	if b.AttendeeID != p.UserID {
		ev, err = s.events.GetByID(ctx, eventID)
		if err != nil {
			return nil, err
		}
	}
	if policy.CanReadBooking(p, b, ev) != nil {
		return nil, nil
	}
	return b, nil
}

// ListMine returns the caller's bookings, newest first.
func (s *BookingService) ListMine(ctx context.Context, p policy.Principal) ([]model.Booking, error) {
	if p.UserID == "" {
		return nil, policy.ErrPolicy
	}
	return s.bookings.ListByAttendee(ctx, p.UserID)
}
