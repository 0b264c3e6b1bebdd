// Package booking places an attendee's booking for an event from the
// client side.
//
// The writer only issues the insert. Seat accounting and duplicate
// detection belong to the server, which decrements seats_left inside the
// insert's transaction; the checks here are advisory and exist to avoid
// writes that are known to fail.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
	"github.com/Shivanand-hulikatti/eventix/internal/session"
)

var (
	// ErrAlreadyBooked means the attendee already holds a booking for the event.
	ErrAlreadyBooked = errors.New("you have already booked this event")
	// ErrInFlight means a booking for the same pair is still being written.
	ErrInFlight = errors.New("a booking for this event is already in progress")
	// ErrNotEligible means the signed-in user is not an attendee.
	ErrNotEligible = errors.New("only attendees can book events")
	// ErrSoldOut means the event has no seats left.
	ErrSoldOut = errors.New("not enough seats available")
)

// WriteError is any other backend failure. Message is the backend's text,
// unchanged.
type WriteError struct {
	Message string
	Err     error
}

func (e *WriteError) Error() string { return e.Message }

func (e *WriteError) Unwrap() error { return e.Err }

// Backend is the part of the data API the writer uses.
type Backend interface {
	InsertBooking(ctx context.Context, in model.BookingInsert) error
	// FindBooking returns nil, nil when no row exists.
	FindBooking(ctx context.Context, eventID, attendeeID string) (*model.Booking, error)
}

// coded is implemented by backend errors that carry a wire code.
type coded interface {
	ErrorCode() string
}

// State is the client-visible state of one (event, attendee) pair.
type State int

const (
	NotBooked State = iota
	Booking
	Booked
	SoldOut
	AlreadyBooked
	Failed
)

func (s State) String() string {
	switch s {
	case NotBooked:
		return "not_booked"
	case Booking:
		return "booking"
	case Booked:
		return "booked"
	case SoldOut:
		return "sold_out"
	case AlreadyBooked:
		return "already_booked"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further booking may be attempted.
func (s State) Terminal() bool {
	return s == Booked || s == AlreadyBooked
}

type pair struct {
	eventID    string
	attendeeID string
}

type Option func(*Writer)

func WithLogger(l logrus.FieldLogger) Option { return func(w *Writer) { w.log = l } }

// Writer places bookings and remembers each pair's outcome for the life of
// the session.
type Writer struct {
	backend Backend
	log     logrus.FieldLogger

	mu     sync.Mutex
	states map[pair]State
}

func NewWriter(backend Backend, opts ...Option) *Writer {
	w := &Writer{
		backend: backend,
		log:     logrus.StandardLogger(),
		states:  make(map[pair]State),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// State returns the recorded state of the pair.
func (w *Writer) State(eventID, attendeeID string) State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.states[pair{eventID, attendeeID}]
}

func (w *Writer) set(k pair, s State) {
	w.mu.Lock()
	w.states[k] = s
	w.mu.Unlock()
}

// CheckExisting looks for an existing booking and records AlreadyBooked
// when one is found.
func (w *Writer) CheckExisting(ctx context.Context, eventID, attendeeID string) (*model.Booking, error) {
	b, err := w.backend.FindBooking(ctx, eventID, attendeeID)
	if err != nil {
		return nil, fmt.Errorf("check existing booking: %w", err)
	}
	if b != nil {
		k := pair{eventID, attendeeID}
		w.mu.Lock()
		if !w.states[k].Terminal() {
			w.states[k] = AlreadyBooked
		}
		w.mu.Unlock()
	}
	return b, nil
}

// Book writes a confirmed booking for the signed-in attendee and returns the
// number of tickets requested after clamping to the seats left. On success
// ev.SeatsLeft is reduced locally for display; the server's value may
// differ.
func (w *Writer) Book(ctx context.Context, ev *model.Event, st session.State, requested int) (int, error) {
	if st.Identity == nil {
		return 0, ErrNotEligible
	}
	k := pair{ev.ID, st.Identity.ID}

	w.mu.Lock()
	switch w.states[k] {
	case Booked, AlreadyBooked:
		w.mu.Unlock()
		return 0, ErrAlreadyBooked
	case Booking:
		w.mu.Unlock()
		return 0, ErrInFlight
	}
	if !st.IsAttendee() {
		w.mu.Unlock()
		return 0, ErrNotEligible
	}
	if ev.SeatsLeft <= 0 {
		w.states[k] = SoldOut
		w.mu.Unlock()
		return 0, ErrSoldOut
	}
	w.states[k] = Booking
	w.mu.Unlock()

	tickets := max(requested, 1)
	tickets = min(tickets, ev.SeatsLeft)

	log := w.log.WithFields(logrus.Fields{
		"event_id":    ev.ID,
		"attendee_id": k.attendeeID,
		"tickets":     tickets,
	})

	err := w.backend.InsertBooking(ctx, model.BookingInsert{
		EventID:    ev.ID,
		AttendeeID: k.attendeeID,
		Tickets:    tickets,
		Status:     model.BookingConfirmed,
	})
	if err != nil {
		state, out := classify(err)
		w.set(k, state)
		log.WithError(err).WithField("outcome", state).Info("booking rejected")
		return 0, out
	}

	w.set(k, Booked)
	ev.SeatsLeft -= tickets
	log.Info("booking confirmed")
	return tickets, nil
}

func classify(err error) (State, error) {
	var c coded
	if errors.As(err, &c) {
		switch c.ErrorCode() {
		case model.CodeInsufficientCapacity:
			return SoldOut, ErrSoldOut
		case model.CodeUniqueViolation:
			return AlreadyBooked, ErrAlreadyBooked
		}
	}
	return Failed, &WriteError{Message: err.Error(), Err: err}
}
