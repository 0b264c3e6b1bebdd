package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
	"github.com/Shivanand-hulikatti/eventix/internal/notify"
	"github.com/Shivanand-hulikatti/eventix/internal/repository"
	"github.com/Shivanand-hulikatti/eventix/internal/token"
)

type account struct {
	ident model.Identity
	hash  string
}

// memStore is an in-memory stand-in for the pgx repositories.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*account
	profiles map[string]*model.Profile
	events   map[string]*model.Event
	bookings []model.Booking
	bookErr  error
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]*account{},
		profiles: map[string]*model.Profile{},
		events:   map[string]*model.Event{},
	}
}

type accountStore struct{ *memStore }

func (s accountStore) Create(_ context.Context, email, hash string, meta model.UserMetadata) (*model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.ident.Email == email {
			return nil, repository.ErrEmailTaken
		}
	}
	ident := model.Identity{ID: uuid.NewString(), Email: email, CreatedAt: time.Now(), Metadata: meta}
	s.accounts[ident.ID] = &account{ident: ident, hash: hash}
	s.profiles[ident.ID] = &model.Profile{ID: ident.ID, FullName: meta.FullName, UserType: meta.UserType}
	return &ident, nil
}

func (s accountStore) FindByEmail(_ context.Context, email string) (*model.Identity, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.ident.Email == email {
			ident := a.ident
			return &ident, a.hash, nil
		}
	}
	return nil, "", repository.ErrNotFound
}

func (s accountStore) GetByID(_ context.Context, id string) (*model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	ident := a.ident
	return &ident, nil
}

func (s accountStore) UpdateFullName(_ context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.ident.Metadata.FullName = name
	return nil
}

type profileStore struct{ *memStore }

func (s profileStore) GetByID(_ context.Context, id string) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s profileStore) UpdateFullName(_ context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.FullName = name
	return nil
}

type eventStore struct{ *memStore }

func (s eventStore) Create(_ context.Context, organizerID string, in model.EventInput) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := &model.Event{
		ID: uuid.NewString(), OrganizerID: organizerID, Title: in.Title, Location: in.Location,
		EventDate: in.EventDate, Capacity: in.Capacity, SeatsLeft: in.Capacity, Category: in.Category,
	}
	if in.ImagePath != nil {
		ev.ImagePath = *in.ImagePath
	}
	s.events[ev.ID] = ev
	cp := *ev
	return &cp, nil
}

func (s eventStore) List(_ context.Context, category string) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Event
	for _, ev := range s.events {
		if category == "" || ev.Category == category {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func (s eventStore) ListByOrganizer(_ context.Context, organizerID string) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Event
	for _, ev := range s.events {
		if ev.OrganizerID == organizerID {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func (s eventStore) GetByID(_ context.Context, id string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ev
	return &cp, nil
}

func (s eventStore) Update(_ context.Context, id string, in model.EventInput) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if in.Capacity < ev.Booked() {
		return nil, repository.ErrCapacityBelowBooked
	}
	ev.SeatsLeft += in.Capacity - ev.Capacity
	ev.Capacity = in.Capacity
	ev.Title = in.Title
	if in.ImagePath != nil {
		ev.ImagePath = *in.ImagePath
	}
	cp := *ev
	return &cp, nil
}

func (s eventStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

type bookingStore struct{ *memStore }

func (s bookingStore) Book(_ context.Context, in model.BookingInsert) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bookErr != nil {
		return nil, s.bookErr
	}
	ev, ok := s.events[in.EventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for _, b := range s.bookings {
		if b.EventID == in.EventID && b.AttendeeID == in.AttendeeID {
			return nil, repository.ErrAlreadyBooked
		}
	}
	if in.Status == model.BookingConfirmed {
		if ev.SeatsLeft < in.Tickets {
			return nil, repository.ErrNotEnoughSeats
		}
		ev.SeatsLeft -= in.Tickets
	}
	b := model.Booking{ID: uuid.NewString(), EventID: in.EventID, AttendeeID: in.AttendeeID,
		Tickets: in.Tickets, Status: in.Status, CreatedAt: time.Now()}
	s.bookings = append(s.bookings, b)
	return &b, nil
}

func (s bookingStore) FindOne(_ context.Context, eventID, attendeeID string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.EventID == eventID && b.AttendeeID == attendeeID {
			cp := b
			return &cp, nil
		}
	}
	return nil, nil
}

func (s bookingStore) ListByAttendee(_ context.Context, attendeeID string) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if b.AttendeeID == attendeeID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s bookingStore) ListByEvent(_ context.Context, eventID string) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if b.EventID == eventID {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeImages struct {
	mu      sync.Mutex
	removed []string
}

func (f *fakeImages) Remove(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, path)
	return nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, n notify.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type countingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (m *countingMetrics) BookingAttempt(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = map[string]int{}
	}
	m.outcomes[outcome]++
}

type fakeTokens struct {
	revoked []string
}

func (f *fakeTokens) Issue(ident model.Identity, role model.Role) (string, time.Time, error) {
	return "token-" + ident.ID + "-" + string(role), time.Now().Add(time.Hour), nil
}

func (f *fakeTokens) Revoke(_ context.Context, c *token.Claims) error {
	f.revoked = append(f.revoked, c.ID)
	return nil
}
