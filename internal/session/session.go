// Package session holds the client's view of who is signed in: the
// identity from the auth source and the profile (and so the role) fetched
// for it.
//
// Auth-state callbacks arrive while the auth source holds its own lock, so
// the store never calls the backend from inside one. The profile fetch is
// handed to a scheduler and its result is applied only if no newer
// transition happened in the meantime.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
)

const (
	DefaultSafetyTimeout = 10 * time.Second
	DefaultFetchTimeout  = 10 * time.Second
)

// AuthSource is the authentication backend.
type AuthSource interface {
	OnAuthStateChange(fn func(event model.AuthEvent, ident *model.Identity)) (unsubscribe func())
	SignIn(ctx context.Context, email, password string) (*model.Identity, error)
	SignUp(ctx context.Context, req model.SignUpRequest) (*model.Identity, error)
	SignOut(ctx context.Context) error
	UpdateUser(ctx context.Context, fullName string) (*model.Identity, error)
}

// ProfileSource reads and writes profile rows.
type ProfileSource interface {
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, id, fullName string) (*model.Profile, error)
}

// State is a snapshot of the session.
type State struct {
	Identity  *model.Identity
	Profile   *model.Profile
	Resolving bool
}

// IsOrganizer is false while the profile is unknown.
func (s State) IsOrganizer() bool {
	return s.Profile != nil && s.Profile.UserType == model.RoleOrganizer
}

// IsAttendee is false while the profile is unknown.
func (s State) IsAttendee() bool {
	return s.Profile != nil && s.Profile.UserType == model.RoleAttendee
}

func (s State) clone() State {
	out := State{Resolving: s.Resolving}
	if s.Identity != nil {
		id := *s.Identity
		out.Identity = &id
	}
	if s.Profile != nil {
		p := *s.Profile
		out.Profile = &p
	}
	return out
}

// Option configures a Store.
type Option func(*Store)

// WithSafetyTimeout bounds how long the store may stay resolving.
func WithSafetyTimeout(d time.Duration) Option { return func(s *Store) { s.safetyTimeout = d } }

// WithFetchTimeout bounds a single profile fetch.
func WithFetchTimeout(d time.Duration) Option { return func(s *Store) { s.fetchTimeout = d } }

func WithLogger(l logrus.FieldLogger) Option { return func(s *Store) { s.log = l } }

// WithScheduler replaces the default of running deferred work on a new
// goroutine.
func WithScheduler(fn func(func())) Option { return func(s *Store) { s.schedule = fn } }

// Store is the session store. Create it with New and call Initialize once
// at startup and Close at shutdown.
type Store struct {
	auth          AuthSource
	profiles      ProfileSource
	safetyTimeout time.Duration
	fetchTimeout  time.Duration
	log           logrus.FieldLogger
	schedule      func(func())

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	gen         uint64 // bumped on every transition; stale fetches compare against it
	ready       bool
	closed      bool
	unsubscribe func()
	timer       *time.Timer
	listeners   map[int]func(State)
	nextID      int
	changed     chan struct{}
	pending     *State // newest snapshot not yet handed to listeners
	delivering  bool
}

// New returns a store in the resolving state.
func New(auth AuthSource, profiles ProfileSource, opts ...Option) *Store {
	s := &Store{
		auth:          auth,
		profiles:      profiles,
		safetyTimeout: DefaultSafetyTimeout,
		fetchTimeout:  DefaultFetchTimeout,
		log:           logrus.StandardLogger(),
		schedule:      func(f func()) { go f() },
		state:         State{Resolving: true},
		listeners:     make(map[int]func(State)),
		changed:       make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Initialize subscribes to the auth source and arms the safety timer.
// Later calls do nothing.
func (s *Store) Initialize() {
	s.mu.Lock()
	if s.ready || s.closed {
		s.mu.Unlock()
		return
	}
	s.ready = true
	s.timer = time.AfterFunc(s.safetyTimeout, s.onSafetyTimeout)
	s.mu.Unlock()

	unsubscribe := s.auth.OnAuthStateChange(s.onAuthEvent)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		unsubscribe()
		return
	}
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
}

// onAuthEvent runs inside the auth source's callback.
func (s *Store) onAuthEvent(event model.AuthEvent, ident *model.Identity) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.gen++
	log := s.log.WithField("auth_event", event)

	if ident == nil {
		s.state = State{}
		log.Debug("signed out")
		s.commitLocked()
		return
	}

	if s.state.Identity == nil || s.state.Identity.ID != ident.ID {
		s.state.Profile = nil
	}
	id := *ident
	s.state.Identity = &id
	s.state.Resolving = true
	gen := s.gen
	log.WithField("user_id", id.ID).Debug("identity changed, resolving profile")
	s.commitLocked()

	s.schedule(func() { s.resolveProfile(gen, id.ID) })
}

func (s *Store) resolveProfile(gen uint64, userID string) {
	ctx, cancel := context.WithTimeout(s.ctx, s.fetchTimeout)
	defer cancel()
	profile, err := s.profiles.GetProfile(ctx, userID)

	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		s.log.WithField("user_id", userID).Debug("discarding stale profile result")
		return
	}
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("failed to load profile")
		s.state.Profile = nil
	} else {
		s.state.Profile = profile
	}
	s.state.Resolving = false
	s.commitLocked()
}

func (s *Store) onSafetyTimeout() {
	s.mu.Lock()
	if s.closed || !s.state.Resolving {
		s.mu.Unlock()
		return
	}
	s.log.WithField("timeout", s.safetyTimeout).Warn("session still resolving, giving up waiting")
	s.state.Resolving = false
	s.commitLocked()
}

// commitLocked wakes waiters and notifies subscribers, then releases s.mu.
// Only one goroutine delivers at a time. A commit that lands while another
// is delivering replaces the pending snapshot and returns, so listeners
// always finish on the newest state.
func (s *Store) commitLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
	snapshot := s.state.clone()
	s.pending = &snapshot
	if s.delivering {
		s.mu.Unlock()
		return
	}
	s.delivering = true
	for s.pending != nil {
		next := *s.pending
		s.pending = nil
		listeners := make([]func(State), 0, len(s.listeners))
		for _, fn := range s.listeners {
			listeners = append(listeners, fn)
		}
		s.mu.Unlock()

		for _, fn := range listeners {
			fn(next)
		}
		s.mu.Lock()
	}
	s.delivering = false
	s.mu.Unlock()
}

// Close unsubscribes, stops the timer and cancels in-flight fetches. Any
// callback or fetch result arriving afterwards is ignored. Close must not
// be called from inside a subscriber.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
	}
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	s.cancel()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe calls fn after every change. fn may run inside an auth
// callback, so it must not block or call the auth source. The returned
// function cancels the subscription.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// WaitResolved blocks until the store is not resolving.
func (s *Store) WaitResolved(ctx context.Context) (State, error) {
	for {
		s.mu.Lock()
		if !s.state.Resolving {
			st := s.state.clone()
			s.mu.Unlock()
			return st, nil
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		case <-ch:
		}
	}
}

// SignIn passes through to the auth source; the resulting auth event
// updates the store.
func (s *Store) SignIn(ctx context.Context, email, password string) (*model.Identity, error) {
	return s.auth.SignIn(ctx, model.NormalizeEmail(email), password)
}

// SignUp passes through to the auth source.
func (s *Store) SignUp(ctx context.Context, req model.SignUpRequest) (*model.Identity, error) {
	req.Email = model.NormalizeEmail(req.Email)
	return s.auth.SignUp(ctx, req)
}

// SignOut ends the session. A backend failure is logged; the local state
// is cleared either way.
func (s *Store) SignOut(ctx context.Context) {
	if err := s.auth.SignOut(ctx); err != nil {
		s.log.WithError(err).Warn("sign-out failed on the server, clearing local session anyway")
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.gen++
	s.state = State{}
	s.commitLocked()
}

// UpdateName sets the display name on both the profile row and the
// identity metadata.
func (s *Store) UpdateName(ctx context.Context, fullName string) error {
	name := strings.TrimSpace(fullName)
	if name == "" {
		return fmt.Errorf("%w: full name cannot be empty", model.ErrInvalidInput)
	}
	st := s.Snapshot()
	if st.Identity == nil {
		return fmt.Errorf("%w: not signed in", model.ErrInvalidInput)
	}
	if _, err := s.profiles.UpdateProfile(ctx, st.Identity.ID, name); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if _, err := s.auth.UpdateUser(ctx, name); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}
