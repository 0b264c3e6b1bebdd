// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer. Every operation that acts
// on behalf of a caller takes a policy.Principal and runs the matching
// policy check before touching storage.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
	"github.com/Shivanand-hulikatti/eventix/internal/notify"
	"github.com/Shivanand-hulikatti/eventix/internal/token"
)

// ErrInvalidCredentials is returned by SignIn for an unknown email or a wrong
// password; the two cases are not distinguished.
var ErrInvalidCredentials = errors.New("invalid login credentials")

// AccountStore persists identities.
type AccountStore interface {
	Create(ctx context.Context, email, passwordHash string, meta model.UserMetadata) (*model.Identity, error)
	FindByEmail(ctx context.Context, email string) (*model.Identity, string, error)
	GetByID(ctx context.Context, id string) (*model.Identity, error)
	UpdateFullName(ctx context.Context, id, fullName string) error
}

// ProfileStore persists profiles.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	UpdateFullName(ctx context.Context, id, fullName string) error
}

// EventStore persists events.
type EventStore interface {
	Create(ctx context.Context, organizerID string, in model.EventInput) (*model.Event, error)
	List(ctx context.Context, category string) ([]model.Event, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Update(ctx context.Context, id string, in model.EventInput) (*model.Event, error)
	Delete(ctx context.Context, id string) error
}

// BookingStore persists bookings.
type BookingStore interface {
	Book(ctx context.Context, in model.BookingInsert) (*model.Booking, error)
	FindOne(ctx context.Context, eventID, attendeeID string) (*model.Booking, error)
	ListByAttendee(ctx context.Context, attendeeID string) ([]model.Booking, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Booking, error)
}

// ImageStore is the part of the object store the services need.
type ImageStore interface {
	Remove(path string) error
}

// Tokens issues and revokes access tokens.
type Tokens interface {
	Issue(ident model.Identity, role model.Role) (string, time.Time, error)
	Revoke(ctx context.Context, claims *token.Claims) error
}

// BookingMetrics counts booking outcomes.
type BookingMetrics interface {
	BookingAttempt(outcome string)
}

const publishTimeout = 5 * time.Second

// publish sends n without letting a slow broker hold up the caller's request
// past publishTimeout.
func publish(ctx context.Context, p notify.Publisher, n notify.Notification) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	return p.Publish(ctx, n)
}
