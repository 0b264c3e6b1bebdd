// Package policy is the row-level access policy of the backend. Every write
// and every owner-scoped read goes through one of these checks; client-side
// route guards are a convenience on top of it, never a replacement.
package policy

import (
	"errors"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
)

// ErrPolicy is returned when the principal may not perform the operation.
var ErrPolicy = errors.New("new row violates row-level security policy")

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Role   model.Role
}

func (p Principal) authenticated() bool {
	return p.UserID != ""
}

// CanReadProfile: profiles are readable by their owner only.
func CanReadProfile(p Principal, profileID string) error {
	if !p.authenticated() || p.UserID != profileID {
		return ErrPolicy
	}
	return nil
}

// CanWriteProfile: profiles are writable by their owner only.
func CanWriteProfile(p Principal, profileID string) error {
	return CanReadProfile(p, profileID)
}

// CanCreateEvent requires the organizer role.
func CanCreateEvent(p Principal) error {
	if !p.authenticated() || p.Role != model.RoleOrganizer {
		return ErrPolicy
	}
	return nil
}

// CanModifyEvent covers edit, delete, and reading an event's bookings.
func CanModifyEvent(p Principal, ev *model.Event) error {
	if err := CanCreateEvent(p); err != nil {
		return err
	}
	if ev == nil || ev.OrganizerID != p.UserID {
		return ErrPolicy
	}
	return nil
}

// CanInsertBooking requires the attendee role and that the row is the
// caller's own.
func CanInsertBooking(p Principal, in model.BookingInsert) error {
	if !p.authenticated() || p.Role != model.RoleAttendee {
		return ErrPolicy
	}
	if in.AttendeeID != p.UserID {
		return ErrPolicy
	}
	return nil
}

// CanReadBooking: the attendee who holds it, or the organizer of its event.
func CanReadBooking(p Principal, b *model.Booking, ev *model.Event) error {
	if !p.authenticated() || b == nil {
		return ErrPolicy
	}
	if b.AttendeeID == p.UserID {
		return nil
	}
	if ev != nil && ev.ID == b.EventID && ev.OrganizerID == p.UserID {
		return nil
	}
	return ErrPolicy
}

// CanUpload: organizers may write objects under their own user prefix.
func CanUpload(p Principal, objectPath string) error {
	if err := CanCreateEvent(p); err != nil {
		return err
	}
	prefix := p.UserID + "/"
	if len(objectPath) <= len(prefix) || objectPath[:len(prefix)] != prefix {
		return ErrPolicy
	}
	return nil
}
