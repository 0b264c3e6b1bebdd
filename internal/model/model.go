// Package model defines the core domain types shared by the Eventix server
// and its client.
package model

import (
	"fmt"
	"time"
)

// Role is the closed set of account roles. Anything other than the two
// declared values is rejected where a role is read from the outside.
type Role string

const (
	RoleAttendee  Role = "attend"
	RoleOrganizer Role = "organize"
)

// ParseRole converts a raw user_type value into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAttendee, RoleOrganizer:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: unknown user_type %q", ErrInvalidInput, s)
	}
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	return r == RoleAttendee || r == RoleOrganizer
}

// UserMetadata is the mutable metadata attached to an Identity at signup.
type UserMetadata struct {
	FullName string `json:"full_name"`
	UserType Role   `json:"user_type"`
}

// Identity is the authenticated account record.
type Identity struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	CreatedAt time.Time    `json:"created_at"`
	Metadata  UserMetadata `json:"user_metadata"`
}

// Profile extends an Identity with its role. One-to-one with Identity.
type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	UserType Role   `json:"user_type"`
}

// Event represents a bookable event created by an organizer.
// Invariant: 0 <= SeatsLeft <= Capacity.
type Event struct {
	ID          string    `json:"id"`
	OrganizerID string    `json:"organizer_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventDate   time.Time `json:"event_date"`
	Location    string    `json:"location"`
	Capacity    int       `json:"capacity"`
	SeatsLeft   int       `json:"seats_left"`
	Category    string    `json:"category,omitempty"`
	ImagePath   string    `json:"image_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Booked returns the number of seats taken.
func (e *Event) Booked() int {
	return e.Capacity - e.SeatsLeft
}

// SoldOut returns true when no seats remain.
func (e *Event) SoldOut() bool {
	return e.SeatsLeft <= 0
}

// BookingStatus is the lifecycle status stored on a booking row.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingPending   BookingStatus = "pending"
	BookingCancelled BookingStatus = "cancelled"
)

// EventSummary is the subset of event columns joined onto a booking listing.
type EventSummary struct {
	Title     string    `json:"title"`
	EventDate time.Time `json:"event_date"`
	Location  string    `json:"location"`
}

// Booking represents an attendee's booking for an event.
type Booking struct {
	ID         string        `json:"id"`
	EventID    string        `json:"event_id"`
	AttendeeID string        `json:"attendee_id"`
	Tickets    int           `json:"tickets"`
	Status     BookingStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	Event      *EventSummary `json:"events,omitempty"`
}

// BookingInsert is the payload of a booking write.
type BookingInsert struct {
	EventID    string        `json:"event_id"`
	AttendeeID string        `json:"attendee_id"`
	Tickets    int           `json:"tickets"`
	Status     BookingStatus `json:"status"`
}

// DashboardStats summarises an organizer's events.
type DashboardStats struct {
	TotalEvents    int `json:"total_events"`
	TotalBookings  int `json:"total_bookings"`
	SeatsAvailable int `json:"seats_available"`
}

// StatsFor computes dashboard stats from a list of events.
func StatsFor(events []Event) DashboardStats {
	st := DashboardStats{TotalEvents: len(events)}
	for i := range events {
		st.TotalBookings += events[i].Booked()
		st.SeatsAvailable += events[i].SeatsLeft
	}
	return st
}

// AuthEvent is the kind of an auth-state transition.
type AuthEvent string

const (
	AuthInitialSession AuthEvent = "INITIAL_SESSION"
	AuthSignedIn       AuthEvent = "SIGNED_IN"
	AuthSignedOut      AuthEvent = "SIGNED_OUT"
	AuthUserUpdated    AuthEvent = "USER_UPDATED"
)
