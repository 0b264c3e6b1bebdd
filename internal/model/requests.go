package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidInput marks user-correctable validation failures.
var ErrInvalidInput = errors.New("invalid input")

// Wire error codes carried in ErrorResponse.Code. Clients classify failures
// by code, never by matching message text.
const (
	CodeInsufficientCapacity = "insufficient_capacity"
	CodeUniqueViolation      = "23505"
	CodePolicyViolation      = "42501"
	CodeNotFound             = "not_found"
	CodeInvalidInput         = "invalid_input"
	CodeUnauthorized         = "unauthorized"
	CodeRateLimited          = "rate_limited"
	CodeInternal             = "internal"
)

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 6

// MaxCapacity caps the capacity of a single event.
const MaxCapacity = 100_000

// SignUpRequest is the payload for creating an account.
type SignUpRequest struct {
	Email    string       `json:"email"`
	Password string       `json:"password"`
	Data     UserMetadata `json:"data"`
}

// SignInRequest is the payload for password sign-in.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned on successful sign-in.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        Identity  `json:"user"`
}

// UpdateUserData is the metadata patch of an UpdateUserRequest.
type UpdateUserData struct {
	FullName string `json:"full_name"`
}

// UpdateUserRequest updates identity metadata.
type UpdateUserRequest struct {
	Data UpdateUserData `json:"data"`
}

// UpdateProfileRequest updates the profile row.
type UpdateProfileRequest struct {
	FullName string `json:"full_name"`
}

// EventInput is the payload for creating or editing an event.
// ImagePath is optional on edit: nil leaves the stored path untouched.
type EventInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventDate   time.Time `json:"event_date"`
	Location    string    `json:"location"`
	Capacity    int       `json:"capacity"`
	Category    string    `json:"category,omitempty"`
	ImagePath   *string   `json:"image_path,omitempty"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Normalize trims free-text fields in place.
func (in *EventInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.Category = strings.TrimSpace(in.Category)
}

// Validate checks the fields every event must carry.
func (in EventInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	if in.EventDate.IsZero() {
		return fmt.Errorf("%w: event_date is required", ErrInvalidInput)
	}
	if in.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be a positive integer", ErrInvalidInput)
	}
	if in.Capacity > MaxCapacity {
		return fmt.Errorf("%w: capacity cannot exceed 100,000", ErrInvalidInput)
	}
	return nil
}

// ValidateCredentials does a basic structural check of an email/password pair.
func ValidateCredentials(email, password string) error {
	if !IsValidEmail(email) {
		return fmt.Errorf("%w: email is not a valid email address", ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	return nil
}

// ValidateSignUp checks the signup form before anything is sent.
func ValidateSignUp(email, password, confirm string, userType Role) error {
	if password != confirm {
		return fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	}
	if err := ValidateCredentials(email, password); err != nil {
		return err
	}
	if !userType.Valid() {
		return fmt.Errorf("%w: user_type must be %q or %q", ErrInvalidInput, RoleAttendee, RoleOrganizer)
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// IsValidEmail does a basic structural check (no external deps).
func IsValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}

// UploadResponse is returned after an object is stored.
type UploadResponse struct {
	Key       string `json:"key"`
	Path      string `json:"path"`
	PublicURL string `json:"public_url"`
}
