// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
	"github.com/Shivanand-hulikatti/eventix/internal/policy"
	"github.com/Shivanand-hulikatti/eventix/internal/repository"
	"github.com/Shivanand-hulikatti/eventix/internal/service"
	"github.com/Shivanand-hulikatti/eventix/internal/storage"
	"github.com/Shivanand-hulikatti/eventix/internal/token"
)

// AuthService is the auth surface the handlers call.
type AuthService interface {
	SignUp(ctx context.Context, req model.SignUpRequest) (*model.Identity, error)
	SignIn(ctx context.Context, req model.SignInRequest) (*model.TokenResponse, error)
	SignOut(ctx context.Context, claims *token.Claims) error
	CurrentUser(ctx context.Context, userID string) (*model.Identity, error)
	UpdateUser(ctx context.Context, userID string, req model.UpdateUserRequest) (*model.Identity, error)
}

// ProfileService is the profile surface the handlers call.
type ProfileService interface {
	Get(ctx context.Context, p policy.Principal, id string) (*model.Profile, error)
	UpdateFullName(ctx context.Context, p policy.Principal, id string, req model.UpdateProfileRequest) (*model.Profile, error)
}

// EventService is the event surface the handlers call.
type EventService interface {
	Create(ctx context.Context, p policy.Principal, in model.EventInput) (*model.Event, error)
	Update(ctx context.Context, p policy.Principal, id string, in model.EventInput) (*model.Event, error)
	Delete(ctx context.Context, p policy.Principal, id string) error
	Get(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, category string) ([]model.Event, error)
	ListMine(ctx context.Context, p policy.Principal) ([]model.Event, error)
	Stats(ctx context.Context, p policy.Principal) (model.DashboardStats, error)
	Bookings(ctx context.Context, p policy.Principal, id string) ([]model.Booking, error)
}

// BookingService is the booking surface the handlers call.
type BookingService interface {
	Create(ctx context.Context, p policy.Principal, in model.BookingInsert) (*model.Booking, error)
	FindOne(ctx context.Context, p policy.Principal, eventID, attendeeID string) (*model.Booking, error)
	ListMine(ctx context.Context, p policy.Principal) ([]model.Booking, error)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg, Code: code})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeBadBody(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), model.CodeInvalidInput)
}

// checkIDs reports the first value that is not a UUID. Row ids are UUID
// columns, so anything else would only fail inside Postgres.
func checkIDs(fields ...string) error {
	for i := 0; i+1 < len(fields); i += 2 {
		if _, err := uuid.Parse(fields[i+1]); err != nil {
			return fmt.Errorf("%w: %s is not a valid id", model.ErrInvalidInput, fields[i])
		}
	}
	return nil
}

// pathID returns the {id} route parameter. A malformed id names no row and
// is answered with 404.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusNotFound, repository.ErrNotFound.Error(), model.CodeNotFound)
		return "", false
	}
	return id, true
}

// errorMapping pairs a domain error with its HTTP status and wire code.
type errorMapping struct {
	err    error
	status int
	code   string
}

// Checked in order; the first match wins.
var errorMappings = []errorMapping{
	{model.ErrInvalidInput, http.StatusBadRequest, model.CodeInvalidInput},
	{repository.ErrNotFound, http.StatusNotFound, model.CodeNotFound},
	{storage.ErrNotFound, http.StatusNotFound, model.CodeNotFound},
	{repository.ErrNotEnoughSeats, http.StatusConflict, model.CodeInsufficientCapacity},
	{repository.ErrAlreadyBooked, http.StatusConflict, model.CodeUniqueViolation},
	{repository.ErrEmailTaken, http.StatusUnprocessableEntity, model.CodeInvalidInput},
	{repository.ErrCapacityBelowBooked, http.StatusConflict, model.CodeInvalidInput},
	{policy.ErrPolicy, http.StatusForbidden, model.CodePolicyViolation},
	{service.ErrInvalidCredentials, http.StatusBadRequest, model.CodeUnauthorized},
	{token.ErrInvalidToken, http.StatusUnauthorized, model.CodeUnauthorized},
	{storage.ErrExists, http.StatusConflict, model.CodeUniqueViolation},
	{storage.ErrTooLarge, http.StatusRequestEntityTooLarge, model.CodeInvalidInput},
	{storage.ErrNotImage, http.StatusUnsupportedMediaType, model.CodeInvalidInput},
	{storage.ErrInvalidPath, http.StatusBadRequest, model.CodeInvalidInput},
}

// writeServiceError maps a service error to its status and code. Unknown
// errors are logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			writeError(w, m.status, err.Error(), m.code)
			return
		}
	}
	requestLogger(log, r).WithError(err).Error("request failed")
	writeError(w, http.StatusInternalServerError, "internal server error", model.CodeInternal)
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
