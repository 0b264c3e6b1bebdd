package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
)

// BookingHandler serves /bookings.
type BookingHandler struct {
	svc BookingService
	log logrus.FieldLogger
}

func NewBookingHandler(svc BookingService, log logrus.FieldLogger) *BookingHandler {
	return &BookingHandler{svc: svc, log: log}
}

// Create handles POST /bookings
// The body is a single row; seat accounting happens server-side.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.BookingInsert
	if err := decodeJSON(w, r, &in); err != nil {
		writeBadBody(w, err)
		return
	}
	if err := checkIDs("event_id", in.EventID, "attendee_id", in.AttendeeID); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	b, err := h.svc.Create(r.Context(), PrincipalFrom(r.Context()), in)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// Mine handles GET /bookings
func (h *BookingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListMine(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if list == nil {
		list = []model.Booking{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Lookup handles GET /bookings/lookup?event_id=&attendee_id=
// Zero or one row comes back as a JSON array, so absence is not an error.
func (h *BookingHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	eventID, attendeeID := q.Get("event_id"), q.Get("attendee_id")
	if eventID == "" || attendeeID == "" {
		writeError(w, http.StatusBadRequest, "event_id and attendee_id are required", model.CodeInvalidInput)
		return
	}
	if err := checkIDs("event_id", eventID, "attendee_id", attendeeID); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	b, err := h.svc.FindOne(r.Context(), PrincipalFrom(r.Context()), eventID, attendeeID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	rows := []model.Booking{}
	if b != nil {
		rows = append(rows, *b)
	}
	writeJSON(w, http.StatusOK, rows)
}
