package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
)

// EventHandler serves /events.
type EventHandler struct {
	svc EventService
	log logrus.FieldLogger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc EventService, log logrus.FieldLogger) *EventHandler {
	return &EventHandler{svc: svc, log: log}
}

// List handles GET /events?category=
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// Get handles GET /events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ev, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// Create handles POST /events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.EventInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeBadBody(w, err)
		return
	}
	ev, err := h.svc.Create(r.Context(), PrincipalFrom(r.Context()), in)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// Update handles PATCH /events/{id}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in model.EventInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeBadBody(w, err)
		return
	}
	ev, err := h.svc.Update(r.Context(), PrincipalFrom(r.Context()), id, in)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// Delete handles DELETE /events/{id}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), PrincipalFrom(r.Context()), id); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Mine handles GET /events/mine
func (h *EventHandler) Mine(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListMine(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// Stats handles GET /events/stats
func (h *EventHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Bookings handles GET /events/{id}/bookings
func (h *EventHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	list, err := h.svc.Bookings(r.Context(), PrincipalFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if list == nil {
		list = []model.Booking{}
	}
	writeJSON(w, http.StatusOK, list)
}
