package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
)

// ProfileHandler serves /profiles.
type ProfileHandler struct {
	svc ProfileService
	log logrus.FieldLogger
}

func NewProfileHandler(svc ProfileService, log logrus.FieldLogger) *ProfileHandler {
	return &ProfileHandler{svc: svc, log: log}
}

// Get handles GET /profiles/{id}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.Get(r.Context(), PrincipalFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Update handles PATCH /profiles/{id}
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	p, err := h.svc.UpdateFullName(r.Context(), PrincipalFrom(r.Context()), id, req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
