package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
)

// AuthHandler serves /auth.
type AuthHandler struct {
	svc AuthService
	log logrus.FieldLogger
}

func NewAuthHandler(svc AuthService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

// SignUp handles POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req model.SignUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	ident, err := h.svc.SignUp(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, ident)
}

// SignIn handles POST /auth/token
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req model.SignInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	resp, err := h.svc.SignIn(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SignOut handles POST /auth/logout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	if err := h.svc.SignOut(r.Context(), claims); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// User handles GET /auth/user
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	ident, err := h.svc.CurrentUser(r.Context(), PrincipalFrom(r.Context()).UserID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ident)
}

// UpdateUser handles PUT /auth/user
func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	ident, err := h.svc.UpdateUser(r.Context(), PrincipalFrom(r.Context()).UserID, req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ident)
}
