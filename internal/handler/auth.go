package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/rollcall/internal/auth"
)

type AuthHandler struct {
	auth *auth.Authenticator
	responder
}

func NewAuthHandler(a *auth.Authenticator, logger *slog.Logger, detail bool) *AuthHandler {
	return &AuthHandler{auth: a, responder: responder{logger: logger, detail: detail}}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name" valid:"required~Name is required"`
	Email    string `json:"email" valid:"required~Email is required,email~Please provide a valid email"`
	Password string `json:"password" valid:"required~Password is required,length(6|128)~Password must be at least 6 characters"`
	Role     string `json:"role"`
}

// sessionResponse is the login payload the frontend stores.
type sessionResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

func newSessionResponse(s *auth.Session) sessionResponse {
	return sessionResponse{
		ID:    s.User.ID,
		Name:  s.User.Name,
		Email: s.User.Email,
		Role:  s.User.Role,
		Token: s.Token,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	session, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(session))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.auth.Me(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
