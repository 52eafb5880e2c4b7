package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/rollcall/internal/apperr"
	"github.com/dukerupert/rollcall/internal/model"
	"github.com/dukerupert/rollcall/internal/store"
	ws "github.com/dukerupert/rollcall/internal/websocket"
)

const (
	msgMemberNotFound = "Member not found"
	msgEmailTaken     = "Member with this email already exists"
)

type MemberHandler struct {
	store *store.MemberStore
	hub   Publisher
	responder
}

func NewMemberHandler(s *store.MemberStore, hub Publisher, logger *slog.Logger, detail bool) *MemberHandler {
	return &MemberHandler{store: s, hub: hub, responder: responder{logger: logger, detail: detail}}
}

type createMemberRequest struct {
	Name     string `json:"name" valid:"required~Name is required"`
	Email    string `json:"email" valid:"email~Please provide a valid email"`
	Mobile   string `json:"mobile"`
	Role     string `json:"role"`
	Active   *bool  `json:"active" valid:"-"`
	JoinDate string `json:"joinDate"`
}

type updateMemberRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" valid:"email~Please provide a valid email"`
	Mobile   *string `json:"mobile"`
	Role     *string `json:"role"`
	Active   *bool   `json:"active" valid:"-"`
	JoinDate *string `json:"joinDate"`
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.store.List(r.Context())
	if err != nil {
		h.fail(w, r, apperr.Dependency("list members", err))
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, apperr.Dependency("get member", err))
		return
	}
	if m == nil {
		h.fail(w, r, apperr.NotFound(msgMemberNotFound))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.fail(w, r, apperr.Validation("Name is required"))
		return
	}

	m := model.Member{
		Name:   req.Name,
		Email:  normalizeEmail(req.Email),
		Mobile: strings.TrimSpace(req.Mobile),
		Role:   strings.TrimSpace(req.Role),
		Active: true,
	}
	if req.Active != nil {
		m.Active = *req.Active
	}
	if req.JoinDate != "" {
		joined, err := parseJoinDate(req.JoinDate)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		m.JoinDate = joined
	}

	if err := h.checkEmail(r, m.Email, ""); err != nil {
		h.fail(w, r, err)
		return
	}

	created, err := h.store.Create(r.Context(), m)
	if err != nil {
		h.fail(w, r, storeError("create member", err))
		return
	}

	h.hub.Publish(ws.EntityMember, "created", created.ID, created)
	writeJSON(w, http.StatusCreated, created)
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, apperr.Dependency("get member", err))
		return
	}
	if existing == nil {
		h.fail(w, r, apperr.NotFound(msgMemberNotFound))
		return
	}

	var req updateMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	patch, err := req.patch()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if patch.Email != nil && *patch.Email != existing.Email {
		if err := h.checkEmail(r, *patch.Email, id); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	updated, err := h.store.Update(r.Context(), patch.Apply(*existing))
	if err != nil {
		h.fail(w, r, storeError("update member", err))
		return
	}

	h.hub.Publish(ws.EntityMember, "updated", updated.ID, updated)
	writeJSON(w, http.StatusOK, updated)
}

func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	deleted, err := h.store.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, r, apperr.Dependency("delete member", err))
		return
	}
	if !deleted {
		h.fail(w, r, apperr.NotFound(msgMemberNotFound))
		return
	}

	h.hub.Publish(ws.EntityMember, "deleted", id, nil)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Member removed"})
}

// checkEmail enforces sparse uniqueness: members without email never collide.
// The unique index backs this up when two requests race.
func (h *MemberHandler) checkEmail(r *http.Request, email, excludeID string) error {
	if email == "" {
		return nil
	}
	taken, err := h.store.EmailExists(r.Context(), email, excludeID)
	if err != nil {
		return apperr.Dependency("check member email", err)
	}
	if taken {
		return apperr.Validation(msgEmailTaken)
	}
	return nil
}

func (req updateMemberRequest) patch() (model.MemberPatch, error) {
	p := model.MemberPatch{
		Mobile: req.Mobile,
		Role:   req.Role,
		Active: req.Active,
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return p, apperr.Validation("Name is required")
		}
		p.Name = &name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		p.Email = &email
	}
	if req.JoinDate != nil {
		joined, err := parseJoinDate(*req.JoinDate)
		if err != nil {
			return p, err
		}
		p.JoinDate = &joined
	}
	return p, nil
}

// parseJoinDate keeps the full instant of an RFC 3339 timestamp. A bare
// YYYY-MM-DD means midnight UTC of that day.
func parseJoinDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(model.DayLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, apperr.Validation("Invalid join date")
}

func storeError(op string, err error) error {
	if errors.Is(err, store.ErrEmailTaken) {
		return apperr.Validation(msgEmailTaken)
	}
	return apperr.Dependency(op, err)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

