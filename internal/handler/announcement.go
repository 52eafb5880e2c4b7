package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/rollcall/internal/apperr"
	"github.com/dukerupert/rollcall/internal/auth"
	"github.com/dukerupert/rollcall/internal/broadcast"
	"github.com/dukerupert/rollcall/internal/model"
	"github.com/dukerupert/rollcall/internal/store"
	ws "github.com/dukerupert/rollcall/internal/websocket"
)

type AnnouncementHandler struct {
	store       *store.AnnouncementStore
	broadcaster *broadcast.Broadcaster
	hub         Publisher
	responder
}

func NewAnnouncementHandler(s *store.AnnouncementStore, b *broadcast.Broadcaster, hub Publisher, logger *slog.Logger, detail bool) *AnnouncementHandler {
	return &AnnouncementHandler{store: s, broadcaster: b, hub: hub, responder: responder{logger: logger, detail: detail}}
}

type createAnnouncementRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type announcementResponse struct {
	*model.Announcement
	Warning string `json:"warning,omitempty"`
}

func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		h.fail(w, r, apperr.Dependency("list announcements", err))
		return
	}
	if list == nil {
		list = []model.Announcement{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Create persists the announcement and emails it before answering. Delivery
// problems never fail the request; they surface as a warning.
func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAnnouncementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.broadcaster.Broadcast(r.Context(), req.Title, req.Message, auth.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.hub.Publish(ws.EntityAnnouncement, "created", res.Announcement.ID, res.Announcement)
	writeJSON(w, http.StatusCreated, announcementResponse{Announcement: res.Announcement, Warning: res.Warning})
}
