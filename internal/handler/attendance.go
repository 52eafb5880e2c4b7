package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/rollcall/internal/attendance"
	"github.com/dukerupert/rollcall/internal/model"
	ws "github.com/dukerupert/rollcall/internal/websocket"
)

type AttendanceHandler struct {
	svc *attendance.Service
	hub Publisher
	responder
}

func NewAttendanceHandler(svc *attendance.Service, hub Publisher, logger *slog.Logger, detail bool) *AttendanceHandler {
	return &AttendanceHandler{svc: svc, hub: hub, responder: responder{logger: logger, detail: detail}}
}

type saveAttendanceRequest struct {
	Date    string                   `json:"date"`
	Records []model.AttendanceRecord `json:"records" valid:"-"`
}

// Save creates or replaces the day's attendance: 201 when the day is new,
// 200 when an existing entry was overwritten.
func (h *AttendanceHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveAttendanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	entry, created, err := h.svc.Upsert(r.Context(), req.Date, req.Records)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.hub.Publish(ws.EntityAttendance, "saved", entry.ID, entry)
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, entry)
}

// ByDate answers null when no attendance was taken that day.
func (h *AttendanceHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.ByDate(r.Context(), r.PathValue("date"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *AttendanceHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.svc.History(r.Context(), q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
