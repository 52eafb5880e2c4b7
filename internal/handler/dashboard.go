package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/rollcall/internal/dashboard"
)

type DashboardHandler struct {
	svc *dashboard.Service
	responder
}

func NewDashboardHandler(svc *dashboard.Service, logger *slog.Logger, detail bool) *DashboardHandler {
	return &DashboardHandler{svc: svc, responder: responder{logger: logger, detail: detail}}
}

func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Compute(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
