package server

import (
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/rollcall/internal/attendance"
	"github.com/dukerupert/rollcall/internal/auth"
	"github.com/dukerupert/rollcall/internal/broadcast"
	"github.com/dukerupert/rollcall/internal/config"
	"github.com/dukerupert/rollcall/internal/dashboard"
	"github.com/dukerupert/rollcall/internal/email"
	"github.com/dukerupert/rollcall/internal/handler"
	"github.com/dukerupert/rollcall/internal/middleware"
	"github.com/dukerupert/rollcall/internal/store"
	ws "github.com/dukerupert/rollcall/internal/websocket"
)

type Server struct {
	db            *sql.DB
	cfg           config.Config
	hub           *ws.Hub
	authn         *auth.Authenticator
	authH         *handler.AuthHandler
	memberH       *handler.MemberHandler
	attendanceH   *handler.AttendanceHandler
	announcementH *handler.AnnouncementHandler
	dashboardH    *handler.DashboardHandler
	limiter       middleware.Limiter
	logger        *slog.Logger
}

func New(db *sql.DB, cfg config.Config, sender email.Sender, limiter middleware.Limiter, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger)
	detail := !cfg.IsProduction()

	memberStore := store.NewMemberStore(db)
	attendanceStore := store.NewAttendanceStore(db)
	announcementStore := store.NewAnnouncementStore(db)
	userStore := store.NewUserStore(db)

	authn := auth.NewAuthenticator(userStore, auth.Config{
		Secret:        cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
		TokenTTL:      cfg.TokenTTL,
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	}, logger.With("component", "auth"))

	attendanceSvc := attendance.NewService(attendanceStore, logger.With("component", "attendance"))
	dashboardSvc := dashboard.NewService(memberStore, attendanceStore)
	broadcaster := broadcast.New(announcementStore, memberStore, sender, broadcast.Config{
		Concurrency: cfg.BroadcastConcurrency,
		SendTimeout: cfg.SendTimeout,
	}, logger.With("component", "broadcast"))

	return &Server{
		db:            db,
		cfg:           cfg,
		hub:           hub,
		authn:         authn,
		authH:         handler.NewAuthHandler(authn, logger.With("component", "auth_handler"), detail),
		memberH:       handler.NewMemberHandler(memberStore, hub, logger.With("component", "member"), detail),
		attendanceH:   handler.NewAttendanceHandler(attendanceSvc, hub, logger.With("component", "attendance_handler"), detail),
		announcementH: handler.NewAnnouncementHandler(announcementStore, broadcaster, hub, logger.With("component", "announcement"), detail),
		dashboardH:    handler.NewDashboardHandler(dashboardSvc, logger.With("component", "dashboard"), detail),
		limiter:       limiter,
		logger:        logger,
	}
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	signedIn := middleware.RequireAuth(s.authn)
	member := func(h http.HandlerFunc) http.Handler {
		return signedIn(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return signedIn(middleware.RequireAdmin(h))
	}

	// Public routes
	mux.Handle("POST /api/auth/login", s.rateLimited(s.authH.Login))
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.Handle("POST /api/auth/register", admin(s.authH.Register))
	mux.Handle("GET /api/auth/me", member(s.authH.Me))

	mux.Handle("GET /api/members", member(s.memberH.List))
	mux.Handle("POST /api/members", admin(s.memberH.Create))
	mux.Handle("GET /api/members/{id}", member(s.memberH.Get))
	mux.Handle("PUT /api/members/{id}", admin(s.memberH.Update))
	mux.Handle("DELETE /api/members/{id}", admin(s.memberH.Delete))

	mux.Handle("POST /api/attendance", admin(s.attendanceH.Save))
	mux.Handle("GET /api/attendance/history", member(s.attendanceH.History))
	mux.Handle("GET /api/attendance/{date}", member(s.attendanceH.ByDate))

	mux.Handle("GET /api/announcements", member(s.announcementH.List))
	mux.Handle("POST /api/announcements", admin(s.announcementH.Create))

	mux.Handle("GET /api/dashboard", member(s.dashboardH.Get))
	mux.Handle("GET /api/ws", middleware.RequireAuthQuery(s.authn)(s.hub.Handler(nil)))

	if s.cfg.WebDir != "" {
		mux.Handle("GET /", spaHandler(s.cfg.WebDir))
	}

	var h http.Handler = middleware.Metrics(mux)
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(`{"status":"` + status + `"}`))
}

func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	key := middleware.RemoteIP
	if s.cfg.TrustProxy {
		key = middleware.RealIP
	}
	return middleware.RateLimit(s.limiter, key, s.cfg.LoginRateLimit, time.Minute)(h)
}

// spaHandler serves files from dir and falls back to index.html so client-side
// routes survive a page reload.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			http.ServeFile(w, r, index)
			return
		}
		files.ServeHTTP(w, r)
	})
}
