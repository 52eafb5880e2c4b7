package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dukerupert/rollcall/internal/config"
	"github.com/dukerupert/rollcall/internal/database"
	"github.com/dukerupert/rollcall/internal/email"
	"github.com/dukerupert/rollcall/internal/logging"
	"github.com/dukerupert/rollcall/internal/middleware"
	"github.com/dukerupert/rollcall/internal/server"
)

func main() {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	sender := newSender(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter, closeLimiter := newLimiter(ctx, cfg, logger)
	defer closeLimiter()

	srv := server.New(db, cfg, sender, limiter, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Announcement requests wait for every email to settle.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("rollcall running", "addr", "http://localhost:"+cfg.Port, "env", cfg.Env, "mail", cfg.MailDriver)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func newSender(cfg config.Config, logger *slog.Logger) email.Sender {
	from := email.FormatAddress(cfg.MailFromName, cfg.MailFrom)
	switch cfg.MailDriver {
	case "postmark":
		return email.NewClient(cfg.PostmarkToken, from)
	case "smtp":
		return email.NewSMTPClient(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, from)
	default:
		return email.NewLogSender(logger.With("component", "email"))
	}
}

// newLimiter shares login counters through Redis when configured. Otherwise
// counters live in memory and a background loop drops expired windows.
func newLimiter(ctx context.Context, cfg config.Config, logger *slog.Logger) (middleware.Limiter, func()) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, rate limiter will fail open until it returns", "addr", cfg.RedisAddr, "error", err)
		}
		return middleware.NewRedisLimiter(client, "rollcall:ratelimit:", logger), func() { client.Close() }
	}

	limiter := middleware.NewMemoryLimiter()
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup()
			}
		}
	}()
	return limiter, func() {}
}
