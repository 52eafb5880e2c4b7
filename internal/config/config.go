// Package config loads the immutable runtime configuration from the
// environment.
package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const devSecret = "dev-signing-secret-change-me"

// Config is read once at startup and passed to constructors. Nothing reads the
// environment after Load returns.
type Config struct {
	Env       string
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string
	WebDir    string

	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	AdminEmail    string
	AdminPassword string

	MailDriver    string
	MailFrom      string
	MailFromName  string
	PostmarkToken string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string

	BroadcastConcurrency int
	SendTimeout          time.Duration

	RedisAddr      string
	LoginRateLimit int
	// TrustProxy keys rate limits on CF-Connecting-IP / X-Forwarded-For.
	// Leave it off unless a proxy in front of the server sets those headers.
	TrustProxy bool
}

// Load reads an optional .env file from the working directory and then the
// process environment. Variables already set in the environment win.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env file", "error", err)
	}

	return Config{
		Env:       getEnv("ROLLCALL_ENV", "development"),
		Port:      getEnv("ROLLCALL_PORT", "5000"),
		DBPath:    getEnv("ROLLCALL_DB_PATH", "rollcall.db"),
		LogLevel:  getEnv("ROLLCALL_LOG_LEVEL", "info"),
		LogFormat: getEnv("ROLLCALL_LOG_FORMAT", "text"),
		WebDir:    getEnv("ROLLCALL_WEB_DIR", ""),

		JWTSecret: getEnv("ROLLCALL_JWT_SECRET", devSecret),
		JWTIssuer: getEnv("ROLLCALL_JWT_ISSUER", "rollcall"),
		TokenTTL:  durationEnv("ROLLCALL_TOKEN_TTL", 30*24*time.Hour),

		AdminEmail:    getEnv("ROLLCALL_ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ROLLCALL_ADMIN_PASSWORD", ""),

		MailDriver:    getEnv("ROLLCALL_MAIL_DRIVER", "log"),
		MailFrom:      getEnv("ROLLCALL_MAIL_FROM", ""),
		MailFromName:  getEnv("ROLLCALL_MAIL_FROM_NAME", "Yuvak Mandal"),
		PostmarkToken: getEnv("ROLLCALL_POSTMARK_TOKEN", ""),
		SMTPHost:      getEnv("ROLLCALL_SMTP_HOST", ""),
		SMTPPort:      intEnv("ROLLCALL_SMTP_PORT", 587),
		SMTPUser:      getEnv("ROLLCALL_SMTP_USER", ""),
		SMTPPass:      getEnv("ROLLCALL_SMTP_PASS", ""),

		BroadcastConcurrency: intEnv("ROLLCALL_BROADCAST_CONCURRENCY", 8),
		SendTimeout:          durationEnv("ROLLCALL_SEND_TIMEOUT", 30*time.Second),

		RedisAddr:      getEnv("ROLLCALL_REDIS_ADDR", ""),
		LoginRateLimit: intEnv("ROLLCALL_LOGIN_RATE_LIMIT", 10),
		TrustProxy:     boolEnv("ROLLCALL_TRUST_PROXY", false),
	}
}

// IsProduction reports whether error details must be hidden from clients.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects configurations that would be unsafe or unusable.
func (c Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == devSecret {
		return errors.New("ROLLCALL_JWT_SECRET must be set in production")
	}
	switch c.MailDriver {
	case "log":
	case "postmark":
		if c.PostmarkToken == "" {
			return errors.New("ROLLCALL_POSTMARK_TOKEN is required for the postmark mail driver")
		}
	case "smtp":
		if c.SMTPHost == "" {
			return errors.New("ROLLCALL_SMTP_HOST is required for the smtp mail driver")
		}
	default:
		return errors.New("ROLLCALL_MAIL_DRIVER must be log, postmark or smtp")
	}
	if c.MailDriver != "log" && c.MailFrom == "" {
		return errors.New("ROLLCALL_MAIL_FROM is required to send email")
	}
	if c.BroadcastConcurrency < 1 {
		return errors.New("ROLLCALL_BROADCAST_CONCURRENCY must be at least 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			slog.Warn("invalid duration, using fallback", "key", key, "error", err, "fallback", fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			slog.Warn("invalid int, using fallback", "key", key, "error", err, "fallback", fallback)
			return fallback
		}
		return n
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			slog.Warn("invalid bool, using fallback", "key", key, "error", err, "fallback", fallback)
			return fallback
		}
		return b
	}
	return fallback
}
