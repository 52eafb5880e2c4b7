package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dukerupert/rollcall/internal/apperr"
	"github.com/dukerupert/rollcall/internal/database"
	"github.com/dukerupert/rollcall/internal/store"
)

func setupAuthenticator(t *testing.T, cfg Config) (*Authenticator, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if cfg.Secret == "" {
		cfg.Secret = "test-secret"
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "rollcall"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}

	users := store.NewUserStore(db)
	return NewAuthenticator(users, cfg, slog.New(slog.NewTextHandler(io.Discard, nil))), users
}

func TestLoginDatabaseUser(t *testing.T) {
	a, users := setupAuthenticator(t, Config{})
	ctx := context.Background()

	hash, _ := HashPassword("password123")
	created, err := users.Create(ctx, "Admin User", "admin@baps.com", hash, "admin")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	sess, err := a.Login(ctx, "Admin@BAPS.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.User.ID != created.ID {
		t.Errorf("user = %s, want %s", sess.User.ID, created.ID)
	}

	ac, err := a.Verify(sess.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ac.UserID != created.ID || ac.Role != "admin" {
		t.Errorf("auth context = %+v", ac)
	}
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	a, users := setupAuthenticator(t, Config{})
	ctx := context.Background()

	hash, _ := HashPassword("password123")
	users.Create(ctx, "Admin User", "admin@baps.com", hash, "admin")

	for _, tc := range []struct{ email, password string }{
		{"admin@baps.com", "wrong"},
		{"nobody@baps.com", "password123"},
		{"", ""},
	} {
		_, err := a.Login(ctx, tc.email, tc.password)
		if apperr.KindOf(err) != apperr.KindAuth {
			t.Errorf("login(%q): kind = %v, want auth", tc.email, apperr.KindOf(err))
		}
		if got := apperr.Message(err); got != "Invalid email or password" {
			t.Errorf("login(%q): message = %q", tc.email, got)
		}
	}
}

func TestLoginConfiguredAdminCreatesUser(t *testing.T) {
	a, users := setupAuthenticator(t, Config{AdminEmail: "owner@baps.com", AdminPassword: "s3cret"})
	ctx := context.Background()

	sess, err := a.Login(ctx, "owner@baps.com", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.User.Name != "Master Admin" {
		t.Errorf("name = %q, want %q", sess.User.Name, "Master Admin")
	}
	if sess.User.Role != "admin" {
		t.Errorf("role = %q, want %q", sess.User.Role, "admin")
	}

	stored, err := users.GetByEmail(ctx, "owner@baps.com")
	if err != nil || stored == nil {
		t.Fatalf("expected stored admin user, got %v, %v", stored, err)
	}

	again, err := a.Login(ctx, "owner@baps.com", "s3cret")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if again.User.ID != sess.User.ID {
		t.Errorf("second login user = %s, want %s", again.User.ID, sess.User.ID)
	}

	if _, err := a.Login(ctx, "owner@baps.com", "wrong"); apperr.KindOf(err) != apperr.KindAuth {
		t.Errorf("wrong admin password: err = %v, want auth error", err)
	}
}

func TestRegister(t *testing.T) {
	a, _ := setupAuthenticator(t, Config{})
	ctx := context.Background()

	sess, err := a.Register(ctx, "Sunny", "sunny@baps.com", "password123", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sess.User.Role != "member" {
		t.Errorf("role = %q, want member", sess.User.Role)
	}
	if sess.Token == "" {
		t.Error("expected a token")
	}

	_, err = a.Register(ctx, "Sunny 2", "sunny@baps.com", "password123", "")
	if apperr.KindOf(err) != apperr.KindValidation || apperr.Message(err) != "User already exists" {
		t.Errorf("duplicate register: err = %v", err)
	}

	if _, err := a.Register(ctx, "X", "x@baps.com", "pw", "owner"); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("invalid role: err = %v, want validation", err)
	}

	if _, err := a.Login(ctx, "sunny@baps.com", "password123"); err != nil {
		t.Errorf("login after register: %v", err)
	}
}

func TestVerifyRejectsForeignToken(t *testing.T) {
	a, _ := setupAuthenticator(t, Config{})

	token, _ := Issue("u1", "admin", "rollcall", "another-secret", time.Hour)
	if _, err := a.Verify(token); apperr.KindOf(err) != apperr.KindAuth {
		t.Errorf("err = %v, want auth error", err)
	}
}

func TestMe(t *testing.T) {
	a, _ := setupAuthenticator(t, Config{})
	ctx := context.Background()

	sess, _ := a.Register(ctx, "Priya", "priya@baps.com", "pw", "admin")
	u, err := a.Me(ctx, sess.User.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if u.Email != "priya@baps.com" {
		t.Errorf("email = %q", u.Email)
	}

	if _, err := a.Me(ctx, "missing"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("err = %v, want not found", err)
	}
}
