package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/rollcall/internal/apperr"
	"github.com/dukerupert/rollcall/internal/model"
	"github.com/dukerupert/rollcall/internal/store"
)

const (
	invalidCredentials = "Invalid email or password"
	masterAdminName    = "Master Admin"
)

type Users interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, name, email, passwordHash, role string) (*model.User, error)
}

type Config struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
	// AdminEmail and AdminPassword, when both set, always log in as an admin.
	// The matching user row is created on first use.
	AdminEmail    string
	AdminPassword string
}

type Authenticator struct {
	users  Users
	cfg    Config
	logger *slog.Logger
}

func NewAuthenticator(users Users, cfg Config, logger *slog.Logger) *Authenticator {
	return &Authenticator{users: users, cfg: cfg, logger: logger}
}

// Session is a logged-in user plus the bearer token issued for them.
type Session struct {
	User  *model.User
	Token string
}

// Login checks the credentials and issues a token. Every credential failure
// yields the same Auth error so callers cannot probe which emails exist.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, apperr.Auth(invalidCredentials)
	}

	if a.isConfiguredAdmin(email, password) {
		u, err := a.ensureAdmin(ctx, email, password)
		if err != nil {
			return nil, apperr.Dependency("bootstrap admin", err)
		}
		return a.session(u)
	}

	u, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Dependency("load user", err)
	}
	if u == nil || !CheckPassword(u.PasswordHash, password) {
		a.logger.Warn("failed login", "email", email)
		return nil, apperr.Auth(invalidCredentials)
	}
	return a.session(u)
}

// Register creates a login user and issues a token for them.
func (a *Authenticator) Register(ctx context.Context, name, email, password, role string) (*Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if role == "" {
		role = model.RoleMember
	}
	switch role {
	case model.RoleMember, model.RoleAdmin, model.RoleSuperAdmin:
	default:
		return nil, apperr.Validation("Invalid role")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, apperr.Dependency("hash password", err)
	}

	u, err := a.users.Create(ctx, strings.TrimSpace(name), email, hash, role)
	if errors.Is(err, store.ErrEmailTaken) {
		return nil, apperr.Validation("User already exists")
	}
	if err != nil {
		return nil, apperr.Dependency("create user", err)
	}
	return a.session(u)
}

// Verify parses a bearer token into the request principal.
func (a *Authenticator) Verify(token string) (AuthContext, error) {
	claims, err := Parse(token, a.cfg.Secret, a.cfg.Issuer)
	if err != nil {
		return AuthContext{}, apperr.Auth("Not authorized, token failed")
	}
	return AuthContext{UserID: claims.Subject, Role: claims.Role}, nil
}

// Me returns the user behind the request principal.
func (a *Authenticator) Me(ctx context.Context, userID string) (*model.User, error) {
	u, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Dependency("load user", err)
	}
	if u == nil {
		return nil, apperr.NotFound("User not found")
	}
	return u, nil
}

func (a *Authenticator) isConfiguredAdmin(email, password string) bool {
	if a.cfg.AdminEmail == "" || a.cfg.AdminPassword == "" {
		return false
	}
	emailOK := strings.EqualFold(email, a.cfg.AdminEmail)
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.cfg.AdminPassword)) == 1
	return emailOK && passOK
}

func (a *Authenticator) ensureAdmin(ctx context.Context, email, password string) (*model.User, error) {
	u, err := a.users.GetByEmail(ctx, email)
	if err != nil || u != nil {
		return u, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	u, err = a.users.Create(ctx, masterAdminName, email, hash, model.RoleAdmin)
	if errors.Is(err, store.ErrEmailTaken) {
		// A concurrent login created it first.
		return a.users.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}
	a.logger.Info("created admin user from configuration", "email", email)
	return u, nil
}

func (a *Authenticator) session(u *model.User) (*Session, error) {
	token, err := Issue(u.ID, u.Role, a.cfg.Issuer, a.cfg.Secret, a.cfg.TokenTTL)
	if err != nil {
		return nil, apperr.Dependency("sign token", err)
	}
	return &Session{User: u, Token: token}, nil
}
