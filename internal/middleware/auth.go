package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/rollcall/internal/auth"
)

// TokenVerifier turns a bearer token into the request principal.
type TokenVerifier interface {
	Verify(token string) (auth.AuthContext, error)
}

// RequireAuth validates the Authorization bearer token and populates
// AuthContext.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return requireToken(verifier, bearerToken)
}

// RequireAuthQuery is RequireAuth for websocket upgrades. Browsers cannot set
// headers on an upgrade, so a "token" query parameter is accepted as well.
// Only the websocket route uses it, keeping tokens out of other URLs.
func RequireAuthQuery(verifier TokenVerifier) func(http.Handler) http.Handler {
	return requireToken(verifier, func(r *http.Request) string {
		if token := bearerToken(r); token != "" {
			return token
		}
		return r.URL.Query().Get("token")
	})
}

func requireToken(verifier TokenVerifier, extract func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extract(r)
			if token == "" {
				writeMessage(w, http.StatusUnauthorized, "Not authorized, no token")
				return
			}

			ac, err := verifier.Verify(token)
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "Not authorized, token failed")
				return
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin checks that the authenticated user has an admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			writeMessage(w, http.StatusForbidden, "Not authorized as an admin")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if len(authz) > len("bearer ") && strings.EqualFold(authz[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return ""
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
