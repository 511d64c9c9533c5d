package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/devaloi/agora/internal/domain"
	"github.com/devaloi/agora/internal/logging"
	"github.com/devaloi/agora/internal/service"
)

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.User, error)
}

type userKey struct{}

// WithUser stores the authenticated user in the context.
func WithUser(ctx context.Context, u domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(domain.User)
	return u, ok
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer"))
}

// Auth rejects requests without a valid bearer token for an active account.
func Auth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				writeMessage(w, http.StatusUnauthorized, "Not authorized, no token")
				return
			}
			u, err := a.Authenticate(r.Context(), token)
			if err != nil {
				var se *service.Error
				if !errors.As(err, &se) {
					l := logging.Ctx(r.Context())
					l.Error().Err(err).Msg("authenticate")
					writeMessage(w, http.StatusInternalServerError, "Server error")
					return
				}
				writeMessage(w, http.StatusUnauthorized, se.Message)
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
		})
	}
}

// OptionalAuth attaches the user when a valid token is sent and lets the
// request through either way.
func OptionalAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token != "" {
				if u, err := a.Authenticate(r.Context(), token); err == nil {
					r = r.WithContext(withUser(r.Context(), u))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole allows only users with the given role. It must run after Auth.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r.Context())
			if !ok {
				writeMessage(w, http.StatusUnauthorized, "Not authorized")
				return
			}
			if u.Role != role {
				writeMessage(w, http.StatusForbidden,
					fmt.Sprintf("Role %s is not authorized to access this route", u.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func withUser(ctx context.Context, u domain.User) context.Context {
	noteUser(ctx, u.ID)
	ctx = WithUser(ctx, u)
	l := logging.Ctx(ctx).With().Str(logging.FieldUserID, u.ID).Logger()
	return logging.WithLogger(ctx, l)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
