package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/aryan-vats/tubescribe-backend/internal/auth"
	"github.com/aryan-vats/tubescribe-backend/internal/storage"
)

// SessionCookieName is the HttpOnly cookie carrying the opaque session token.
const SessionCookieName = "session_token"

type userIDKey struct{}

// Authenticator resolves the requesting user via the fallback chain:
// Authorization bearer JWT first, then the session cookie.
type Authenticator struct {
	secret   []byte
	sessions storage.SessionStore
}

func NewAuthenticator(secret []byte, sessions storage.SessionStore) *Authenticator {
	return &Authenticator{secret: secret, sessions: sessions}
}

// Resolve returns the authenticated user id, or "" when the request carries
// no valid credentials.
func (a *Authenticator) Resolve(r *http.Request) string {
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		if userID, err := auth.UserIDFromToken(token, a.secret); err == nil {
			return userID
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if userID, ok, err := a.sessions.Validate(r.Context(), cookie.Value); err == nil && ok {
			return userID
		}
	}
	return ""
}

// RequireAuth rejects unauthenticated requests with a JSON 401 and otherwise
// stores the user id on the request context.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := a.Resolve(r)
		if userID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"message":"Authentication required"}`))
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithUserID returns a context carrying the authenticated user id, the same
// way RequireAuth stores it.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFrom returns the authenticated user id stored on the context, or "".
func UserIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey{}).(string); ok {
		return v
	}
	return ""
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
