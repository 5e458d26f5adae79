package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/gomoku-arena/internal/api/apierr"
	"github.com/mcoot/gomoku-arena/internal/model"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionLookup resolves a bearer token to a live session
type SessionLookup interface {
	Lookup(ctx context.Context, id model.SessionID) (*model.Session, error)
}

// Session resolves an optional bearer token. Requests without one pass
// through unchanged; an unknown or expired token is rejected.
func Session(sessions SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := sessions.Lookup(r.Context(), model.SessionID(token))
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests that carry no session
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetSession(r.Context()) == nil {
			apierr.WriteError(w, apierr.NewUnauthorizedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractToken extracts the session id from the Authorization header
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// GetSession returns the session from the request context, or nil
func GetSession(ctx context.Context) *model.Session {
	session, _ := ctx.Value(sessionContextKey).(*model.Session)
	return session
}
