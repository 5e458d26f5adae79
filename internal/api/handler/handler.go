package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gomoku-arena/internal/api/apierr"
	"github.com/mcoot/gomoku-arena/internal/api/middleware"
	"github.com/mcoot/gomoku-arena/internal/model"
)

// Admitter re-admits a username presented by a client
type Admitter interface {
	EnsureRegistered(ctx context.Context, username string) error
}

// base holds what every handler needs: identity resolution and error output
type base struct {
	admitter Admitter
	logger   *slog.Logger
}

// fail writes the error envelope. Unmapped errors are logged.
func (b *base) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status := apierr.WriteError(w, err); status >= http.StatusInternalServerError {
		b.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}

// actor resolves the acting username. A bearer session wins; otherwise the
// username named in the body is validated and re-admitted.
func (b *base) actor(r *http.Request, named string) (string, error) {
	if session := middleware.GetSession(r.Context()); session != nil {
		return session.Username, nil
	}
	if named == "" {
		return "", apierr.NewInvalidRequestError("username is required")
	}
	if err := model.ValidateUsername(named); err != nil {
		return "", err
	}
	if err := b.admitter.EnsureRegistered(r.Context(), named); err != nil {
		return "", err
	}
	return named, nil
}

func roomID(r *http.Request) model.RoomID {
	return model.RoomID(mux.Vars(r)["id"])
}
