package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/gomoku-arena/internal/api/apierr"
	"github.com/mcoot/gomoku-arena/internal/middleware"
)

// Recovery turns a handler panic into an INTERNAL_ERROR envelope
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}
