package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/gomoku-arena/internal/api/middleware"
	"github.com/mcoot/gomoku-arena/internal/events"
	"github.com/mcoot/gomoku-arena/internal/services/rooms"
)

// EventsHandler streams room events over SSE
type EventsHandler struct {
	base
	rooms *rooms.Registry
	hubs  *events.HubManager
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(rooms *rooms.Registry, hubs *events.HubManager, admitter Admitter, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		base:  base{admitter: admitter, logger: logger},
		rooms: rooms,
		hubs:  hubs,
	}
}

// Stream handles GET /api/v1/rooms/{id}/events. Spectators may watch
// without a session.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := roomID(r)
	if _, err := h.rooms.Get(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	username := r.URL.Query().Get("username")
	if session := middleware.GetSession(r.Context()); session != nil {
		username = session.Username
	}

	// The stream outlives the server's write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	events.ServeSSE(w, r, h.hubs.GetOrCreateHub(id), username)
}
