package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/gomoku-arena/internal/api/request"
	"github.com/mcoot/gomoku-arena/internal/api/response"
	"github.com/mcoot/gomoku-arena/internal/services/rooms"
)

// RoomHandler handles room membership and chat endpoints
type RoomHandler struct {
	base
	rooms *rooms.Registry
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms *rooms.Registry, admitter Admitter, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{
		base:  base{admitter: admitter, logger: logger},
		rooms: rooms,
	}
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.rooms.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomListFromModel(summaries))
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.UsernameRequest
	if err := request.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	username, err := h.actor(r, req.Username)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	room, already, err := h.rooms.Create(r.Context(), username)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	status := http.StatusCreated
	if already {
		status = http.StatusOK
	}
	response.JSON(w, status, response.CreateRoom{
		Envelope:      response.OK,
		RoomID:        string(room.ID),
		AlreadyInRoom: already,
	})
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	room, err := h.rooms.Get(r.Context(), roomID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GetRoom{Envelope: response.OK, Room: response.RoomFromModel(room)})
}

// Join handles POST /api/v1/rooms/{id}/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	username, ok := h.decodeActor(w, r)
	if !ok {
		return
	}

	room, err := h.rooms.Join(r.Context(), roomID(r), username)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.JoinRoom{Envelope: response.OK, RoomID: string(room.ID)})
}

// Leave handles POST /api/v1/rooms/{id}/leave
func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	username, ok := h.decodeActor(w, r)
	if !ok {
		return
	}

	if err := h.rooms.Leave(r.Context(), roomID(r), username); err != nil {
		h.fail(w, r, err)
		return
	}

	response.Empty(w)
}

// Delete handles DELETE /api/v1/rooms/{id}
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username, ok := h.decodeActor(w, r)
	if !ok {
		return
	}

	if err := h.rooms.Delete(r.Context(), roomID(r), username); err != nil {
		h.fail(w, r, err)
		return
	}

	response.Empty(w)
}

// SendMessage handles POST /api/v1/rooms/{id}/messages
func (h *RoomHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req request.SendMessageRequest
	if err := request.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	username, err := h.actor(r, req.Username)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	msg, err := h.rooms.SendMessage(r.Context(), roomID(r), username, req.Message)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.SendMessage{Envelope: response.OK, Message: *msg})
}

// decodeActor reads a UsernameRequest body and resolves the actor. On
// failure the error has been written.
func (b *base) decodeActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req request.UsernameRequest
	if err := request.Decode(r, &req); err != nil {
		b.fail(w, r, err)
		return "", false
	}
	username, err := b.actor(r, req.Username)
	if err != nil {
		b.fail(w, r, err)
		return "", false
	}
	return username, true
}
