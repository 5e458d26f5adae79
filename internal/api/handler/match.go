package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/gomoku-arena/internal/api/request"
	"github.com/mcoot/gomoku-arena/internal/api/response"
	"github.com/mcoot/gomoku-arena/internal/services/match"
)

// MatchHandler handles negotiation and move endpoints
type MatchHandler struct {
	base
	match *match.Controller
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(match *match.Controller, admitter Admitter, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{
		base:  base{admitter: admitter, logger: logger},
		match: match,
	}
}

// SetAIConfig handles POST /api/v1/rooms/{id}/ai_config
func (h *MatchHandler) SetAIConfig(w http.ResponseWriter, r *http.Request) {
	var req request.SetAIConfigRequest
	if err := request.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	username, err := h.actor(r, req.Username)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.match.SetAIConfig(r.Context(), roomID(r), username, req.AIConfig.ToModel()); err != nil {
		h.fail(w, r, err)
		return
	}

	response.Empty(w)
}

// LockConfig handles POST /api/v1/rooms/{id}/lock_config
func (h *MatchHandler) LockConfig(w http.ResponseWriter, r *http.Request) {
	var req request.LockConfigRequest
	if err := request.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	username, err := h.actor(r, req.Username)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.match.LockConfig(r.Context(), roomID(r), username, req.Locked, req.CancelUnlock); err != nil {
		h.fail(w, r, err)
		return
	}

	response.Empty(w)
}

// SetReady handles POST /api/v1/rooms/{id}/ready
func (h *MatchHandler) SetReady(w http.ResponseWriter, r *http.Request) {
	var req request.SetReadyRequest
	if err := request.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	username, err := h.actor(r, req.Username)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.match.SetReady(r.Context(), roomID(r), username, req.Ready); err != nil {
		h.fail(w, r, err)
		return
	}

	response.Empty(w)
}

// SetOwnerColor handles POST /api/v1/rooms/{id}/color
func (h *MatchHandler) SetOwnerColor(w http.ResponseWriter, r *http.Request) {
	var req request.SetColorRequest
	if err := request.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	username, err := h.actor(r, req.Username)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.match.SetOwnerColor(r.Context(), roomID(r), username, req.Color); err != nil {
		h.fail(w, r, err)
		return
	}

	response.Empty(w)
}

// Step handles POST /api/v1/rooms/{id}/step
func (h *MatchHandler) Step(w http.ResponseWriter, r *http.Request) {
	username, ok := h.decodeActor(w, r)
	if !ok {
		return
	}

	move, err := h.match.Step(r.Context(), roomID(r), username)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Step{Envelope: response.OK, PendingMove: move})
}

// ConfirmMove handles POST /api/v1/rooms/{id}/confirm_move
func (h *MatchHandler) ConfirmMove(w http.ResponseWriter, r *http.Request) {
	username, ok := h.decodeActor(w, r)
	if !ok {
		return
	}

	result, err := h.match.ConfirmMove(r.Context(), roomID(r), username)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ConfirmMoveFromResult(result))
}

// Rematch handles POST /api/v1/rooms/{id}/rematch
func (h *MatchHandler) Rematch(w http.ResponseWriter, r *http.Request) {
	username, ok := h.decodeActor(w, r)
	if !ok {
		return
	}

	if err := h.match.Rematch(r.Context(), roomID(r), username); err != nil {
		h.fail(w, r, err)
		return
	}

	response.Empty(w)
}
