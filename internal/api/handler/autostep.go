package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gomoku-arena/internal/api/request"
	"github.com/mcoot/gomoku-arena/internal/api/response"
	"github.com/mcoot/gomoku-arena/internal/model"
	"github.com/mcoot/gomoku-arena/internal/services/autoplay"
	"github.com/mcoot/gomoku-arena/internal/services/rooms"
)

// AutostepHandler handles background step jobs
type AutostepHandler struct {
	base
	autoplay *autoplay.Service
	rooms    *rooms.Registry
}

// NewAutostepHandler creates a new autostep handler
func NewAutostepHandler(autoplay *autoplay.Service, rooms *rooms.Registry, admitter Admitter, logger *slog.Logger) *AutostepHandler {
	return &AutostepHandler{
		base:     base{admitter: admitter, logger: logger},
		autoplay: autoplay,
		rooms:    rooms,
	}
}

// Start handles POST /api/v1/rooms/{id}/autostep
func (h *AutostepHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req request.AutostepRequest
	if err := request.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	username, err := h.actor(r, req.Username)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id := roomID(r)
	room, err := h.rooms.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !room.HasPlayer(username) {
		h.fail(w, r, model.ErrNotInRoom)
		return
	}

	policy := autoplay.DefaultPolicy()
	if req.MaxAttempts > 0 {
		policy.MaxAttempts = req.MaxAttempts
	}

	job, err := h.autoplay.Start(id, username, policy, req.AutoConfirm)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusAccepted, response.JobFromModel(job))
}

// Get handles GET /api/v1/rooms/{id}/autostep/{job}
func (h *AutostepHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.roomJob(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.JobFromModel(job))
}

// Cancel handles DELETE /api/v1/rooms/{id}/autostep/{job}
func (h *AutostepHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if _, err := h.roomJob(r); err != nil {
		h.fail(w, r, err)
		return
	}

	job, err := h.autoplay.Cancel(mux.Vars(r)["job"])
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.JobFromModel(job))
}

// roomJob returns the job named in the path if it belongs to the room
func (h *AutostepHandler) roomJob(r *http.Request) (autoplay.Job, error) {
	job, err := h.autoplay.Job(mux.Vars(r)["job"])
	if err != nil {
		return autoplay.Job{}, err
	}
	if job.RoomID != roomID(r) {
		return autoplay.Job{}, model.ErrJobNotFound
	}
	return job, nil
}
