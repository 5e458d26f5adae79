package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mcoot/gomoku-arena/internal/api/middleware"
	"github.com/mcoot/gomoku-arena/internal/api/request"
	"github.com/mcoot/gomoku-arena/internal/api/response"
	"github.com/mcoot/gomoku-arena/internal/services/session"
)

// AuthHandler handles identity endpoints
type AuthHandler struct {
	base
	sessions *session.Registry
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions *session.Registry, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		base:     base{admitter: sessions, logger: logger},
		sessions: sessions,
	}
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Login(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.Login{
		Envelope:  response.OK,
		SessionID: string(s.ID),
		Username:  s.Username,
	})
}

// SuggestUsername handles GET /api/v1/auth/suggest_username
func (h *AuthHandler) SuggestUsername(w http.ResponseWriter, r *http.Request) {
	username, err := h.sessions.SuggestUsername(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SuggestUsername{Envelope: response.OK, Username: username})
}

// UpdateUsername handles POST /api/v1/auth/update_username
func (h *AuthHandler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateUsernameRequest
	if err := request.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.sessions.UpdateUsername(r.Context(), req.OldUsername, req.NewUsername)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := response.UpdateUsername{Envelope: response.OK, Username: result.Username}
	if result.Adjusted {
		resp.Message = fmt.Sprintf("%s was taken, you are now %s", req.NewUsername, result.Username)
	}
	response.JSON(w, http.StatusOK, resp)
}

// CleanupUsers handles POST /api/v1/auth/cleanup_users
func (h *AuthHandler) CleanupUsers(w http.ResponseWriter, r *http.Request) {
	result, err := h.sessions.Cleanup(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.CleanupUsers{
		Envelope:         response.OK,
		SessionsRemoved:  result.SessionsRemoved,
		UsernamesRemoved: result.UsernamesRemoved,
	})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.MeFromModel(middleware.GetSession(r.Context())))
}
