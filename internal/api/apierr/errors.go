package apierr

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mcoot/gomoku-arena/internal/model"
)

// ErrorResponse is the failure envelope
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidUsername    = "INVALID_USERNAME"
	CodeInvalidAIConfig    = "INVALID_AI_CONFIG"
	CodeInvalidMessage     = "INVALID_MESSAGE"
	CodeInvalidColor       = "INVALID_COLOR"
	CodeMoveOutOfRange     = "MOVE_OUT_OF_RANGE"
	CodeCellOccupied       = "CELL_OCCUPIED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodeUsernameTaken      = "USERNAME_TAKEN"
	CodeUsernamesExhausted = "USERNAMES_EXHAUSTED"
	CodeRoomNotFound       = "ROOM_NOT_FOUND"
	CodeRoomFull           = "ROOM_FULL"
	CodeNotInRoom          = "NOT_IN_ROOM"
	CodeAlreadyInOtherRoom = "ALREADY_IN_OTHER_ROOM"
	CodeNotOwner           = "NOT_OWNER"
	CodeConfigNotSet       = "CONFIG_NOT_SET"
	CodeConfigLocked       = "CONFIG_LOCKED"
	CodeConfigNotLocked    = "CONFIG_NOT_LOCKED"
	CodeChangesExhausted   = "CHANGES_EXHAUSTED"
	CodeNotReady           = "NOT_READY"
	CodeNotEnoughPlayers   = "NOT_ENOUGH_PLAYERS"
	CodeNotYourTurn        = "NOT_YOUR_TURN"
	CodeGameOver           = "GAME_OVER"
	CodeGameNotOver        = "GAME_NOT_OVER"
	CodeGameStarted        = "GAME_STARTED"
	CodeNoPendingMove      = "NO_PENDING_MOVE"
	CodeStepInProgress     = "STEP_IN_PROGRESS"
	CodeStaleProposal      = "STALE_PROPOSAL"
	CodeNoMoveProposed     = "NO_MOVE_PROPOSED"
	CodeOracleFailed       = "ORACLE_FAILED"
	CodeJobNotFound        = "JOB_NOT_FOUND"
	CodeJobRunning         = "JOB_RUNNING"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with a code and message
type httpError struct {
	status  int
	code    string
	message string
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.message
}

// mapping pairs a sentinel with its status and code. Order matters: the
// first match wins.
var mapping = []struct {
	target error
	status int
	code   string
}{
	// Validation
	{model.ErrInvalidUsername, http.StatusBadRequest, CodeInvalidUsername},
	{model.ErrInvalidAIConfig, http.StatusBadRequest, CodeInvalidAIConfig},
	{model.ErrInvalidMessage, http.StatusBadRequest, CodeInvalidMessage},
	{model.ErrInvalidColor, http.StatusBadRequest, CodeInvalidColor},
	{model.ErrMoveOutOfRange, http.StatusBadRequest, CodeMoveOutOfRange},
	{model.ErrCellOccupied, http.StatusConflict, CodeCellOccupied},

	// Resources
	{model.ErrSessionNotFound, http.StatusUnauthorized, CodeSessionNotFound},
	{model.ErrRoomNotFound, http.StatusNotFound, CodeRoomNotFound},
	{model.ErrJobNotFound, http.StatusNotFound, CodeJobNotFound},

	// Identity
	{model.ErrUsernameTaken, http.StatusConflict, CodeUsernameTaken},
	{model.ErrUsernameSpaceExhausted, http.StatusServiceUnavailable, CodeUsernamesExhausted},

	// Membership
	{model.ErrRoomFull, http.StatusConflict, CodeRoomFull},
	{model.ErrNotInRoom, http.StatusForbidden, CodeNotInRoom},
	{model.ErrAlreadyInOtherRoom, http.StatusConflict, CodeAlreadyInOtherRoom},
	{model.ErrNotOwner, http.StatusForbidden, CodeNotOwner},

	// Negotiation
	{model.ErrConfigNotSet, http.StatusConflict, CodeConfigNotSet},
	{model.ErrConfigLocked, http.StatusConflict, CodeConfigLocked},
	{model.ErrConfigNotLocked, http.StatusConflict, CodeConfigNotLocked},
	{model.ErrChangesExhausted, http.StatusConflict, CodeChangesExhausted},
	{model.ErrNotReady, http.StatusConflict, CodeNotReady},

	// Match
	{model.ErrNotEnoughPlayers, http.StatusConflict, CodeNotEnoughPlayers},
	{model.ErrNotYourTurn, http.StatusForbidden, CodeNotYourTurn},
	{model.ErrGameOver, http.StatusConflict, CodeGameOver},
	{model.ErrGameNotOver, http.StatusConflict, CodeGameNotOver},
	{model.ErrGameStarted, http.StatusConflict, CodeGameStarted},
	{model.ErrNoPendingMove, http.StatusConflict, CodeNoPendingMove},
	{model.ErrStepInProgress, http.StatusConflict, CodeStepInProgress},
	{model.ErrStaleProposal, http.StatusConflict, CodeStaleProposal},
	{model.ErrNoMoveProposed, http.StatusBadGateway, CodeNoMoveProposed},
	{model.ErrOracleFailed, http.StatusBadGateway, CodeOracleFailed},

	// Autoplay
	{model.ErrJobRunning, http.StatusConflict, CodeJobRunning},
	{model.ErrRetriesExhausted, http.StatusBadGateway, CodeOracleFailed},
}

// WriteError writes a failure envelope and returns the status it used
func WriteError(w http.ResponseWriter, err error) int {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Code: he.code, Message: he.message})
	return he.status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return &httpError{http.StatusBadRequest, CodeInvalidRequest, describeValidation(validationErrs)}
	}

	for _, m := range mapping {
		if errors.Is(err, m.target) {
			return &httpError{m.status, m.code, err.Error()}
		}
	}

	return &httpError{http.StatusInternalServerError, CodeInternalError, "Internal server error"}
}

func describeValidation(errs validator.ValidationErrors) string {
	fields := make([]string, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, fe.Field()+" failed "+fe.Tag())
	}
	return "invalid request: " + strings.Join(fields, ", ")
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, CodeInvalidRequest, message}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, CodeUnauthorized, "Authentication required"}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, CodeInternalError, "Internal server error"}
}
