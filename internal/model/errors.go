package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Validation errors
	ErrInvalidUsername = errors.New("username must be 1-20 letters")
	ErrInvalidAIConfig = errors.New("invalid AI configuration")
	ErrInvalidMessage  = errors.New("invalid chat message")
	ErrInvalidColor    = errors.New("color must be black or white")
	ErrMoveOutOfRange  = errors.New("move is outside the board")
	ErrCellOccupied    = errors.New("cell is already occupied")

	// Session errors
	ErrSessionNotFound        = errors.New("session not found")
	ErrUsernameTaken          = errors.New("username is already taken")
	ErrUsernameSpaceExhausted = errors.New("could not allocate a free username")

	// Room errors
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrNotInRoom          = errors.New("user is not in this room")
	ErrAlreadyInOtherRoom = errors.New("user is already in another room")
	ErrNotOwner           = errors.New("user is not the room owner")

	// Negotiation errors
	ErrConfigNotSet     = errors.New("AI configuration has not been set")
	ErrConfigLocked     = errors.New("AI configuration is locked, unlock it first")
	ErrConfigNotLocked  = errors.New("AI configuration must be locked first")
	ErrChangesExhausted = errors.New("no configuration changes left, lock the configuration again")
	ErrNotReady         = errors.New("both players must be ready before the first move")

	// Match errors
	ErrNotEnoughPlayers = errors.New("room needs two players")
	ErrNotYourTurn      = errors.New("not this player's turn")
	ErrGameOver         = errors.New("game is over")
	ErrGameNotOver      = errors.New("game is still in progress")
	ErrGameStarted      = errors.New("game has already started")
	ErrNoPendingMove    = errors.New("no move is waiting for confirmation")
	ErrStepInProgress   = errors.New("a move is already being generated for this room")
	ErrStaleProposal    = errors.New("room changed while the move was being generated")
	ErrNoMoveProposed   = errors.New("AI returned no valid move")

	// Oracle errors
	ErrOracleFailed = errors.New("move oracle failed")

	// Autoplay errors
	ErrJobNotFound      = errors.New("autostep job not found")
	ErrJobRunning       = errors.New("an autostep job is already running for this player")
	ErrRetriesExhausted = errors.New("autostep gave up after repeated failures")
	ErrJobCancelled     = errors.New("autostep job was cancelled")
)

// OracleError carries the message reported by a move oracle
type OracleError struct {
	Message string
}

// Error implements error
func (e *OracleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrOracleFailed.Error(), e.Message)
}

// Unwrap lets errors.Is match ErrOracleFailed
func (e *OracleError) Unwrap() error {
	return ErrOracleFailed
}

// IsProposalFailure reports whether err is a failed proposal that a later
// step may succeed on
func IsProposalFailure(err error) bool {
	return errors.Is(err, ErrOracleFailed) ||
		errors.Is(err, ErrMoveOutOfRange) ||
		errors.Is(err, ErrCellOccupied) ||
		errors.Is(err, ErrNoMoveProposed) ||
		errors.Is(err, ErrStaleProposal)
}
