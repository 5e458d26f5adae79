package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Membership events
	EventPlayerJoined  EventType = "player_joined"
	EventPlayerLeft    EventType = "player_left"
	EventOwnerChanged  EventType = "owner_changed"
	EventPlayerRenamed EventType = "player_renamed"
	EventRoomDeleted   EventType = "room_deleted"
	EventColorChanged  EventType = "color_changed"
	EventMessageSent   EventType = "message_sent"

	// Negotiation events
	EventConfigUpdated EventType = "config_updated"
	EventConfigLocked  EventType = "config_locked"
	EventReadyChanged  EventType = "ready_changed"

	// Game events
	EventMoveProposed   EventType = "move_proposed"
	EventProposalFailed EventType = "proposal_failed"
	EventMoveConfirmed  EventType = "move_confirmed"
	EventGameOver       EventType = "game_over"
	EventRematch        EventType = "rematch"
)

// Event is the base structure for all room events
type Event struct {
	Type      EventType
	Timestamp time.Time
	RoomID    RoomID
	Username  string // The user who triggered or is affected
	Payload   any    // Type-specific data
}

// PlayerJoinedPayload contains data for player joined events
type PlayerJoinedPayload struct {
	Players []string `json:"players"`
}

// PlayerLeftPayload contains data for player left events
type PlayerLeftPayload struct {
	Players     []string `json:"players"`
	RoomDeleted bool     `json:"room_deleted"`
}

// OwnerChangedPayload contains data for owner changed events
type OwnerChangedPayload struct {
	OldOwner string `json:"old_owner"`
	NewOwner string `json:"new_owner"`
}

// PlayerRenamedPayload contains data for player renamed events
type PlayerRenamedPayload struct {
	OldUsername string   `json:"old_username"`
	NewUsername string   `json:"new_username"`
	Owner       string   `json:"owner"`
	Players     []string `json:"players"`
}

// ColorChangedPayload contains data for color changed events
type ColorChangedPayload struct {
	OwnerColor string   `json:"owner_color"`
	Players    []string `json:"players"`
}

// MessageSentPayload contains data for message sent events
type MessageSentPayload struct {
	Message ChatMessage `json:"message"`
}

// ConfigUpdatedPayload contains data for config updated events
type ConfigUpdatedPayload struct {
	ChangesLeft int `json:"changes_left"`
}

// ConfigLockedPayload contains data for config locked events
type ConfigLockedPayload struct {
	Locked      bool `json:"locked"`
	ChangesLeft int  `json:"changes_left"`
}

// ReadyChangedPayload contains data for ready changed events
type ReadyChangedPayload struct {
	Ready       bool `json:"ready"`
	ChangesLeft int  `json:"changes_left"`
}

// MoveProposedPayload contains data for move proposed events
type MoveProposedPayload struct {
	Move   Position `json:"move"`
	Player Stone    `json:"player"`
}

// ProposalFailedPayload contains data for proposal failed events
type ProposalFailedPayload struct {
	Error string `json:"error"`
}

// MoveConfirmedPayload contains data for move confirmed events
type MoveConfirmedPayload struct {
	Move          Move  `json:"move"`
	CurrentPlayer Stone `json:"current_player"`
}

// GameOverPayload contains data for game over events
type GameOverPayload struct {
	Outcome Outcome `json:"outcome"`
	Winner  Stone   `json:"winner"`
	Moves   int     `json:"moves"`
}

// RematchPayload contains data for rematch events
type RematchPayload struct {
	Players []string `json:"players"`
}
