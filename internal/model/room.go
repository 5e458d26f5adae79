package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxPlayers is the seat count of a room
	MaxPlayers = 2
	// MaxMessages is the length of the chat ring buffer
	MaxMessages = 10
	// MaxMessageLength bounds a single chat message
	MaxMessageLength = 500
	// MaxLogEntries bounds the per-room battle log
	MaxLogEntries = 200
	// ConfigChangeBudget is the number of post-ready edits granted on ready
	ConfigChangeBudget = 3
	// DefaultAIModel is used when a config names no model
	DefaultAIModel = "gpt-3.5-turbo"
	// MaxCustomPromptLength bounds the player's extra prompt text
	MaxCustomPromptLength = 200
)

// RoomID uniquely identifies a room
type RoomID string

// AIConfig is a player's move oracle configuration
type AIConfig struct {
	URL          string // Empty means the provider default
	Key          string
	Model        string
	CustomPrompt string
}

// Normalize fills defaults and trims whitespace
func (c AIConfig) Normalize() AIConfig {
	c.URL = strings.TrimSpace(c.URL)
	c.Key = strings.TrimSpace(c.Key)
	c.Model = strings.TrimSpace(c.Model)
	if c.Model == "" {
		c.Model = DefaultAIModel
	}
	return c
}

// Validate checks the config for presence of required fields
func (c AIConfig) Validate() error {
	if strings.TrimSpace(c.Key) == "" {
		return ErrInvalidAIConfig
	}
	if utf8.RuneCountInString(c.CustomPrompt) > MaxCustomPromptLength {
		return ErrInvalidAIConfig
	}
	return nil
}

// Move is a committed stone placement
type Move struct {
	X      int   `json:"x"`
	Y      int   `json:"y"`
	Player Stone `json:"player"`
}

// ChatMessage is a single room chat entry
type ChatMessage struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sent_at"`
}

// Outcome is the result state of the game in a room
type Outcome string

const (
	OutcomeOngoing Outcome = "ongoing"
	OutcomeWon     Outcome = "won"
	OutcomeDraw    Outcome = "draw"
)

// Room is a two-seat match: membership, negotiation state and the game
type Room struct {
	ID      RoomID
	Owner   string
	Players []string // Players[0] plays black once both seats are taken

	// OwnerColor is the seat the owner asked for
	OwnerColor Stone

	Board         *Board
	CurrentPlayer Stone

	AIConfigs         map[string]AIConfig
	ReadyStatus       map[string]bool
	ConfigLocked      map[string]bool
	ConfigChangesLeft map[string]int

	PendingMove *Position
	CanConfirm  bool
	Error       string

	Outcome Outcome
	Winner  Stone // Set when Outcome is OutcomeWon

	Moves    []Move
	Logs     []string
	Messages []ChatMessage

	// StepStartedAt is set while an oracle call for this room is in flight
	StepStartedAt *time.Time

	CreatedAt    time.Time
	LastActivity time.Time
}

// NewRoom creates a room with a single seated owner
func NewRoom(id RoomID, owner string, boardSize int, now time.Time) *Room {
	return &Room{
		ID:                id,
		Owner:             owner,
		Players:           []string{owner},
		OwnerColor:        StoneBlack,
		Board:             NewBoard(boardSize),
		CurrentPlayer:     StoneBlack,
		AIConfigs:         make(map[string]AIConfig),
		ReadyStatus:       make(map[string]bool),
		ConfigLocked:      make(map[string]bool),
		ConfigChangesLeft: make(map[string]int),
		Outcome:           OutcomeOngoing,
		Moves:             []Move{},
		Logs:              []string{},
		Messages:          []ChatMessage{},
		CreatedAt:         now,
		LastActivity:      now,
	}
}

// HasPlayer returns true if the username holds a seat
func (r *Room) HasPlayer(username string) bool {
	for _, p := range r.Players {
		if p == username {
			return true
		}
	}
	return false
}

// IsFull returns true when every seat is taken
func (r *Room) IsFull() bool {
	return len(r.Players) >= MaxPlayers
}

// IsEmpty returns true when no one is seated
func (r *Room) IsEmpty() bool {
	return len(r.Players) == 0
}

// StoneOf returns the stone a seated user plays, or StoneEmpty
func (r *Room) StoneOf(username string) Stone {
	for i, p := range r.Players {
		if p == username {
			return Stone(i + 1)
		}
	}
	return StoneEmpty
}

// PlayerFor returns the username seated on the given stone, or ""
func (r *Room) PlayerFor(stone Stone) string {
	idx := int(stone) - 1
	if idx < 0 || idx >= len(r.Players) {
		return ""
	}
	return r.Players[idx]
}

// CurrentUsername returns the player whose turn it is
func (r *Room) CurrentUsername() string {
	return r.PlayerFor(r.CurrentPlayer)
}

// IsDecided returns true once the game has a winner or is drawn
func (r *Room) IsDecided() bool {
	return r.Outcome == OutcomeWon || r.Outcome == OutcomeDraw
}

// HasStarted returns true once any move has been committed
func (r *Room) HasStarted() bool {
	return len(r.Moves) > 0
}

// AddPlayer seats a user, honouring the owner's colour choice
func (r *Room) AddPlayer(username string) {
	if r.OwnerColor == StoneWhite && r.HasPlayer(r.Owner) {
		r.Players = append([]string{username}, r.Players...)
		return
	}
	r.Players = append(r.Players, username)
}

// RemovePlayer unseats a user and drops their negotiation state. The
// remaining player, if any, becomes owner and takes the black seat.
func (r *Room) RemovePlayer(username string) {
	remaining := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		if p != username {
			remaining = append(remaining, p)
		}
	}
	r.Players = remaining

	delete(r.AIConfigs, username)
	delete(r.ReadyStatus, username)
	delete(r.ConfigLocked, username)
	delete(r.ConfigChangesLeft, username)

	r.PendingMove = nil
	r.CanConfirm = false

	if len(r.Players) > 0 && r.Owner == username {
		r.Owner = r.Players[0]
		r.OwnerColor = StoneBlack
	}
}

// RenamePlayer moves a seat and its negotiation state to a new username
func (r *Room) RenamePlayer(oldName, newName string) {
	for i, p := range r.Players {
		if p == oldName {
			r.Players[i] = newName
		}
	}
	if r.Owner == oldName {
		r.Owner = newName
	}

	if cfg, ok := r.AIConfigs[oldName]; ok {
		r.AIConfigs[newName] = cfg
		delete(r.AIConfigs, oldName)
	}
	if ready, ok := r.ReadyStatus[oldName]; ok {
		r.ReadyStatus[newName] = ready
		delete(r.ReadyStatus, oldName)
	}
	if locked, ok := r.ConfigLocked[oldName]; ok {
		r.ConfigLocked[newName] = locked
		delete(r.ConfigLocked, oldName)
	}
	if left, ok := r.ConfigChangesLeft[oldName]; ok {
		r.ConfigChangesLeft[newName] = left
		delete(r.ConfigChangesLeft, oldName)
	}
}

// ApplyOwnerColor reorders the seats so the owner plays the chosen colour
func (r *Room) ApplyOwnerColor(color Stone) {
	r.OwnerColor = color
	if len(r.Players) != MaxPlayers {
		return
	}
	if r.StoneOf(r.Owner) != color {
		r.Players[0], r.Players[1] = r.Players[1], r.Players[0]
	}
}

// AppendLog adds a battle log line, keeping the last MaxLogEntries
func (r *Room) AppendLog(line string) {
	r.Logs = append(r.Logs, line)
	if len(r.Logs) > MaxLogEntries {
		r.Logs = r.Logs[len(r.Logs)-MaxLogEntries:]
	}
}

// AppendMessage adds a chat message, keeping the last MaxMessages
func (r *Room) AppendMessage(msg ChatMessage) {
	r.Messages = append(r.Messages, msg)
	if len(r.Messages) > MaxMessages {
		r.Messages = r.Messages[len(r.Messages)-MaxMessages:]
	}
}

// ResetGame clears the board and game progress, keeping seats and configs
func (r *Room) ResetGame() {
	r.Board = NewBoard(r.Board.Size)
	r.CurrentPlayer = StoneBlack
	r.PendingMove = nil
	r.CanConfirm = false
	r.Error = ""
	r.Outcome = OutcomeOngoing
	r.Winner = StoneEmpty
	r.Moves = []Move{}
	r.StepStartedAt = nil
	for _, p := range r.Players {
		r.ReadyStatus[p] = false
		r.ConfigChangesLeft[p] = 0
	}
}

// Clone returns a deep copy of the room
func (r *Room) Clone() *Room {
	clone := *r
	clone.Players = append([]string(nil), r.Players...)
	if r.Board != nil {
		clone.Board = r.Board.Clone()
	}
	clone.AIConfigs = make(map[string]AIConfig, len(r.AIConfigs))
	for k, v := range r.AIConfigs {
		clone.AIConfigs[k] = v
	}
	clone.ReadyStatus = make(map[string]bool, len(r.ReadyStatus))
	for k, v := range r.ReadyStatus {
		clone.ReadyStatus[k] = v
	}
	clone.ConfigLocked = make(map[string]bool, len(r.ConfigLocked))
	for k, v := range r.ConfigLocked {
		clone.ConfigLocked[k] = v
	}
	clone.ConfigChangesLeft = make(map[string]int, len(r.ConfigChangesLeft))
	for k, v := range r.ConfigChangesLeft {
		clone.ConfigChangesLeft[k] = v
	}
	if r.PendingMove != nil {
		pm := *r.PendingMove
		clone.PendingMove = &pm
	}
	if r.StepStartedAt != nil {
		t := *r.StepStartedAt
		clone.StepStartedAt = &t
	}
	clone.Moves = append([]Move{}, r.Moves...)
	clone.Logs = append([]string{}, r.Logs...)
	clone.Messages = append([]ChatMessage{}, r.Messages...)
	return &clone
}

// RoomSummary is the listing view of a room
type RoomSummary struct {
	ID           RoomID
	Owner        string
	Players      []string
	CreatedAt    time.Time
	LastActivity time.Time
}

// Summary returns the listing view of the room
func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		ID:           r.ID,
		Owner:        r.Owner,
		Players:      append([]string(nil), r.Players...),
		CreatedAt:    r.CreatedAt,
		LastActivity: r.LastActivity,
	}
}
