package response

import (
	"strings"
	"time"

	"github.com/mcoot/gomoku-arena/internal/model"
	"github.com/mcoot/gomoku-arena/internal/services/autoplay"
	"github.com/mcoot/gomoku-arena/internal/services/match"
)

// Login is the response for POST /auth/login
type Login struct {
	Envelope
	SessionID string `json:"session_id"`
	Username  string `json:"username"`
}

// SuggestUsername is the response for GET /auth/suggest_username
type SuggestUsername struct {
	Envelope
	Username string `json:"username"`
}

// UpdateUsername is the response for POST /auth/update_username. Message is
// set when the requested name was adjusted.
type UpdateUsername struct {
	Envelope
	Username string `json:"username"`
	Message  string `json:"message,omitempty"`
}

// CleanupUsers is the response for POST /auth/cleanup_users
type CleanupUsers struct {
	Envelope
	SessionsRemoved  int `json:"sessions_removed"`
	UsernamesRemoved int `json:"usernames_removed"`
}

// Me is the response for GET /auth/me
type Me struct {
	Envelope
	SessionID    string    `json:"session_id"`
	Username     string    `json:"username"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// MeFromModel converts a session
func MeFromModel(s *model.Session) Me {
	return Me{
		Envelope:     OK,
		SessionID:    string(s.ID),
		Username:     s.Username,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
	}
}

// RoomSummary is a room in the listing
type RoomSummary struct {
	RoomID       string    `json:"room_id"`
	Players      []string  `json:"players"`
	PlayerCount  int       `json:"player_count"`
	MaxPlayers   int       `json:"max_players"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	Owner        string    `json:"owner"`
}

// RoomList is the response for GET /rooms
type RoomList struct {
	Envelope
	Rooms []RoomSummary `json:"rooms"`
}

// RoomListFromModel converts room summaries
func RoomListFromModel(summaries []model.RoomSummary) RoomList {
	rooms := make([]RoomSummary, len(summaries))
	for i, s := range summaries {
		rooms[i] = RoomSummary{
			RoomID:       string(s.ID),
			Players:      s.Players,
			PlayerCount:  len(s.Players),
			MaxPlayers:   model.MaxPlayers,
			CreatedAt:    s.CreatedAt,
			LastActivity: s.LastActivity,
			Owner:        s.Owner,
		}
	}
	return RoomList{Envelope: OK, Rooms: rooms}
}

// CreateRoom is the response for POST /rooms
type CreateRoom struct {
	Envelope
	RoomID        string `json:"room_id"`
	AlreadyInRoom bool   `json:"already_in_room"`
}

// JoinRoom is the response for POST /rooms/{id}/join
type JoinRoom struct {
	Envelope
	RoomID string `json:"room_id"`
}

// AIConfig is a player's oracle configuration with the key masked
type AIConfig struct {
	URL          string `json:"url"`
	Key          string `json:"key"`
	Model        string `json:"model"`
	CustomPrompt string `json:"custom_prompt"`
}

// AIConfigFromModel converts and masks an AI config
func AIConfigFromModel(c model.AIConfig) AIConfig {
	return AIConfig{
		URL:          c.URL,
		Key:          MaskKey(c.Key),
		Model:        c.Model,
		CustomPrompt: c.CustomPrompt,
	}
}

// MaskKey hides all but the last four characters of an API key
func MaskKey(key string) string {
	const visible = 4
	runes := []rune(key)
	if len(runes) <= visible {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-visible) + string(runes[len(runes)-visible:])
}

// Room is the full view of a room
type Room struct {
	RoomID            string              `json:"room_id"`
	Owner             string              `json:"owner"`
	OwnerColor        string              `json:"owner_color"`
	Players           []string            `json:"players"`
	MaxPlayers        int                 `json:"max_players"`
	Board             [][]int             `json:"board"`
	CurrentPlayer     model.Stone         `json:"current_player"`
	AIConfigs         map[string]AIConfig `json:"ai_configs"`
	ReadyStatus       map[string]bool     `json:"ready_status"`
	ConfigLocked      map[string]bool     `json:"config_locked"`
	ConfigChangesLeft map[string]int      `json:"config_changes_left"`
	PendingMove       *model.Position     `json:"pending_move"`
	CanConfirm        bool                `json:"can_confirm"`
	Error             string              `json:"error,omitempty"`
	Outcome           model.Outcome       `json:"outcome"`
	Winner            model.Stone         `json:"winner"`
	Moves             []model.Move        `json:"moves"`
	Logs              []string            `json:"logs"`
	Messages          []model.ChatMessage `json:"messages"`
	Stepping          bool                `json:"stepping"`
	CreatedAt         time.Time           `json:"created_at"`
	LastActivity      time.Time           `json:"last_activity"`
}

// RoomFromModel converts a room. AI keys are masked.
func RoomFromModel(r *model.Room) Room {
	configs := make(map[string]AIConfig, len(r.AIConfigs))
	for username, c := range r.AIConfigs {
		configs[username] = AIConfigFromModel(c)
	}
	return Room{
		RoomID:            string(r.ID),
		Owner:             r.Owner,
		OwnerColor:        r.OwnerColor.String(),
		Players:           r.Players,
		MaxPlayers:        model.MaxPlayers,
		Board:             r.Board.Rows(),
		CurrentPlayer:     r.CurrentPlayer,
		AIConfigs:         configs,
		ReadyStatus:       r.ReadyStatus,
		ConfigLocked:      r.ConfigLocked,
		ConfigChangesLeft: r.ConfigChangesLeft,
		PendingMove:       r.PendingMove,
		CanConfirm:        r.CanConfirm,
		Error:             r.Error,
		Outcome:           r.Outcome,
		Winner:            r.Winner,
		Moves:             r.Moves,
		Logs:              r.Logs,
		Messages:          r.Messages,
		Stepping:          r.StepStartedAt != nil,
		CreatedAt:         r.CreatedAt,
		LastActivity:      r.LastActivity,
	}
}

// GetRoom is the response for GET /rooms/{id}
type GetRoom struct {
	Envelope
	Room Room `json:"room"`
}

// Step is the response for POST /rooms/{id}/step
type Step struct {
	Envelope
	PendingMove model.Position `json:"pending_move"`
}

// ConfirmMove is the response for POST /rooms/{id}/confirm_move
type ConfirmMove struct {
	Envelope
	Move          model.Move    `json:"move"`
	Outcome       model.Outcome `json:"outcome"`
	Winner        model.Stone   `json:"winner"`
	CurrentPlayer model.Stone   `json:"current_player"`
}

// ConfirmMoveFromResult converts a confirm result
func ConfirmMoveFromResult(r match.ConfirmResult) ConfirmMove {
	return ConfirmMove{
		Envelope:      OK,
		Move:          r.Move,
		Outcome:       r.Outcome,
		Winner:        r.Winner,
		CurrentPlayer: r.CurrentPlayer,
	}
}

// SendMessage is the response for POST /rooms/{id}/messages
type SendMessage struct {
	Envelope
	Message model.ChatMessage `json:"message"`
}

// Job is an autostep job
type Job struct {
	ID          string          `json:"id"`
	RoomID      string          `json:"room_id"`
	Username    string          `json:"username"`
	AutoConfirm bool            `json:"auto_confirm"`
	State       string          `json:"state"`
	Attempts    int             `json:"attempts"`
	LastError   string          `json:"last_error,omitempty"`
	Move        *model.Position `json:"move,omitempty"`
	Confirmed   bool            `json:"confirmed"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
}

// JobResponse wraps a job
type JobResponse struct {
	Envelope
	Job Job `json:"job"`
}

// JobFromModel converts an autostep job
func JobFromModel(j autoplay.Job) JobResponse {
	return JobResponse{
		Envelope: OK,
		Job: Job{
			ID:          j.ID,
			RoomID:      string(j.RoomID),
			Username:    j.Username,
			AutoConfirm: j.AutoConfirm,
			State:       string(j.State),
			Attempts:    j.Attempts,
			LastError:   j.LastError,
			Move:        j.Move,
			Confirmed:   j.Confirmed,
			StartedAt:   j.StartedAt,
			FinishedAt:  j.FinishedAt,
		},
	}
}

// Health is the response for GET /health
type Health struct {
	Envelope
	Status string `json:"status"`
}
