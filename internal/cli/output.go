package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// output returns the formatter for a command
func output(cmd *cobra.Command) *Output {
	return NewOutput(cfg.Output, cmd.OutOrStdout())
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case LoginResult:
		fmt.Fprintf(o.w, "Logged in as %s\nSession: %s\n", v.Username, v.SessionID)
	case MeResult:
		fmt.Fprintf(o.w, "Username: %s\nSession: %s\nSince: %s\nLast active: %s\n",
			v.Username, v.SessionID, v.CreatedAt.Format(time.RFC3339), v.LastActivity.Format(time.RFC3339))
	case CreateRoomResult:
		if v.AlreadyInRoom {
			fmt.Fprintf(o.w, "Already in room %s\n", v.RoomID)
		} else {
			fmt.Fprintf(o.w, "Created room %s\n", v.RoomID)
		}
	case RoomList:
		o.printRoomList(v)
	case Room:
		o.printRoom(v)
	case ConfirmResult:
		o.printConfirm(v)
	case Job:
		o.printJob(v)
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// LoginResult is the response of auth login
type LoginResult struct {
	SessionID string `json:"session_id"`
	Username  string `json:"username"`
}

// MeResult is the response of auth me
type MeResult struct {
	SessionID    string    `json:"session_id"`
	Username     string    `json:"username"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// CreateRoomResult is the response of room create
type CreateRoomResult struct {
	RoomID        string `json:"room_id"`
	AlreadyInRoom bool   `json:"already_in_room"`
}

// RoomSummary is one room in a listing
type RoomSummary struct {
	RoomID       string    `json:"room_id"`
	Players      []string  `json:"players"`
	PlayerCount  int       `json:"player_count"`
	MaxPlayers   int       `json:"max_players"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	Owner        string    `json:"owner"`
}

// RoomList is the response of room list
type RoomList struct {
	Rooms []RoomSummary `json:"rooms"`
}

// Position is a board cell
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Move is a committed stone
type Move struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Player int `json:"player"`
}

// ChatMessage is a room chat entry
type ChatMessage struct {
	Username string    `json:"username"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sent_at"`
}

// AIConfig is a player's masked AI configuration
type AIConfig struct {
	URL          string `json:"url"`
	Key          string `json:"key"`
	Model        string `json:"model"`
	CustomPrompt string `json:"custom_prompt"`
}

// Room is the full view of a room
type Room struct {
	RoomID            string              `json:"room_id"`
	Owner             string              `json:"owner"`
	OwnerColor        string              `json:"owner_color"`
	Players           []string            `json:"players"`
	Board             [][]int             `json:"board"`
	CurrentPlayer     int                 `json:"current_player"`
	AIConfigs         map[string]AIConfig `json:"ai_configs"`
	ReadyStatus       map[string]bool     `json:"ready_status"`
	ConfigLocked      map[string]bool     `json:"config_locked"`
	ConfigChangesLeft map[string]int      `json:"config_changes_left"`
	PendingMove       *Position           `json:"pending_move"`
	CanConfirm        bool                `json:"can_confirm"`
	Error             string              `json:"error"`
	Outcome           string              `json:"outcome"`
	Winner            int                 `json:"winner"`
	Moves             []Move              `json:"moves"`
	Logs              []string            `json:"logs"`
	Messages          []ChatMessage       `json:"messages"`
	Stepping          bool                `json:"stepping"`
}

// ConfirmResult is the response of match confirm
type ConfirmResult struct {
	Move          Move   `json:"move"`
	Outcome       string `json:"outcome"`
	Winner        int    `json:"winner"`
	CurrentPlayer int    `json:"current_player"`
}

// Job is an autostep job
type Job struct {
	ID          string     `json:"id"`
	RoomID      string     `json:"room_id"`
	Username    string     `json:"username"`
	AutoConfirm bool       `json:"auto_confirm"`
	State       string     `json:"state"`
	Attempts    int        `json:"attempts"`
	LastError   string     `json:"last_error"`
	Move        *Position  `json:"move"`
	Confirmed   bool       `json:"confirmed"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at"`
}

// HealthResult is the response of health
type HealthResult struct {
	Status string `json:"status"`
}

func stoneName(stone int) string {
	switch stone {
	case 1:
		return "black"
	case 2:
		return "white"
	default:
		return "none"
	}
}

func (o *Output) printRoomList(l RoomList) {
	if len(l.Rooms) == 0 {
		fmt.Fprintln(o.w, "No rooms")
		return
	}
	for _, r := range l.Rooms {
		fmt.Fprintf(o.w, "%s  %d/%d  owner=%s  players=%s\n",
			r.RoomID, r.PlayerCount, r.MaxPlayers, r.Owner, strings.Join(r.Players, ","))
	}
}

func (o *Output) printRoom(r Room) {
	fmt.Fprintf(o.w, "Room: %s\n", r.RoomID)
	fmt.Fprintf(o.w, "Owner: %s (plays %s)\n", r.Owner, r.OwnerColor)
	for i, p := range r.Players {
		locked := "unlocked"
		if r.ConfigLocked[p] {
			locked = "locked"
		}
		ready := ""
		if r.ReadyStatus[p] {
			ready = ", ready"
		}
		model := "no AI"
		if c, ok := r.AIConfigs[p]; ok {
			model = c.Model
		}
		fmt.Fprintf(o.w, "  %s: %s [%s, %s%s, %d changes left]\n",
			stoneName(i+1), p, model, locked, ready, r.ConfigChangesLeft[p])
	}

	switch r.Outcome {
	case "won":
		fmt.Fprintf(o.w, "Result: %s wins after %d moves\n", stoneName(r.Winner), len(r.Moves))
	case "draw":
		fmt.Fprintf(o.w, "Result: draw after %d moves\n", len(r.Moves))
	default:
		fmt.Fprintf(o.w, "To move: %s (move %d)\n", stoneName(r.CurrentPlayer), len(r.Moves)+1)
	}
	if r.PendingMove != nil {
		fmt.Fprintf(o.w, "Pending: (%d,%d), waiting for confirmation\n", r.PendingMove.X, r.PendingMove.Y)
	}
	if r.Stepping {
		fmt.Fprintln(o.w, "AI is thinking...")
	}
	if r.Error != "" {
		fmt.Fprintf(o.w, "Last error: %s\n", r.Error)
	}

	fmt.Fprintln(o.w)
	o.printBoard(r.Board, r.PendingMove)

	if len(r.Messages) > 0 {
		fmt.Fprintln(o.w, "\nChat:")
		for _, m := range r.Messages {
			fmt.Fprintf(o.w, "  [%s] %s: %s\n", m.SentAt.Format("15:04"), m.Username, m.Message)
		}
	}
}

// printBoard renders x across and y down. The pending cell shows as '*'.
func (o *Output) printBoard(board [][]int, pending *Position) {
	size := len(board)
	if size == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString("   ")
	for x := 0; x < size; x++ {
		fmt.Fprintf(&sb, "%2d", x)
	}
	sb.WriteByte('\n')

	for y := 0; y < size; y++ {
		fmt.Fprintf(&sb, "%2d ", y)
		for x := 0; x < size; x++ {
			cell := "."
			switch {
			case pending != nil && pending.X == x && pending.Y == y:
				cell = "*"
			case board[x][y] == 1:
				cell = "X"
			case board[x][y] == 2:
				cell = "O"
			}
			sb.WriteString(" " + cell)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprint(o.w, sb.String())
}

func (o *Output) printConfirm(c ConfirmResult) {
	fmt.Fprintf(o.w, "Placed %s at (%d,%d)\n", stoneName(c.Move.Player), c.Move.X, c.Move.Y)
	switch c.Outcome {
	case "won":
		fmt.Fprintf(o.w, "%s wins!\n", stoneName(c.Winner))
	case "draw":
		fmt.Fprintln(o.w, "The board is full, draw")
	default:
		fmt.Fprintf(o.w, "Next: %s\n", stoneName(c.CurrentPlayer))
	}
}

func (o *Output) printJob(j Job) {
	fmt.Fprintf(o.w, "Job: %s (%s)\n", j.ID, j.State)
	fmt.Fprintf(o.w, "Room: %s, player: %s\n", j.RoomID, j.Username)
	fmt.Fprintf(o.w, "Attempts: %d\n", j.Attempts)
	if j.Move != nil {
		status := "proposed"
		if j.Confirmed {
			status = "confirmed"
		}
		fmt.Fprintf(o.w, "Move: (%d,%d) %s\n", j.Move.X, j.Move.Y, status)
	}
	if j.LastError != "" {
		fmt.Fprintf(o.w, "Last error: %s\n", j.LastError)
	}
}

