package oracle

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mcoot/gomoku-arena/internal/model"
)

const systemPrompt = "You are a strong Gomoku player. You answer with a single JSON object and nothing else."

// BuildPrompt renders the board and the player's instructions for an oracle
func BuildPrompt(req Request) string {
	var sb strings.Builder

	size := len(req.Board)
	fmt.Fprintf(&sb, "You are playing Gomoku on a %dx%d board. Five stones in a row wins.\n", size, size)
	sb.WriteString("Cells: 0 is empty, 1 is black, 2 is white. The board is indexed board[x][y]:\n")
	for x, row := range req.Board {
		cells := make([]string, len(row))
		for y, v := range row {
			cells[y] = strconv.Itoa(v)
		}
		fmt.Fprintf(&sb, "x=%2d: %s\n", x, strings.Join(cells, " "))
	}
	fmt.Fprintf(&sb, "You are player %d (%s).\n", int(req.Player), req.Player)
	fmt.Fprintf(&sb, "Choose an empty cell with 0 <= x, y <= %d.\n", size-1)

	if req.PriorError != "" {
		fmt.Fprintf(&sb, "Your previous answer was rejected: %s. Pick a different, empty cell.\n", req.PriorError)
	}
	if prompt := strings.TrimSpace(req.Config.CustomPrompt); prompt != "" {
		fmt.Fprintf(&sb, "Additional instructions from your player: %s\n", prompt)
	}

	sb.WriteString(`Respond only with JSON of the form {"x": <int>, "y": <int>}.`)
	return sb.String()
}

var (
	jsonObjectPattern = regexp.MustCompile(`\{[^{}]*\}`)
	tuplePattern      = regexp.MustCompile(`\(?\s*(-?\d+)\s*,\s*(-?\d+)\s*\)?`)
)

type moveJSON struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

// ParseMove extracts a move from an oracle reply. It accepts a JSON object
// with x and y, possibly wrapped in prose or a code fence, or a bare "(x,y)"
// pair. Range checks are left to the caller.
func ParseMove(reply string) (model.Position, error) {
	for _, candidate := range jsonObjectPattern.FindAllString(reply, -1) {
		var m moveJSON
		if err := json.Unmarshal([]byte(candidate), &m); err != nil {
			continue
		}
		if m.X != nil && m.Y != nil {
			return model.Position{X: *m.X, Y: *m.Y}, nil
		}
	}

	if match := tuplePattern.FindStringSubmatch(reply); match != nil {
		x, errX := strconv.Atoi(match[1])
		y, errY := strconv.Atoi(match[2])
		if errX == nil && errY == nil {
			return model.Position{X: x, Y: y}, nil
		}
	}

	return model.Position{}, fmt.Errorf("%w: could not read a move from %q", model.ErrNoMoveProposed, truncate(reply, 80))
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
