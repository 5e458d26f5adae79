package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mcoot/gomoku-arena/internal/model"
)

// Request is everything an oracle is shown when asked for a move
type Request struct {
	Board      [][]int // Board[x][y]: 0 empty, 1 black, 2 white
	Player     model.Stone
	PriorError string // Feedback about the previous failed proposal, if any
	Config     model.AIConfig
}

// Proposal is a candidate move with a human readable log line
type Proposal struct {
	Move model.Position
	Log  string
}

// Oracle produces candidate moves for a player
type Oracle interface {
	Propose(ctx context.Context, req Request) (Proposal, error)
}

// ErrTimeout is returned when an oracle does not answer within the host
// timeout
var ErrTimeout = errors.New("move oracle timed out")

// timeoutOracle bounds every call to the wrapped oracle
type timeoutOracle struct {
	next    Oracle
	timeout time.Duration
}

// WithTimeout wraps an oracle so that each call is cancelled after timeout
func WithTimeout(next Oracle, timeout time.Duration) Oracle {
	if timeout <= 0 {
		return next
	}
	return &timeoutOracle{next: next, timeout: timeout}
}

// Propose calls the wrapped oracle under a deadline
func (o *timeoutOracle) Propose(ctx context.Context, req Request) (Proposal, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	proposal, err := o.next.Propose(ctx, req)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Proposal{}, fmt.Errorf("%w after %s", ErrTimeout, o.timeout)
	}
	return proposal, err
}
