package mocks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mcoot/gomoku-arena/internal/model"
	"github.com/mcoot/gomoku-arena/internal/services/oracle"
)

// ErrNoScriptedResponse is returned when MockOracle has nothing queued
var ErrNoScriptedResponse = errors.New("mock oracle has no scripted response")

// OracleResponse is one scripted answer of MockOracle
type OracleResponse struct {
	Move model.Position
	Err  error
}

// MockOracle is a scripted implementation of Oracle for testing
type MockOracle struct {
	mu        sync.Mutex
	responses []OracleResponse
	requests  []oracle.Request

	// Gate, when set, blocks each call until it receives a value or the
	// context ends
	Gate chan struct{}
	// Called, when set, is signalled as each call starts
	Called chan struct{}
}

// Ensure MockOracle implements Oracle
var _ oracle.Oracle = (*MockOracle)(nil)

// NewMockOracle creates a new MockOracle
func NewMockOracle() *MockOracle {
	return &MockOracle{}
}

// QueueMove scripts a successful proposal
func (o *MockOracle) QueueMove(x, y int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.responses = append(o.responses, OracleResponse{Move: model.Position{X: x, Y: y}})
}

// QueueError scripts a failed proposal
func (o *MockOracle) QueueError(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.responses = append(o.responses, OracleResponse{Err: err})
}

// Requests returns a copy of every request received so far
func (o *MockOracle) Requests() []oracle.Request {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]oracle.Request(nil), o.requests...)
}

// Propose returns the next scripted response
func (o *MockOracle) Propose(ctx context.Context, req oracle.Request) (oracle.Proposal, error) {
	if o.Called != nil {
		o.Called <- struct{}{}
	}
	if o.Gate != nil {
		select {
		case <-o.Gate:
		case <-ctx.Done():
			return oracle.Proposal{}, ctx.Err()
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, req)

	if len(o.responses) == 0 {
		return oracle.Proposal{}, ErrNoScriptedResponse
	}
	resp := o.responses[0]
	o.responses = o.responses[1:]
	if resp.Err != nil {
		return oracle.Proposal{}, resp.Err
	}
	return oracle.Proposal{
		Move: resp.Move,
		Log:  fmt.Sprintf("AI player %d chose (%d,%d)", int(req.Player), resp.Move.X, resp.Move.Y),
	}, nil
}
