package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/gomoku-arena/internal/dependencies/clock"
	"github.com/mcoot/gomoku-arena/internal/model"
	"github.com/mcoot/gomoku-arena/internal/services/oracle"
	"github.com/mcoot/gomoku-arena/internal/services/rooms"
)

// Config holds configuration for the match controller
type Config struct {
	// StepLease is how long an in-flight oracle call blocks other steps in
	// the same room. A step older than this is assumed abandoned.
	StepLease time.Duration
}

// DefaultConfig returns default match configuration
func DefaultConfig() Config {
	return Config{
		StepLease: 2 * time.Minute,
	}
}

// stepSlack covers the room reads and writes around a step's oracle call
const stepSlack = 30 * time.Second

// LeaseFor returns a step lease that outlasts an oracle call bounded by
// oracleTimeout, and is never shorter than the default lease
func LeaseFor(oracleTimeout time.Duration) time.Duration {
	return max(DefaultConfig().StepLease, oracleTimeout+stepSlack)
}

// ConfirmResult describes the room after a committed move
type ConfirmResult struct {
	Move          model.Move
	Outcome       model.Outcome
	Winner        model.Stone
	CurrentPlayer model.Stone
}

// Controller runs the per-room state machine: AI configuration, the ready
// handshake, move proposal and confirmation.
type Controller struct {
	rooms  *rooms.Registry
	oracle oracle.Oracle
	clock  clock.Clock
	cfg    Config
	logger *slog.Logger
}

// NewController creates a new match controller
func NewController(
	rooms *rooms.Registry,
	oracle oracle.Oracle,
	clock clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	if cfg.StepLease == 0 {
		cfg.StepLease = DefaultConfig().StepLease
	}
	return &Controller{
		rooms:  rooms,
		oracle: oracle,
		clock:  clock,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "match-controller")),
	}
}

// SetAIConfig stores the player's oracle configuration. A locked config can
// only be edited after ready, and each such edit spends one change.
func (c *Controller) SetAIConfig(ctx context.Context, id model.RoomID, username string, cfg model.AIConfig) error {
	cfg = cfg.Normalize()

	var changesLeft int
	room, err := c.rooms.WithRoom(ctx, id, func(room *model.Room) error {
		if !room.HasPlayer(username) {
			return model.ErrNotInRoom
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		if room.ConfigLocked[username] {
			if !room.ReadyStatus[username] {
				return model.ErrConfigLocked
			}
			if room.ConfigChangesLeft[username] <= 0 {
				return model.ErrChangesExhausted
			}
			room.ConfigChangesLeft[username]--
		}

		room.AIConfigs[username] = cfg
		changesLeft = room.ConfigChangesLeft[username]
		return nil
	})
	if err != nil {
		return err
	}

	c.rooms.Publish(ctx, room, model.EventConfigUpdated, username, model.ConfigUpdatedPayload{
		ChangesLeft: changesLeft,
	})
	return nil
}

// LockConfig locks or unlocks the player's configuration. Relocking after
// an unlock while ready spends one change unless cancelUnlock is set.
func (c *Controller) LockConfig(ctx context.Context, id model.RoomID, username string, locked, cancelUnlock bool) error {
	var changesLeft int
	room, err := c.rooms.WithRoom(ctx, id, func(room *model.Room) error {
		if !room.HasPlayer(username) {
			return model.ErrNotInRoom
		}
		if _, ok := room.AIConfigs[username]; !ok {
			return model.ErrConfigNotSet
		}

		if locked && room.ReadyStatus[username] && !cancelUnlock {
			if room.ConfigChangesLeft[username] > 0 {
				room.ConfigChangesLeft[username]--
			}
		}
		room.ConfigLocked[username] = locked
		changesLeft = room.ConfigChangesLeft[username]
		return nil
	})
	if err != nil {
		return err
	}

	c.rooms.Publish(ctx, room, model.EventConfigLocked, username, model.ConfigLockedPayload{
		Locked:      locked,
		ChangesLeft: changesLeft,
	})
	return nil
}

// SetReady marks the player ready or not. Ready grants a fresh budget of
// post-ready config changes; unready takes it away.
func (c *Controller) SetReady(ctx context.Context, id model.RoomID, username string, ready bool) error {
	var changesLeft int
	room, err := c.rooms.WithRoom(ctx, id, func(room *model.Room) error {
		if !room.HasPlayer(username) {
			return model.ErrNotInRoom
		}
		if _, ok := room.AIConfigs[username]; !ok {
			return model.ErrConfigNotSet
		}
		if !room.ConfigLocked[username] {
			return model.ErrConfigNotLocked
		}

		room.ReadyStatus[username] = ready
		if ready {
			room.ConfigChangesLeft[username] = model.ConfigChangeBudget
		} else {
			room.ConfigChangesLeft[username] = 0
		}
		changesLeft = room.ConfigChangesLeft[username]
		return nil
	})
	if err != nil {
		return err
	}

	c.rooms.Publish(ctx, room, model.EventReadyChanged, username, model.ReadyChangedPayload{
		Ready:       ready,
		ChangesLeft: changesLeft,
	})
	return nil
}

// stepTicket is what the first phase of a step hands to the oracle call
type stepTicket struct {
	startedAt time.Time
	player    model.Stone
	moves     int
	request   oracle.Request
}

// Step asks the player's oracle for a move and stages it for confirmation.
//
// The room lock is released while the oracle runs. The room records the
// in-flight call so a second step is refused, and the proposal is discarded
// if the room moved on before it arrived.
func (c *Controller) Step(ctx context.Context, id model.RoomID, username string) (model.Position, error) {
	ticket, err := c.beginStep(ctx, id, username)
	if err != nil {
		return model.Position{}, err
	}

	c.logger.Debug("requesting move",
		slog.String("room_id", string(id)),
		slog.String("username", username),
		slog.Int("player", int(ticket.player)),
	)

	proposal, err := c.oracle.Propose(ctx, ticket.request)

	// The outcome is recorded even when the caller has gone away
	ctx = context.WithoutCancel(ctx)
	if err != nil {
		return model.Position{}, c.failStep(ctx, id, username, ticket, err)
	}
	return c.finishStep(ctx, id, username, ticket, proposal)
}

func (c *Controller) beginStep(ctx context.Context, id model.RoomID, username string) (stepTicket, error) {
	var ticket stepTicket
	_, err := c.rooms.WithRoom(ctx, id, func(room *model.Room) error {
		if len(room.Players) != model.MaxPlayers {
			return model.ErrNotEnoughPlayers
		}
		if !room.HasPlayer(username) {
			return model.ErrNotInRoom
		}
		if room.CurrentUsername() != username {
			return model.ErrNotYourTurn
		}
		if room.IsDecided() || room.Board.IsFull() {
			return model.ErrGameOver
		}
		cfg, ok := room.AIConfigs[username]
		if !ok {
			return model.ErrConfigNotSet
		}
		if !room.ConfigLocked[username] {
			return model.ErrConfigNotLocked
		}
		if !room.HasStarted() {
			for _, p := range room.Players {
				if !room.ReadyStatus[p] {
					return model.ErrNotReady
				}
			}
		}

		now := c.clock.Now()
		if room.StepStartedAt != nil && now.Sub(*room.StepStartedAt) < c.cfg.StepLease {
			return model.ErrStepInProgress
		}
		room.StepStartedAt = &now

		ticket = stepTicket{
			startedAt: now,
			player:    room.CurrentPlayer,
			moves:     len(room.Moves),
			request: oracle.Request{
				Board:      room.Board.Rows(),
				Player:     room.CurrentPlayer,
				PriorError: room.Error,
				Config:     cfg,
			},
		}
		return nil
	})
	return ticket, err
}

// owns reports whether the room is still running the given step
func (t stepTicket) owns(room *model.Room) bool {
	return room.StepStartedAt != nil && room.StepStartedAt.Equal(t.startedAt)
}

// current reports whether the proposal still applies to the room
func (t stepTicket) current(room *model.Room, username string) bool {
	return t.owns(room) &&
		len(room.Moves) == t.moves &&
		room.CurrentPlayer == t.player &&
		room.PlayerFor(t.player) == username
}

func (c *Controller) failStep(ctx context.Context, id model.RoomID, username string, ticket stepTicket, cause error) error {
	oracleErr := &model.OracleError{Message: cause.Error()}

	room, err := c.rooms.WithRoom(ctx, id, func(room *model.Room) error {
		if !ticket.owns(room) {
			return nil
		}
		room.StepStartedAt = nil
		room.AppendLog(fmt.Sprintf("AI player %d failed: %s", int(ticket.player), cause.Error()))
		room.Error = cause.Error()
		return nil
	})
	if err != nil && !errors.Is(err, model.ErrRoomNotFound) {
		return err
	}

	c.logger.Warn("oracle failed",
		slog.String("room_id", string(id)),
		slog.String("username", username),
		slog.String("error", cause.Error()),
	)
	if room != nil {
		c.rooms.Publish(ctx, room, model.EventProposalFailed, username, model.ProposalFailedPayload{
			Error: cause.Error(),
		})
	}
	return oracleErr
}

func (c *Controller) finishStep(ctx context.Context, id model.RoomID, username string, ticket stepTicket, proposal oracle.Proposal) (model.Position, error) {
	move := proposal.Move

	var stepErr error
	room, err := c.rooms.WithRoom(ctx, id, func(room *model.Room) error {
		if !ticket.current(room, username) {
			if ticket.owns(room) {
				room.StepStartedAt = nil
			}
			stepErr = model.ErrStaleProposal
			return nil
		}
		room.StepStartedAt = nil

		switch {
		case !room.Board.IsValidPosition(move):
			room.AppendLog(fmt.Sprintf("%s, but (%d,%d) is outside the board", proposal.Log, move.X, move.Y))
			room.Error = fmt.Sprintf("cell (%d,%d) is outside the %dx%d board", move.X, move.Y, room.Board.Size, room.Board.Size)
			stepErr = fmt.Errorf("%w: %s", model.ErrMoveOutOfRange, room.Error)
		case !room.Board.IsEmpty(move):
			room.AppendLog(fmt.Sprintf("%s, but (%d,%d) is already occupied", proposal.Log, move.X, move.Y))
			room.Error = fmt.Sprintf("cell (%d,%d) is already occupied", move.X, move.Y)
			stepErr = fmt.Errorf("%w: %s", model.ErrCellOccupied, room.Error)
		default:
			room.AppendLog(proposal.Log)
			room.PendingMove = &model.Position{X: move.X, Y: move.Y}
			room.CanConfirm = true
			room.Error = ""
		}
		return nil
	})
	if errors.Is(err, model.ErrRoomNotFound) {
		return model.Position{}, model.ErrStaleProposal
	}
	if err != nil {
		return model.Position{}, err
	}

	if stepErr != nil {
		c.logger.Info("proposal rejected",
			slog.String("room_id", string(id)),
			slog.String("username", username),
			slog.Int("x", move.X),
			slog.Int("y", move.Y),
			slog.String("error", stepErr.Error()),
		)
		if !errors.Is(stepErr, model.ErrStaleProposal) {
			c.rooms.Publish(ctx, room, model.EventProposalFailed, username, model.ProposalFailedPayload{
				Error: room.Error,
			})
		}
		return model.Position{}, stepErr
	}

	c.rooms.Publish(ctx, room, model.EventMoveProposed, username, model.MoveProposedPayload{
		Move:   move,
		Player: ticket.player,
	})
	return move, nil
}

// ConfirmMove commits the staged move. Either seated player may confirm.
func (c *Controller) ConfirmMove(ctx context.Context, id model.RoomID, username string) (ConfirmResult, error) {
	var result ConfirmResult
	room, err := c.rooms.WithRoom(ctx, id, func(room *model.Room) error {
		if !room.HasPlayer(username) {
			return model.ErrNotInRoom
		}
		if !room.CanConfirm || room.PendingMove == nil {
			return model.ErrNoPendingMove
		}

		pos := *room.PendingMove
		stone := room.CurrentPlayer
		if err := room.Board.MakeMove(pos, stone); err != nil {
			return err
		}
		move := model.Move{X: pos.X, Y: pos.Y, Player: stone}
		room.Moves = append(room.Moves, move)

		if winner := room.Board.CheckWinner(); winner != model.StoneEmpty {
			room.Outcome = model.OutcomeWon
			room.Winner = winner
			room.AppendLog(fmt.Sprintf("Player %d (%s) wins", int(winner), room.PlayerFor(winner)))
		} else if len(room.Moves) >= room.Board.Area() {
			room.Outcome = model.OutcomeDraw
			room.AppendLog("The board is full, the game is a draw")
		} else {
			room.CurrentPlayer = stone.Opponent()
		}

		room.PendingMove = nil
		room.CanConfirm = false

		result = ConfirmResult{
			Move:          move,
			Outcome:       room.Outcome,
			Winner:        room.Winner,
			CurrentPlayer: room.CurrentPlayer,
		}
		return nil
	})
	if err != nil {
		return ConfirmResult{}, err
	}

	c.rooms.Publish(ctx, room, model.EventMoveConfirmed, username, model.MoveConfirmedPayload{
		Move:          result.Move,
		CurrentPlayer: result.CurrentPlayer,
	})

	if room.IsDecided() {
		c.logger.Info("game over",
			slog.String("room_id", string(id)),
			slog.String("outcome", string(room.Outcome)),
			slog.Int("winner", int(room.Winner)),
			slog.Int("moves", len(room.Moves)),
		)
		c.rooms.Publish(ctx, room, model.EventGameOver, "", model.GameOverPayload{
			Outcome: room.Outcome,
			Winner:  room.Winner,
			Moves:   len(room.Moves),
		})
	}
	return result, nil
}

// SetOwnerColor seats the owner on the chosen colour. It is only allowed
// before the first move is committed.
func (c *Controller) SetOwnerColor(ctx context.Context, id model.RoomID, username, color string) error {
	stone, err := model.ParseStone(color)
	if err != nil {
		return err
	}

	room, err := c.rooms.WithRoom(ctx, id, func(room *model.Room) error {
		if !room.HasPlayer(username) {
			return model.ErrNotInRoom
		}
		if room.Owner != username {
			return model.ErrNotOwner
		}
		if room.HasStarted() {
			return model.ErrGameStarted
		}

		room.ApplyOwnerColor(stone)
		room.PendingMove = nil
		room.CanConfirm = false
		return nil
	})
	if err != nil {
		return err
	}

	c.rooms.Publish(ctx, room, model.EventColorChanged, username, model.ColorChangedPayload{
		OwnerColor: stone.String(),
		Players:    room.Players,
	})
	return nil
}

// Rematch clears a decided game. Seats, configs and locks are kept but both
// players must ready up again before the first move.
func (c *Controller) Rematch(ctx context.Context, id model.RoomID, username string) error {
	room, err := c.rooms.WithRoom(ctx, id, func(room *model.Room) error {
		if !room.HasPlayer(username) {
			return model.ErrNotInRoom
		}
		if room.Owner != username {
			return model.ErrNotOwner
		}
		if !room.IsDecided() {
			return model.ErrGameNotOver
		}

		room.ResetGame()
		room.AppendLog("Rematch started")
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info("rematch started",
		slog.String("room_id", string(id)),
		slog.String("owner", username),
	)
	c.rooms.Publish(ctx, room, model.EventRematch, username, model.RematchPayload{
		Players: room.Players,
	})
	return nil
}
