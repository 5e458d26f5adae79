package rooms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mcoot/gomoku-arena/internal/dependencies/clock"
	"github.com/mcoot/gomoku-arena/internal/dependencies/idgen"
	"github.com/mcoot/gomoku-arena/internal/events"
	"github.com/mcoot/gomoku-arena/internal/model"
	"github.com/mcoot/gomoku-arena/internal/storage"
)

// Config holds configuration for the room registry
type Config struct {
	// EmptyTimeout is how long a room with no players survives
	EmptyTimeout time.Duration
	// InactiveTimeout is how long an occupied room survives without activity
	InactiveTimeout time.Duration
	BoardSize       int
}

// DefaultConfig returns default room configuration
func DefaultConfig() Config {
	return Config{
		EmptyTimeout:    5 * time.Minute,
		InactiveTimeout: time.Hour,
		BoardSize:       model.BoardSize,
	}
}

// Registry creates, finds and destroys rooms.
//
// The registry mutex serialises membership changes and guards the lock
// table. Each room has its own mutex, held for one operation on that room.
// Lock order is registry mutex, then a single room mutex.
type Registry struct {
	storage   storage.Storage
	clock     clock.Clock
	ids       idgen.Generator
	publisher events.Publisher
	cfg       Config
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[model.RoomID]*sync.Mutex
}

// New creates a new room registry
func New(
	storage storage.Storage,
	clock clock.Clock,
	ids idgen.Generator,
	publisher events.Publisher,
	cfg Config,
	logger *slog.Logger,
) *Registry {
	defaults := DefaultConfig()
	if cfg.EmptyTimeout == 0 {
		cfg.EmptyTimeout = defaults.EmptyTimeout
	}
	if cfg.InactiveTimeout == 0 {
		cfg.InactiveTimeout = defaults.InactiveTimeout
	}
	if cfg.BoardSize == 0 {
		cfg.BoardSize = defaults.BoardSize
	}
	return &Registry{
		storage:   storage,
		clock:     clock,
		ids:       ids,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "room-registry")),
		locks:     make(map[model.RoomID]*sync.Mutex),
	}
}

// Create opens a room owned by username. A user who already holds a seat
// gets their existing room back with alreadyInRoom set.
func (r *Registry) Create(ctx context.Context, username string) (room *model.Room, alreadyInRoom bool, err error) {
	if username == "" {
		return nil, false, model.ErrInvalidUsername
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.roomOf(ctx, username)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, true, nil
	}

	if _, err := r.sweepLocked(ctx); err != nil {
		return nil, false, err
	}

	room = model.NewRoom(model.RoomID(r.ids.NewID()), username, r.cfg.BoardSize, r.clock.Now())
	if err := r.storage.SaveRoom(ctx, room); err != nil {
		return nil, false, fmt.Errorf("save room: %w", err)
	}
	r.lockFor(room.ID)

	r.logger.Info("room created",
		slog.String("room_id", string(room.ID)),
		slog.String("owner", username),
	)
	return room, false, nil
}

// Join seats username in the room. Joining a room the user already sits in
// succeeds without change.
func (r *Registry) Join(ctx context.Context, id model.RoomID, username string) (*model.Room, error) {
	if username == "" {
		return nil, model.ErrInvalidUsername
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	room, err := r.getLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	if room.HasPlayer(username) {
		return room, nil
	}

	other, err := r.roomOf(ctx, username)
	if err != nil {
		return nil, err
	}
	if other != nil {
		return nil, model.ErrAlreadyInOtherRoom
	}
	if room.IsFull() {
		return nil, model.ErrRoomFull
	}

	room.AddPlayer(username)
	room.LastActivity = r.clock.Now()
	if err := r.storage.SaveRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("save room: %w", err)
	}

	r.logger.Info("player joined room",
		slog.String("room_id", string(id)),
		slog.String("username", username),
	)
	r.publish(ctx, room, model.EventPlayerJoined, username, model.PlayerJoinedPayload{
		Players: append([]string(nil), room.Players...),
	})
	return room, nil
}

// Leave unseats username. The room is destroyed when its last player leaves;
// otherwise ownership passes to the remaining player.
func (r *Registry) Leave(ctx context.Context, id model.RoomID, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	room, err := r.getLocked(ctx, id)
	if err != nil {
		return err
	}
	if !room.HasPlayer(username) {
		return model.ErrNotInRoom
	}

	oldOwner := room.Owner
	room.RemovePlayer(username)

	if room.IsEmpty() {
		if err := r.destroyLocked(ctx, id); err != nil {
			return err
		}
		r.logger.Info("room closed, last player left",
			slog.String("room_id", string(id)),
			slog.String("username", username),
		)
		r.publish(ctx, room, model.EventPlayerLeft, username, model.PlayerLeftPayload{
			Players:     []string{},
			RoomDeleted: true,
		})
		r.publish(ctx, room, model.EventRoomDeleted, username, nil)
		return nil
	}

	room.LastActivity = r.clock.Now()
	if err := r.storage.SaveRoom(ctx, room); err != nil {
		return fmt.Errorf("save room: %w", err)
	}

	r.logger.Info("player left room",
		slog.String("room_id", string(id)),
		slog.String("username", username),
	)
	r.publish(ctx, room, model.EventPlayerLeft, username, model.PlayerLeftPayload{
		Players: append([]string(nil), room.Players...),
	})
	if room.Owner != oldOwner {
		r.publish(ctx, room, model.EventOwnerChanged, room.Owner, model.OwnerChangedPayload{
			OldOwner: oldOwner,
			NewOwner: room.Owner,
		})
	}
	return nil
}

// Delete destroys the room. Only the owner may delete it.
func (r *Registry) Delete(ctx context.Context, id model.RoomID, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	room, err := r.getLocked(ctx, id)
	if err != nil {
		return err
	}
	if room.Owner != username {
		return model.ErrNotOwner
	}

	if err := r.destroyLocked(ctx, id); err != nil {
		return err
	}

	r.logger.Info("room deleted by owner",
		slog.String("room_id", string(id)),
		slog.String("owner", username),
	)
	r.publish(ctx, room, model.EventRoomDeleted, username, nil)
	return nil
}

// Get returns a snapshot of the room
func (r *Registry) Get(ctx context.Context, id model.RoomID) (*model.Room, error) {
	return r.storage.GetRoom(ctx, id)
}

// List sweeps expired rooms and returns the rest, newest first
func (r *Registry) List(ctx context.Context) ([]model.RoomSummary, error) {
	if _, err := r.Sweep(ctx); err != nil {
		return nil, err
	}

	rooms, err := r.storage.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})

	summaries := make([]model.RoomSummary, len(rooms))
	for i, room := range rooms {
		summaries[i] = room.Summary()
	}
	return summaries, nil
}

// Sweep removes empty rooms older than EmptyTimeout and occupied rooms idle
// longer than InactiveTimeout. It returns the number removed.
func (r *Registry) Sweep(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(ctx)
}

func (r *Registry) sweepLocked(ctx context.Context) (int, error) {
	rooms, err := r.storage.ListRooms(ctx)
	if err != nil {
		return 0, fmt.Errorf("list rooms: %w", err)
	}

	removed := 0
	for _, candidate := range rooms {
		ok, err := r.sweepRoomLocked(ctx, candidate.ID)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}

	if removed > 0 {
		r.logger.Info("expired rooms removed", slog.Int("count", removed))
	}
	return removed, nil
}

// sweepRoomLocked re-reads the room under its lock and removes it if expired
func (r *Registry) sweepRoomLocked(ctx context.Context, id model.RoomID) (bool, error) {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	room, err := r.storage.GetRoom(ctx, id)
	if errors.Is(err, model.ErrRoomNotFound) {
		delete(r.locks, id)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	now := r.clock.Now()
	var expired bool
	if room.IsEmpty() {
		expired = now.Sub(room.CreatedAt) > r.cfg.EmptyTimeout
	} else {
		expired = now.Sub(room.LastActivity) > r.cfg.InactiveTimeout
	}
	if !expired {
		return false, nil
	}

	if err := r.destroyLocked(ctx, id); err != nil {
		return false, err
	}
	r.publish(ctx, room, model.EventRoomDeleted, "", nil)
	return true, nil
}

// SendMessage appends a chat message from a seated player
func (r *Registry) SendMessage(ctx context.Context, id model.RoomID, username, text string) (*model.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > model.MaxMessageLength {
		return nil, model.ErrInvalidMessage
	}

	var msg model.ChatMessage
	room, err := r.WithRoom(ctx, id, func(room *model.Room) error {
		if !room.HasPlayer(username) {
			return model.ErrNotInRoom
		}
		msg = model.ChatMessage{
			ID:       r.ids.NewID(),
			Username: username,
			Message:  text,
			SentAt:   r.clock.Now(),
		}
		room.AppendMessage(msg)
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.publish(ctx, room, model.EventMessageSent, username, model.MessageSentPayload{Message: msg})
	return &msg, nil
}

// RenameSeat moves oldName's seat, ownership and negotiation state to
// newName. It does nothing when oldName is not seated.
func (r *Registry) RenameSeat(ctx context.Context, oldName, newName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seated, err := r.roomOf(ctx, oldName)
	if err != nil || seated == nil {
		return err
	}

	lock := r.lockFor(seated.ID)
	lock.Lock()
	defer lock.Unlock()

	room, err := r.getLocked(ctx, seated.ID)
	if err != nil {
		return err
	}
	if !room.HasPlayer(oldName) {
		return nil
	}

	room.RenamePlayer(oldName, newName)
	room.LastActivity = r.clock.Now()
	if err := r.storage.SaveRoom(ctx, room); err != nil {
		return fmt.Errorf("save room: %w", err)
	}

	r.logger.Info("seat renamed",
		slog.String("room_id", string(room.ID)),
		slog.String("old_username", oldName),
		slog.String("new_username", newName),
	)
	r.publish(ctx, room, model.EventPlayerRenamed, newName, model.PlayerRenamedPayload{
		OldUsername: oldName,
		NewUsername: newName,
		Owner:       room.Owner,
		Players:     append([]string(nil), room.Players...),
	})
	return nil
}

// IsSeated reports whether username holds a seat in any room
func (r *Registry) IsSeated(ctx context.Context, username string) (bool, error) {
	room, err := r.roomOf(ctx, username)
	return room != nil, err
}

// RoomOf returns the room username is seated in, or nil
func (r *Registry) RoomOf(ctx context.Context, username string) (*model.Room, error) {
	return r.roomOf(ctx, username)
}

// WithRoom runs fn against the room under its lock. When fn succeeds the
// room's activity time is refreshed and the room is saved; when it fails
// nothing is written.
func (r *Registry) WithRoom(ctx context.Context, id model.RoomID, fn func(room *model.Room) error) (*model.Room, error) {
	lock, err := r.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	lock.Lock()
	defer lock.Unlock()

	room, err := r.storage.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(room); err != nil {
		return nil, err
	}

	room.LastActivity = r.clock.Now()
	if err := r.storage.SaveRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("save room: %w", err)
	}
	return room, nil
}

// Publish sends an event about the room to its watchers
func (r *Registry) Publish(ctx context.Context, room *model.Room, eventType model.EventType, username string, payload any) {
	r.publish(ctx, room, eventType, username, payload)
}

func (r *Registry) publish(ctx context.Context, room *model.Room, eventType model.EventType, username string, payload any) {
	r.publisher.Publish(ctx, model.Event{
		Type:      eventType,
		Timestamp: r.clock.Now(),
		RoomID:    room.ID,
		Username:  username,
		Payload:   payload,
	})
}

func (r *Registry) roomOf(ctx context.Context, username string) (*model.Room, error) {
	rooms, err := r.storage.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	for _, room := range rooms {
		if room.HasPlayer(username) {
			return room, nil
		}
	}
	return nil, nil
}

// getLocked loads a room for a membership change, dropping the lock entry
// of a room that does not exist. The caller holds the registry mutex.
func (r *Registry) getLocked(ctx context.Context, id model.RoomID) (*model.Room, error) {
	room, err := r.storage.GetRoom(ctx, id)
	if errors.Is(err, model.ErrRoomNotFound) {
		delete(r.locks, id)
	}
	return room, err
}

// destroyLocked deletes the room and drops its lock. The caller holds both
// the registry mutex and the room's mutex.
func (r *Registry) destroyLocked(ctx context.Context, id model.RoomID) error {
	if err := r.storage.DeleteRoom(ctx, id); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	delete(r.locks, id)
	return nil
}

// lockFor returns the room's mutex, creating it if needed. The caller holds
// the registry mutex.
func (r *Registry) lockFor(id model.RoomID) *sync.Mutex {
	lock, ok := r.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	return lock
}

// acquire returns the room's mutex without keeping the registry mutex.
// Unknown rooms get no lock entry.
func (r *Registry) acquire(ctx context.Context, id model.RoomID) (*sync.Mutex, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lock, ok := r.locks[id]; ok {
		return lock, nil
	}
	if _, err := r.storage.GetRoom(ctx, id); err != nil {
		return nil, err
	}
	return r.lockFor(id), nil
}
