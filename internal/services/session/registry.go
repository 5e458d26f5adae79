package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/mcoot/gomoku-arena/internal/dependencies/clock"
	"github.com/mcoot/gomoku-arena/internal/dependencies/idgen"
	"github.com/mcoot/gomoku-arena/internal/dependencies/random"
	"github.com/mcoot/gomoku-arena/internal/model"
	"github.com/mcoot/gomoku-arena/internal/storage"
)

const (
	usernameAlphabet    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	maxGenerateAttempts = 1000
)

// Seating is the room side of a username: whether it holds a seat, and
// moving that seat when the username changes
type Seating interface {
	IsSeated(ctx context.Context, username string) (bool, error)
	RenameSeat(ctx context.Context, oldName, newName string) error
}

// Config holds configuration for the session registry
type Config struct {
	IdleTimeout time.Duration
	MaxLifetime time.Duration
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		IdleTimeout: time.Hour,
		MaxLifetime: 24 * time.Hour,
	}
}

// CleanupResult reports what a cleanup pass removed
type CleanupResult struct {
	SessionsRemoved  int
	UsernamesRemoved int
}

// RenameResult is the outcome of UpdateUsername
type RenameResult struct {
	Username string
	// Adjusted is true when the requested name was taken and a suffixed
	// variant was reserved instead
	Adjusted bool
}

// Registry maps session identifiers to usernames and owns the reserved
// username pool. One mutex guards both for the duration of each operation.
type Registry struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	ids     idgen.Generator
	seats   Seating
	cfg     Config
	logger  *slog.Logger

	mu sync.Mutex
}

// New creates a new session registry
func New(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	ids idgen.Generator,
	seats Seating,
	cfg Config,
	logger *slog.Logger,
) *Registry {
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultConfig().IdleTimeout
	}
	if cfg.MaxLifetime == 0 {
		cfg.MaxLifetime = DefaultConfig().MaxLifetime
	}
	return &Registry{
		storage: storage,
		clock:   clock,
		random:  random,
		ids:     ids,
		seats:   seats,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "session-registry")),
	}
}

// Login allocates a fresh username and a session bound to it
func (r *Registry) Login(ctx context.Context) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.cleanupLocked(ctx); err != nil {
		return nil, err
	}

	username, err := r.generateLocked(ctx, true)
	if err != nil {
		return nil, err
	}

	session, err := r.registerLocked(ctx, model.SessionID(r.ids.NewID()), username)
	if err != nil {
		return nil, err
	}

	r.logger.Info("session created",
		slog.String("session_id", string(session.ID)),
		slog.String("username", username),
	)
	return session, nil
}

// SuggestUsername returns a currently unused username without reserving it
func (r *Registry) SuggestUsername(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.cleanupLocked(ctx); err != nil {
		return "", err
	}
	return r.generateLocked(ctx, false)
}

// Register creates a session for the username, replacing any prior record
// with the same id
func (r *Registry) Register(ctx context.Context, id model.SessionID, username string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(ctx, id, username)
}

// TouchByUsername refreshes every session bound to the username
func (r *Registry) TouchByUsername(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.touchLocked(ctx, username)
	return err
}

// RebindUsername moves every session bound to oldName onto newName
func (r *Registry) RebindUsername(ctx context.Context, oldName, newName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.rebindLocked(ctx, oldName, newName)
	return err
}

// EnsureRegistered re-admits a username presented by a client: it is
// reserved if free, and a session is minted if none references it
func (r *Registry) EnsureRegistered(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensureLocked(ctx, username)
}

// UpdateUsername renames oldName to newName
func (r *Registry) UpdateUsername(ctx context.Context, oldName, newName string) (RenameResult, error) {
	if err := model.ValidateUsername(newName); err != nil {
		return RenameResult{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.cleanupLocked(ctx); err != nil {
		return RenameResult{}, err
	}

	oldReserved, err := r.storage.IsUsernameReserved(ctx, oldName)
	if err != nil {
		return RenameResult{}, fmt.Errorf("check username: %w", err)
	}

	if !oldReserved {
		return r.renameStaleLocked(ctx, oldName, newName)
	}

	if newName == oldName {
		if _, err := r.touchLocked(ctx, oldName); err != nil {
			return RenameResult{}, err
		}
		return RenameResult{Username: oldName}, nil
	}

	taken, err := r.storage.IsUsernameReserved(ctx, newName)
	if err != nil {
		return RenameResult{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return RenameResult{}, model.ErrUsernameTaken
	}

	reserved, err := r.storage.ReserveUsername(ctx, newName)
	if err != nil {
		return RenameResult{}, fmt.Errorf("reserve username: %w", err)
	}
	if !reserved {
		return RenameResult{}, model.ErrUsernameTaken
	}
	if err := r.seats.RenameSeat(ctx, oldName, newName); err != nil {
		if releaseErr := r.storage.ReleaseUsername(ctx, newName); releaseErr != nil {
			r.logger.Error("failed to release username after seat rename failed",
				slog.String("username", newName),
				slog.String("error", releaseErr.Error()),
			)
		}
		return RenameResult{}, fmt.Errorf("rename seat: %w", err)
	}
	if err := r.storage.ReleaseUsername(ctx, oldName); err != nil {
		return RenameResult{}, fmt.Errorf("release username: %w", err)
	}
	if _, err := r.rebindLocked(ctx, oldName, newName); err != nil {
		return RenameResult{}, err
	}

	r.logger.Info("username changed",
		slog.String("old_username", oldName),
		slog.String("new_username", newName),
	)
	return RenameResult{Username: newName}, nil
}

// renameStaleLocked handles a rename from a client whose old username has
// already been released. The requested name is reserved if free; otherwise a
// numeric suffix is appended until a free name is found.
func (r *Registry) renameStaleLocked(ctx context.Context, oldName, newName string) (RenameResult, error) {
	candidate := newName
	for counter := 1; ; counter++ {
		reserved, err := r.storage.ReserveUsername(ctx, candidate)
		if err != nil {
			return RenameResult{}, fmt.Errorf("reserve username: %w", err)
		}
		if reserved {
			break
		}
		suffix := strconv.Itoa(counter)
		base := []rune(newName)
		if len(base)+len(suffix) > model.UsernameMaxLength {
			base = base[:model.UsernameMaxLength-len(suffix)]
		}
		candidate = string(base) + suffix
	}

	rebound, err := r.rebindLocked(ctx, oldName, candidate)
	if err != nil {
		return RenameResult{}, err
	}
	if rebound == 0 {
		if err := r.ensureSessionLocked(ctx, candidate); err != nil {
			return RenameResult{}, err
		}
	}

	r.logger.Info("stale username replaced",
		slog.String("old_username", oldName),
		slog.String("new_username", candidate),
	)
	return RenameResult{Username: candidate, Adjusted: candidate != newName}, nil
}

// Cleanup removes expired sessions and releases usernames nothing references
func (r *Registry) Cleanup(ctx context.Context) (CleanupResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cleanupLocked(ctx)
}

// Lookup returns the live session with the given id, refreshing its activity
func (r *Registry) Lookup(ctx context.Context, id model.SessionID) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, err := r.storage.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	if session.Expired(now, r.cfg.IdleTimeout, r.cfg.MaxLifetime) {
		return nil, model.ErrSessionNotFound
	}

	session.Touch(now)
	if err := r.storage.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// Migrate upgrades legacy session records and re-reserves every username a
// session references. It runs once at boot.
func (r *Registry) Migrate(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	migrated := 0
	if m, ok := r.storage.(storage.Migrator); ok {
		n, err := m.MigrateLegacySessions(ctx, r.clock.Now())
		if err != nil {
			return 0, fmt.Errorf("migrate sessions: %w", err)
		}
		migrated = n
	}

	sessions, err := r.storage.ListSessions(ctx)
	if err != nil {
		return migrated, fmt.Errorf("list sessions: %w", err)
	}
	for _, session := range sessions {
		if _, err := r.storage.ReserveUsername(ctx, session.Username); err != nil {
			return migrated, fmt.Errorf("reserve username: %w", err)
		}
	}

	if migrated > 0 {
		r.logger.Info("legacy sessions migrated", slog.Int("count", migrated))
	}
	return migrated, nil
}

func (r *Registry) registerLocked(ctx context.Context, id model.SessionID, username string) (*model.Session, error) {
	now := r.clock.Now()
	session := &model.Session{
		ID:           id,
		Username:     username,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := r.storage.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// touchLocked refreshes every session of the username and returns how many
// there were
func (r *Registry) touchLocked(ctx context.Context, username string) (int, error) {
	sessions, err := r.storage.ListSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	now := r.clock.Now()
	touched := 0
	for _, session := range sessions {
		if session.Username != username {
			continue
		}
		session.Touch(now)
		if err := r.storage.SaveSession(ctx, session); err != nil {
			return touched, fmt.Errorf("save session: %w", err)
		}
		touched++
	}
	return touched, nil
}

func (r *Registry) rebindLocked(ctx context.Context, oldName, newName string) (int, error) {
	sessions, err := r.storage.ListSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	now := r.clock.Now()
	rebound := 0
	for _, session := range sessions {
		if session.Username != oldName {
			continue
		}
		session.Username = newName
		session.Touch(now)
		if err := r.storage.SaveSession(ctx, session); err != nil {
			return rebound, fmt.Errorf("save session: %w", err)
		}
		rebound++
	}
	return rebound, nil
}

func (r *Registry) ensureLocked(ctx context.Context, username string) error {
	if _, err := r.storage.ReserveUsername(ctx, username); err != nil {
		return fmt.Errorf("reserve username: %w", err)
	}
	return r.ensureSessionLocked(ctx, username)
}

// ensureSessionLocked mints a session for the username unless one exists
func (r *Registry) ensureSessionLocked(ctx context.Context, username string) error {
	touched, err := r.touchLocked(ctx, username)
	if err != nil {
		return err
	}
	if touched > 0 {
		return nil
	}
	_, err = r.registerLocked(ctx, model.SessionID(r.ids.NewID()), username)
	return err
}

func (r *Registry) cleanupLocked(ctx context.Context) (CleanupResult, error) {
	var result CleanupResult

	sessions, err := r.storage.ListSessions(ctx)
	if err != nil {
		return result, fmt.Errorf("list sessions: %w", err)
	}

	now := r.clock.Now()
	live := make(map[string]bool)
	var expired []*model.Session
	for _, session := range sessions {
		if session.Expired(now, r.cfg.IdleTimeout, r.cfg.MaxLifetime) {
			expired = append(expired, session)
			continue
		}
		live[session.Username] = true
	}

	released := make(map[string]bool)
	for _, session := range expired {
		if err := r.storage.DeleteSession(ctx, session.ID); err != nil {
			return result, fmt.Errorf("delete session: %w", err)
		}
		result.SessionsRemoved++

		username := session.Username
		if live[username] || released[username] {
			continue
		}
		seated, err := r.seats.IsSeated(ctx, username)
		if err != nil {
			return result, err
		}
		if seated {
			continue
		}
		if err := r.storage.ReleaseUsername(ctx, username); err != nil {
			return result, fmt.Errorf("release username: %w", err)
		}
		released[username] = true
		result.UsernamesRemoved++
	}

	if result.SessionsRemoved > 0 {
		r.logger.Info("expired sessions removed",
			slog.Int("sessions_removed", result.SessionsRemoved),
			slog.Int("usernames_removed", result.UsernamesRemoved),
		)
	}
	return result, nil
}

// generateLocked draws random usernames until an unused one is found,
// reserving it when reserve is set
func (r *Registry) generateLocked(ctx context.Context, reserve bool) (string, error) {
	span := model.GeneratedUsernameMaxLength - model.GeneratedUsernameMinLength + 1
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		length := model.GeneratedUsernameMinLength + r.random.Intn(span)
		candidate := r.random.String(length, usernameAlphabet)
		if model.ValidateUsername(candidate) != nil {
			continue
		}

		if reserve {
			ok, err := r.storage.ReserveUsername(ctx, candidate)
			if err != nil {
				return "", fmt.Errorf("reserve username: %w", err)
			}
			if ok {
				return candidate, nil
			}
			continue
		}

		taken, err := r.storage.IsUsernameReserved(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check username: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", model.ErrUsernameSpaceExhausted, maxGenerateAttempts)
}
