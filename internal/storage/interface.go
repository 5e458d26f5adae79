package storage

import (
	"context"
	"time"

	"github.com/mcoot/gomoku-arena/internal/model"
)

// Storage defines the interface for data persistence. Implementations return
// copies: callers may mutate what they get back without affecting the store.
type Storage interface {
	// Session operations
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)
	DeleteSession(ctx context.Context, id model.SessionID) error
	ListSessions(ctx context.Context) ([]*model.Session, error)

	// Reserved username operations
	ReserveUsername(ctx context.Context, username string) (bool, error)
	ReleaseUsername(ctx context.Context, username string) error
	IsUsernameReserved(ctx context.Context, username string) (bool, error)
	ListUsernames(ctx context.Context) ([]string, error)

	// Room operations
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	DeleteRoom(ctx context.Context, id model.RoomID) error
	ListRooms(ctx context.Context) ([]*model.Room, error)
}

// Migrator is implemented by backends that can hold records written by older
// versions of the server
type Migrator interface {
	// MigrateLegacySessions rewrites session records that hold a bare
	// username into full session records stamped with now. It returns the
	// number of records rewritten.
	MigrateLegacySessions(ctx context.Context, now time.Time) (int, error)
}
