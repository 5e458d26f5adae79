package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/gomoku-arena/internal/model"
	"github.com/mcoot/gomoku-arena/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
	sealer sealer
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
		sealer: newSealer(cfg.Secret),
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interfaces
var (
	_ storage.Storage  = (*Storage)(nil)
	_ storage.Migrator = (*Storage)(nil)
)

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), data, s.cfg.SessionTTL)
	pipe.SAdd(ctx, sessionsIndexKey(), string(session.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.SRem(ctx, sessionsIndexKey(), string(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) ListSessions(ctx context.Context) ([]*model.Session, error) {
	ids, err := s.client.SMembers(ctx, sessionsIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Session{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(model.SessionID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	sessions := make([]*model.Session, 0, len(values))
	for i, val := range values {
		if val == nil {
			// Expired by TTL; drop the dangling index entry
			s.client.SRem(ctx, sessionsIndexKey(), ids[i])
			continue
		}
		var session model.Session
		if err := json.Unmarshal([]byte(val.(string)), &session); err != nil {
			continue // Legacy or corrupt record, left for the migration
		}
		sessions = append(sessions, &session)
	}
	return sessions, nil
}

// MigrateLegacySessions rewrites session keys whose value is a bare username
func (s *Storage) MigrateLegacySessions(ctx context.Context, now time.Time) (int, error) {
	migrated := 0
	iter := s.client.Scan(ctx, 0, sessionKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		val, err := s.client.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return migrated, err
		}
		if strings.HasPrefix(strings.TrimSpace(val), "{") {
			continue
		}

		session := &model.Session{
			ID:           model.SessionID(strings.TrimPrefix(key, sessionKey(""))),
			Username:     val,
			CreatedAt:    now,
			LastActivity: now,
		}
		if err := s.SaveSession(ctx, session); err != nil {
			return migrated, fmt.Errorf("migrate session %s: %w", session.ID, err)
		}
		migrated++
	}
	return migrated, iter.Err()
}

// Reserved username operations

func (s *Storage) ReserveUsername(ctx context.Context, username string) (bool, error) {
	added, err := s.client.SAdd(ctx, usernamesKey(), username).Result()
	if err != nil {
		return false, err
	}
	return added == 1, nil
}

func (s *Storage) ReleaseUsername(ctx context.Context, username string) error {
	return s.client.SRem(ctx, usernamesKey(), username).Err()
}

func (s *Storage) IsUsernameReserved(ctx context.Context, username string) (bool, error) {
	return s.client.SIsMember(ctx, usernamesKey(), username).Result()
}

func (s *Storage) ListUsernames(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, usernamesKey()).Result()
}

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	stored := room.Clone()
	for username, cfg := range stored.AIConfigs {
		sealed, err := s.sealer.seal(cfg.Key)
		if err != nil {
			return fmt.Errorf("seal AI key: %w", err)
		}
		cfg.Key = sealed
		stored.AIConfigs[username] = cfg
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, roomKey(room.ID), data, s.cfg.RoomTTL)
	pipe.SAdd(ctx, roomsIndexKey(), string(room.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}
	return s.decodeRoom(data)
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, roomKey(id))
	pipe.SRem(ctx, roomsIndexKey(), string(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	ids, err := s.client.SMembers(ctx, roomsIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Room{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = roomKey(model.RoomID(id))
	}

	// Fetch all rooms in one round trip using MGET
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	rooms := make([]*model.Room, 0, len(values))
	for i, val := range values {
		if val == nil {
			s.client.SRem(ctx, roomsIndexKey(), ids[i])
			continue
		}
		room, err := s.decodeRoom([]byte(val.(string)))
		if err != nil {
			continue // Skip invalid data
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func (s *Storage) decodeRoom(data []byte) (*model.Room, error) {
	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	for username, cfg := range room.AIConfigs {
		key, err := s.sealer.open(cfg.Key)
		if err != nil {
			return nil, fmt.Errorf("room %s: %w", room.ID, err)
		}
		cfg.Key = key
		room.AIConfigs[username] = cfg
	}
	return &room, nil
}
