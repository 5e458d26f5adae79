package memory

import (
	"context"
	"testing"
	"time"

	"github.com/mcoot/gomoku-arena/internal/model"
	"github.com/stretchr/testify/suite"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
	now     time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// Session tests

func (s *StorageSuite) TestSaveAndGetSession() {
	session := &model.Session{ID: "sess-1", Username: "alice", CreatedAt: s.now, LastActivity: s.now}

	err := s.storage.SaveSession(s.ctx, session)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetSession(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal("alice", retrieved.Username)
	s.Equal(s.now, retrieved.CreatedAt)
}

func (s *StorageSuite) TestGetSessionNotFound() {
	_, err := s.storage.GetSession(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestGetSessionReturnsCopy() {
	_ = s.storage.SaveSession(s.ctx, &model.Session{ID: "sess-1", Username: "alice"})

	retrieved, _ := s.storage.GetSession(s.ctx, "sess-1")
	retrieved.Username = "mallory"

	again, err := s.storage.GetSession(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal("alice", again.Username)
}

func (s *StorageSuite) TestDeleteAndListSessions() {
	_ = s.storage.SaveSession(s.ctx, &model.Session{ID: "sess-2", Username: "bob"})
	_ = s.storage.SaveSession(s.ctx, &model.Session{ID: "sess-1", Username: "alice"})

	sessions, err := s.storage.ListSessions(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(sessions, 2)
	s.Equal(model.SessionID("sess-1"), sessions[0].ID)

	s.Require().NoError(s.storage.DeleteSession(s.ctx, "sess-1"))

	sessions, err = s.storage.ListSessions(s.ctx)
	s.Require().NoError(err)
	s.Len(sessions, 1)
}

// Username tests

func (s *StorageSuite) TestReserveUsernameIsExclusive() {
	ok, err := s.storage.ReserveUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.storage.ReserveUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.False(ok)

	reserved, err := s.storage.IsUsernameReserved(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(reserved)
}

func (s *StorageSuite) TestReleaseUsername() {
	_, _ = s.storage.ReserveUsername(s.ctx, "alice")
	_, _ = s.storage.ReserveUsername(s.ctx, "bob")

	s.Require().NoError(s.storage.ReleaseUsername(s.ctx, "alice"))

	names, err := s.storage.ListUsernames(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"bob"}, names)
}

// Room tests

func (s *StorageSuite) TestSaveAndGetRoom() {
	room := model.NewRoom("room-1", "alice", model.BoardSize, s.now)

	err := s.storage.SaveRoom(s.ctx, room)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRoom(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Equal("alice", retrieved.Owner)
	s.Equal([]string{"alice"}, retrieved.Players)
}

func (s *StorageSuite) TestGetRoomNotFound() {
	_, err := s.storage.GetRoom(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestRoomIsolatedFromCallers() {
	room := model.NewRoom("room-1", "alice", model.BoardSize, s.now)
	_ = s.storage.SaveRoom(s.ctx, room)

	// Mutating the saved value must not leak into the store
	room.Board.Set(model.Position{X: 0, Y: 0}, model.StoneBlack)

	retrieved, _ := s.storage.GetRoom(s.ctx, "room-1")
	s.True(retrieved.Board.IsEmpty(model.Position{X: 0, Y: 0}))

	// Nor must mutating a retrieved value
	retrieved.Players = append(retrieved.Players, "bob")
	again, _ := s.storage.GetRoom(s.ctx, "room-1")
	s.Equal([]string{"alice"}, again.Players)
}

func (s *StorageSuite) TestDeleteAndListRooms() {
	_ = s.storage.SaveRoom(s.ctx, model.NewRoom("room-1", "alice", model.BoardSize, s.now))
	_ = s.storage.SaveRoom(s.ctx, model.NewRoom("room-2", "bob", model.BoardSize, s.now))

	rooms, err := s.storage.ListRooms(s.ctx)
	s.Require().NoError(err)
	s.Len(rooms, 2)

	s.Require().NoError(s.storage.DeleteRoom(s.ctx, "room-1"))

	rooms, err = s.storage.ListRooms(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(rooms, 1)
	s.Equal(model.RoomID("room-2"), rooms[0].ID)
}
