package model

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var roomTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestNewRoomSeatsOwnerOnBlack(t *testing.T) {
	room := NewRoom("room-1", "alice", BoardSize, roomTime)

	assert.Equal(t, []string{"alice"}, room.Players)
	assert.Equal(t, "alice", room.Owner)
	assert.Equal(t, StoneBlack, room.StoneOf("alice"))
	assert.Equal(t, StoneBlack, room.CurrentPlayer)
	assert.Equal(t, OutcomeOngoing, room.Outcome)
	assert.False(t, room.IsFull())
}

func TestAddPlayerHonoursOwnerColor(t *testing.T) {
	room := NewRoom("room-1", "alice", BoardSize, roomTime)
	room.ApplyOwnerColor(StoneWhite)
	room.AddPlayer("bob")

	assert.Equal(t, []string{"bob", "alice"}, room.Players)
	assert.Equal(t, StoneWhite, room.StoneOf("alice"))
	assert.Equal(t, "bob", room.CurrentUsername())
}

func TestApplyOwnerColorSwapsSeats(t *testing.T) {
	room := NewRoom("room-1", "alice", BoardSize, roomTime)
	room.AddPlayer("bob")

	room.ApplyOwnerColor(StoneWhite)
	assert.Equal(t, "bob", room.PlayerFor(StoneBlack))

	room.ApplyOwnerColor(StoneBlack)
	assert.Equal(t, "alice", room.PlayerFor(StoneBlack))
}

func TestRemovePlayerTransfersOwnershipAndDropsState(t *testing.T) {
	room := NewRoom("room-1", "alice", BoardSize, roomTime)
	room.AddPlayer("bob")
	room.AIConfigs["alice"] = AIConfig{Key: "k"}
	room.ConfigLocked["alice"] = true
	room.ReadyStatus["alice"] = true
	room.ConfigChangesLeft["alice"] = 3
	room.PendingMove = &Position{X: 1, Y: 1}
	room.CanConfirm = true

	room.RemovePlayer("alice")

	assert.Equal(t, []string{"bob"}, room.Players)
	assert.Equal(t, "bob", room.Owner)
	assert.NotContains(t, room.AIConfigs, "alice")
	assert.NotContains(t, room.ConfigLocked, "alice")
	assert.NotContains(t, room.ReadyStatus, "alice")
	assert.NotContains(t, room.ConfigChangesLeft, "alice")
	assert.Nil(t, room.PendingMove)
	assert.False(t, room.CanConfirm)
}

func TestRenamePlayerMovesSeatAndState(t *testing.T) {
	room := NewRoom("room-1", "alice", BoardSize, roomTime)
	room.AddPlayer("bob")
	room.AIConfigs["bob"] = AIConfig{Key: "sk-bob"}
	room.ReadyStatus["bob"] = true
	room.ConfigLocked["bob"] = true
	room.ConfigChangesLeft["bob"] = 0

	room.RenamePlayer("bob", "robert")

	assert.Equal(t, []string{"alice", "robert"}, room.Players)
	assert.Equal(t, "alice", room.Owner)
	assert.Equal(t, StoneWhite, room.StoneOf("robert"))
	assert.Equal(t, "sk-bob", room.AIConfigs["robert"].Key)
	assert.True(t, room.ReadyStatus["robert"])
	assert.True(t, room.ConfigLocked["robert"])
	left, ok := room.ConfigChangesLeft["robert"]
	assert.True(t, ok)
	assert.Equal(t, 0, left)
	assert.NotContains(t, room.AIConfigs, "bob")
	assert.NotContains(t, room.ConfigChangesLeft, "bob")

	room.RenamePlayer("alice", "alicia")
	assert.Equal(t, "alicia", room.Owner)
	assert.Equal(t, StoneBlack, room.StoneOf("alicia"))
}

func TestAppendMessageKeepsLastTen(t *testing.T) {
	room := NewRoom("room-1", "alice", BoardSize, roomTime)
	for i := 0; i < 15; i++ {
		room.AppendMessage(ChatMessage{ID: fmt.Sprint(i), Username: "alice", Message: fmt.Sprint("msg ", i)})
	}

	require.Len(t, room.Messages, MaxMessages)
	assert.Equal(t, "5", room.Messages[0].ID)
	assert.Equal(t, "14", room.Messages[MaxMessages-1].ID)
}

func TestAppendLogIsBounded(t *testing.T) {
	room := NewRoom("room-1", "alice", BoardSize, roomTime)
	for i := 0; i < MaxLogEntries+5; i++ {
		room.AppendLog(fmt.Sprint(i))
	}

	require.Len(t, room.Logs, MaxLogEntries)
	assert.Equal(t, "5", room.Logs[0])
}

func TestCloneIsDeep(t *testing.T) {
	room := NewRoom("room-1", "alice", BoardSize, roomTime)
	room.AIConfigs["alice"] = AIConfig{Key: "k"}
	room.PendingMove = &Position{X: 1, Y: 2}

	clone := room.Clone()
	clone.Players[0] = "mallory"
	clone.AIConfigs["alice"] = AIConfig{Key: "other"}
	clone.PendingMove.X = 9
	clone.Board.Set(Position{X: 0, Y: 0}, StoneWhite)

	assert.Equal(t, "alice", room.Players[0])
	assert.Equal(t, "k", room.AIConfigs["alice"].Key)
	assert.Equal(t, 1, room.PendingMove.X)
	assert.True(t, room.Board.IsEmpty(Position{X: 0, Y: 0}))
}

func TestResetGameClearsProgressButKeepsConfigs(t *testing.T) {
	room := NewRoom("room-1", "alice", BoardSize, roomTime)
	room.AddPlayer("bob")
	room.AIConfigs["alice"] = AIConfig{Key: "k"}
	room.ConfigLocked["alice"] = true
	room.ReadyStatus["alice"] = true
	room.ConfigChangesLeft["alice"] = 2
	room.Board.Set(Position{X: 7, Y: 7}, StoneBlack)
	room.Moves = append(room.Moves, Move{X: 7, Y: 7, Player: StoneBlack})
	room.Outcome = OutcomeWon
	room.Winner = StoneBlack
	room.CurrentPlayer = StoneWhite

	room.ResetGame()

	assert.Equal(t, 0, room.Board.StoneCount())
	assert.Empty(t, room.Moves)
	assert.Equal(t, OutcomeOngoing, room.Outcome)
	assert.Equal(t, StoneEmpty, room.Winner)
	assert.Equal(t, StoneBlack, room.CurrentPlayer)
	assert.False(t, room.ReadyStatus["alice"])
	assert.Equal(t, 0, room.ConfigChangesLeft["alice"])
	assert.True(t, room.ConfigLocked["alice"])
	assert.Equal(t, "k", room.AIConfigs["alice"].Key)
}

func TestAIConfigValidation(t *testing.T) {
	assert.ErrorIs(t, AIConfig{}.Validate(), ErrInvalidAIConfig)
	assert.NoError(t, AIConfig{Key: "sk-1"}.Validate())

	long := make([]rune, MaxCustomPromptLength+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.ErrorIs(t, AIConfig{Key: "sk-1", CustomPrompt: string(long)}.Validate(), ErrInvalidAIConfig)

	assert.Equal(t, DefaultAIModel, AIConfig{Key: "sk-1"}.Normalize().Model)
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("alice"))
	assert.NoError(t, ValidateUsername("abcdefghijklmnopqrst"))
	assert.ErrorIs(t, ValidateUsername(""), ErrInvalidUsername)
	assert.ErrorIs(t, ValidateUsername("abcdefghijklmnopqrstu"), ErrInvalidUsername)
	assert.ErrorIs(t, ValidateUsername("alice1"), ErrInvalidUsername)
	assert.ErrorIs(t, ValidateUsername("al ice"), ErrInvalidUsername)
	assert.ErrorIs(t, ValidateUsername("José"), ErrInvalidUsername)
	assert.ErrorIs(t, ValidateUsername("名字"), ErrInvalidUsername)
	assert.ErrorIs(t, ValidateUsername("Ωmega"), ErrInvalidUsername)
}

func TestSessionExpiry(t *testing.T) {
	sess := &Session{ID: "s", Username: "alice", CreatedAt: roomTime, LastActivity: roomTime}

	assert.False(t, sess.Expired(roomTime.Add(time.Hour), time.Hour, 24*time.Hour))
	assert.True(t, sess.Expired(roomTime.Add(time.Hour+time.Second), time.Hour, 24*time.Hour))

	sess.Touch(roomTime.Add(24 * time.Hour))
	assert.True(t, sess.Expired(roomTime.Add(24*time.Hour+time.Second), time.Hour, 24*time.Hour))
}
