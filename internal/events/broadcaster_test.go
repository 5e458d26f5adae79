package events

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gomoku-arena/internal/model"
	"github.com/mcoot/gomoku-arena/internal/testutil"
)

func receive(t *testing.T, client *Client) string {
	t.Helper()
	select {
	case msg, ok := <-client.send:
		require.True(t, ok, "client channel closed")
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("client did not receive message")
		return ""
	}
}

func TestBroadcaster_PublishEncodesEvent(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.CloseAll()
	broadcaster := NewBroadcaster(manager, testutil.NopLogger())

	hub := manager.GetOrCreateHub("room-1")
	client := NewClient(hub, "bob")
	hub.Register(client)

	broadcaster.Publish(context.Background(), model.Event{
		Type:      model.EventMoveProposed,
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		RoomID:    "room-1",
		Username:  "alice",
		Payload:   model.MoveProposedPayload{Move: model.Position{X: 7, Y: 7}, Player: model.StoneBlack},
	})

	msg := receive(t, client)
	require.True(t, strings.HasPrefix(msg, "event: move_proposed\ndata: "))

	data := strings.TrimSuffix(strings.TrimPrefix(msg, "event: move_proposed\ndata: "), "\n\n")
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(data), &decoded))
	assert.Equal(t, "move_proposed", decoded["type"])
	assert.Equal(t, "room-1", decoded["room_id"])
	assert.Equal(t, "alice", decoded["username"])

	payload := decoded["payload"].(map[string]any)
	assert.Equal(t, float64(1), payload["player"])
	assert.Equal(t, map[string]any{"x": float64(7), "y": float64(7)}, payload["move"])
}

func TestBroadcaster_PublishWithoutWatchersIsDropped(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	broadcaster := NewBroadcaster(manager, testutil.NopLogger())

	broadcaster.Publish(context.Background(), model.Event{Type: model.EventPlayerJoined, RoomID: "room-1"})

	assert.Nil(t, manager.GetHub("room-1"), "publishing must not create hubs")
}

func TestBroadcaster_RoomDeletedClosesHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	broadcaster := NewBroadcaster(manager, testutil.NopLogger())

	hub := manager.GetOrCreateHub("room-1")
	client := NewClient(hub, "bob")
	hub.Register(client)

	broadcaster.Publish(context.Background(), model.Event{Type: model.EventRoomDeleted, RoomID: "room-1"})

	msg := receive(t, client)
	assert.True(t, strings.HasPrefix(msg, "event: room_deleted\n"))
	assert.Nil(t, manager.GetHub("room-1"))
}
