package events

import (
	"testing"
	"time"

	"github.com/mcoot/gomoku-arena/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "single line data",
			eventName: "move_proposed",
			data:      `{"x":7}`,
			expected:  "event: move_proposed\ndata: {\"x\":7}\n\n",
		},
		{
			name:      "multi-line data",
			eventName: "message_sent",
			data:      "first\nsecond",
			expected:  "event: message_sent\ndata: first\ndata: second\n\n",
		},
		{
			name:      "empty data",
			eventName: "ping",
			data:      "",
			expected:  "event: ping\ndata: \n\n",
		},
		{
			name:      "data with carriage returns",
			eventName: "test",
			data:      "line1\r\nline2\r\n",
			expected:  "event: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatSSEMessage(tt.eventName, tt.data)
			if string(result) != tt.expected {
				t.Errorf("formatSSEMessage(%q, %q)\ngot:  %q\nwant: %q",
					tt.eventName, tt.data, string(result), tt.expected)
			}
		})
	}
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub("room-1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub, "alice")
	hub.Register(client)

	// Give the hub time to process registration
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, want 1", hub.ClientCount())
	}

	hub.BroadcastEvent("test-event", "test data")

	select {
	case msg := <-client.send:
		expected := "event: test-event\ndata: test data\n\n"
		if string(msg) != expected {
			t.Errorf("client received %q, want %q", string(msg), expected)
		}
	case <-time.After(time.Second):
		t.Error("client did not receive message")
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub("room-1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub, "alice")
	hub.Register(client)
	hub.Unregister(client)

	// The run loop closes the channel when it processes the unregister
	if _, ok := <-client.send; ok {
		t.Error("client channel still open after unregister")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after unregister, want 0", hub.ClientCount())
	}
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := NewHub("room-1", testutil.NopLogger())
	go hub.Run()

	client := NewClient(hub, "alice")
	hub.Register(client)

	hub.BroadcastEvent("room_deleted", "{}")
	hub.Close()

	msg, ok := <-client.send
	if !ok {
		t.Fatal("queued message lost on close")
	}
	if string(msg) != "event: room_deleted\ndata: {}\n\n" {
		t.Errorf("client received %q", string(msg))
	}

	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected channel to be closed")
		}
	case <-time.After(time.Second):
		t.Error("client channel not closed after hub close")
	}

	if hub.Register(NewClient(hub, "bob")) {
		t.Error("Register succeeded on a closed hub")
	}
}

func TestHubManager_GetOrCreateHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.CloseAll()

	hub1 := manager.GetOrCreateHub("room-1")
	if hub1 == nil {
		t.Fatal("GetOrCreateHub returned nil")
	}

	if hub2 := manager.GetOrCreateHub("room-1"); hub1 != hub2 {
		t.Error("GetOrCreateHub returned different hub for same room")
	}

	if hub3 := manager.GetOrCreateHub("room-2"); hub3 == hub1 {
		t.Error("GetOrCreateHub returned same hub for different room")
	}
}

func TestHubManager_RemoveHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())

	manager.GetOrCreateHub("room-1")
	manager.RemoveHub("room-1")

	if manager.GetHub("room-1") != nil {
		t.Error("Hub still exists after RemoveHub")
	}

	// Removing non-existent hub should not panic
	manager.RemoveHub("missing")
}

func TestHubManager_CleanupEmptyHubs(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.CloseAll()

	manager.GetOrCreateHub("empty")

	active := manager.GetOrCreateHub("active")
	active.Register(NewClient(active, "alice"))
	time.Sleep(10 * time.Millisecond)

	if removed := manager.CleanupEmptyHubs(); removed != 1 {
		t.Errorf("CleanupEmptyHubs() = %d, want 1", removed)
	}
	if manager.GetHub("empty") != nil {
		t.Error("Empty hub still exists after cleanup")
	}
	if manager.GetHub("active") == nil {
		t.Error("Active hub was removed during cleanup")
	}
}
