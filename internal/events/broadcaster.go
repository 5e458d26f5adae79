package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mcoot/gomoku-arena/internal/model"
)

// Publisher receives every room event the services produce
type Publisher interface {
	Publish(ctx context.Context, event model.Event)
}

// NopPublisher discards events
type NopPublisher struct{}

// Publish implements Publisher
func (NopPublisher) Publish(context.Context, model.Event) {}

// message is the JSON body of an SSE event
type message struct {
	Type      model.EventType `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	RoomID    model.RoomID    `json:"room_id"`
	Username  string          `json:"username,omitempty"`
	Payload   any             `json:"payload,omitempty"`
}

// Broadcaster publishes room events to the room's SSE hub
type Broadcaster struct {
	hubManager *HubManager
	logger     *slog.Logger
}

// Ensure Broadcaster implements Publisher
var _ Publisher = (*Broadcaster)(nil)

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// Publish sends the event to everyone watching its room. Rooms nobody watches
// have no hub and the event is dropped. A deleted room's hub is closed after
// the event goes out.
func (b *Broadcaster) Publish(ctx context.Context, event model.Event) {
	if event.Type == model.EventRoomDeleted {
		defer b.hubManager.RemoveHub(event.RoomID)
	}

	hub := b.hubManager.GetHub(event.RoomID)
	if hub == nil {
		return
	}

	data, err := json.Marshal(message(event))
	if err != nil {
		b.logger.Error("sse failed to encode event",
			slog.String("room_id", string(event.RoomID)),
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
		return
	}

	hub.BroadcastEvent(string(event.Type), string(data))
}
