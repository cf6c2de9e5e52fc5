package api

import (
	"encoding/json"
	"testing"

	"github.com/warelogic/grn-core/internal/infrastructure/config"
	"github.com/warelogic/grn-core/internal/infrastructure/logging"
	"github.com/warelogic/grn-core/internal/receipt"
)

func newTestHub() *Hub {
	return NewHub(config.WebSocketConfig{
		MaxMessageSize: 4096,
		PingInterval:   30,
		PongTimeout:    10,
	}, logging.Default())
}

// attachClient registers a client without a network connection. Only the
// send channel and subscriptions are exercised.
func attachClient(hub *Hub, channels ...string) *WSClient {
	c := &WSClient{
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
	}
	for _, ch := range channels {
		c.subscriptions[ch] = struct{}{}
	}
	hub.Register(c)
	return c
}

func receivedMessage(t *testing.T, c *WSClient) WSMessage {
	t.Helper()
	select {
	case raw := <-c.send:
		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("unmarshalling message: %v", err)
		}
		return msg
	default:
		t.Fatal("expected a queued message")
		return WSMessage{}
	}
}

func TestBroadcastReachesSubscribedClients(t *testing.T) {
	hub := newTestHub()
	subscribed := attachClient(hub, ChannelProgress)
	other := attachClient(hub, ChannelResult)

	hub.Broadcast(ChannelProgress, map[string]string{"batch_id": "b1"})

	msg := receivedMessage(t, subscribed)
	if msg.Type != WSTypeEvent {
		t.Errorf("type = %q, want event", msg.Type)
	}
	if msg.EventType != ChannelProgress {
		t.Errorf("event type = %q", msg.EventType)
	}
	if msg.Timestamp == "" {
		t.Error("expected a timestamp on the event")
	}

	select {
	case <-other.send:
		t.Error("unsubscribed client received the event")
	default:
	}
}

func TestBroadcastSkipsSlowClients(t *testing.T) {
	hub := newTestHub()
	c := attachClient(hub, ChannelProgress)

	// Fill the send buffer so the next broadcast has to drop.
	for i := 0; i < wsSendBufferSize; i++ {
		c.send <- []byte("{}")
	}

	// Must not block.
	hub.Broadcast(ChannelProgress, map[string]string{"batch_id": "b1"})
}

func TestUnregisterClosesSendOnce(t *testing.T) {
	hub := newTestHub()
	c := attachClient(hub, ChannelProgress)

	hub.Unregister(c)
	hub.Unregister(c) // second call must be a no-op

	if _, ok := <-c.send; ok {
		t.Error("send channel still open after unregister")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("client count = %d, want 0", hub.ClientCount())
	}

	// Broadcasting after teardown must not panic.
	hub.Broadcast(ChannelProgress, map[string]string{"batch_id": "b1"})
}

func TestProgressBroadcaster(t *testing.T) {
	hub := newTestHub()
	c := attachClient(hub, ChannelProgress, ChannelResult)
	b := NewProgressBroadcaster(hub)

	b.BatchProgress(receipt.Snapshot{BatchID: "b1", OrderNumber: "PO-1"})
	msg := receivedMessage(t, c)
	if msg.EventType != ChannelProgress {
		t.Errorf("event type = %q, want %q", msg.EventType, ChannelProgress)
	}

	var snap receipt.Snapshot
	if err := json.Unmarshal(msg.Payload, &snap); err != nil {
		t.Fatalf("unmarshalling snapshot: %v", err)
	}
	if snap.BatchID != "b1" {
		t.Errorf("batch id = %q", snap.BatchID)
	}

	b.BatchFinished(receipt.BatchResult{BatchID: "b1", ReceiptNumber: "RCV-7"})
	msg = receivedMessage(t, c)
	if msg.EventType != ChannelResult {
		t.Errorf("event type = %q, want %q", msg.EventType, ChannelResult)
	}
}
