package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/warelogic/grn-core/internal/infrastructure/config"
	"github.com/warelogic/grn-core/internal/infrastructure/logging"
	"github.com/warelogic/grn-core/internal/receipt"
)

// WebSocket message types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"
)

// Broadcast channels emitted by the hub.
const (
	// ChannelProgress carries per-part submission snapshots while a batch runs.
	ChannelProgress = "receipt.progress"

	// ChannelResult carries the final batch result once a batch completes.
	ChannelResult = "receipt.result"
)

// wsSendBufferSize is the per-client outbound message buffer.
const wsSendBufferSize = 256

// WSMessage is the envelope for all WebSocket messages.
type WSMessage struct {
	Type      string          `json:"type"`
	EventType string          `json:"event_type,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// WSSubscribePayload is the payload for subscribe/unsubscribe messages.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// upgrader upgrades HTTP connections to WebSocket.
// Origin checks are handled by the CORS middleware before the upgrade.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// Hub manages all active WebSocket clients and broadcasts events to them.
type Hub struct {
	cfg     config.WebSocketConfig
	logger  *logging.Logger
	clients map[*WSClient]struct{}
	mu      sync.RWMutex
}

// WSClient represents a single connected WebSocket client.
type WSClient struct {
	hub           *Hub
	conn          *websocket.Conn
	send          chan []byte
	subscriptions map[string]struct{}
	mu            sync.RWMutex
}

// NewHub creates a WebSocket hub with the given configuration.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run blocks until the context is cancelled, then closes all clients.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client to the hub.
func (h *Hub) Register(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", count)
}

// Unregister removes a client from the hub and closes its send channel.
// Only the goroutine that removes the client closes the channel.
func (h *Hub) Unregister(c *WSClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client disconnected", "clients", count)
}

// Broadcast sends an event to every client subscribed to the channel.
//
// The payload is marshalled once and delivery is non-blocking: clients
// with a full send buffer skip the message rather than stalling the batch.
func (h *Hub) Broadcast(channel string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshalling websocket event", "channel", channel, "error", err)
		return
	}
	msg, err := json.Marshal(WSMessage{
		Type:      WSTypeEvent,
		EventType: channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   raw,
	})
	if err != nil {
		h.logger.Error("marshalling websocket envelope", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if c.isSubscribed(channel) {
			c.trySend(msg)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAll disconnects every client.
func (h *Hub) closeAll() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// handleWebSocket upgrades the connection and starts the client pumps.
//
//	GET /api/v1/ws
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		hub:           s.hub,
		conn:          conn,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
	}
	s.hub.Register(client)

	go client.writePump()
	go client.readPump()
}

// readPump reads messages from the client until the connection closes.
func (c *WSClient) readPump() {
	defer func() {
		c.hub.Unregister(c)
		//nolint:errcheck // connection is being torn down
		c.conn.Close()
	}()

	c.conn.SetReadLimit(int64(c.hub.cfg.MaxMessageSize))
	pongWait := time.Duration(c.hub.cfg.PingInterval+c.hub.cfg.PongTimeout) * time.Second
	//nolint:errcheck // deadline on a live connection cannot fail
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		//nolint:errcheck // deadline on a live connection cannot fail
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("websocket read error", "error", err)
			}
			return
		}
		c.handleMessage(raw)
	}
}

// writePump writes queued messages and keepalive pings to the client.
func (c *WSClient) writePump() {
	ticker := time.NewTicker(time.Duration(c.hub.cfg.PingInterval) * time.Second)
	defer func() {
		ticker.Stop()
		//nolint:errcheck // connection is being torn down
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				//nolint:errcheck // best-effort close frame
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches an inbound client message.
func (c *WSClient) handleMessage(raw []byte) {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("invalid message format")
		return
	}

	switch msg.Type {
	case WSTypeSubscribe:
		c.handleSubscribe(msg.Payload)
	case WSTypeUnsubscribe:
		c.handleUnsubscribe(msg.Payload)
	case WSTypePing:
		c.sendResponse(WSTypePong, nil)
	default:
		c.sendError("unknown message type: " + msg.Type)
	}
}

// handleSubscribe adds the requested channels to the client's subscriptions.
func (c *WSClient) handleSubscribe(payload json.RawMessage) {
	var sub WSSubscribePayload
	if err := json.Unmarshal(payload, &sub); err != nil {
		c.sendError("invalid subscribe payload")
		return
	}

	c.mu.Lock()
	for _, ch := range sub.Channels {
		c.subscriptions[ch] = struct{}{}
	}
	c.mu.Unlock()

	c.sendResponse(WSTypeResponse, map[string]any{"subscribed": sub.Channels})
}

// handleUnsubscribe removes the requested channels from the client's subscriptions.
func (c *WSClient) handleUnsubscribe(payload json.RawMessage) {
	var sub WSSubscribePayload
	if err := json.Unmarshal(payload, &sub); err != nil {
		c.sendError("invalid unsubscribe payload")
		return
	}

	c.mu.Lock()
	for _, ch := range sub.Channels {
		delete(c.subscriptions, ch)
	}
	c.mu.Unlock()

	c.sendResponse(WSTypeResponse, map[string]any{"unsubscribed": sub.Channels})
}

// isSubscribed reports whether the client subscribed to the channel.
func (c *WSClient) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[channel]
	return ok
}

// trySend queues a message without blocking. A send on a closed channel
// panics during teardown races; the recover keeps broadcasts safe.
func (c *WSClient) trySend(msg []byte) {
	defer func() {
		//nolint:errcheck // recover from send on closed channel
		recover()
	}()

	select {
	case c.send <- msg:
	default:
		// Slow client, drop the message.
	}
}

// sendResponse marshals and queues a typed response message.
func (c *WSClient) sendResponse(msgType string, payload any) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return
		}
	}
	msg, err := json.Marshal(WSMessage{Type: msgType, Payload: raw})
	if err != nil {
		return
	}
	c.trySend(msg)
}

// sendError queues an error message to the client.
func (c *WSClient) sendError(message string) {
	raw, _ := json.Marshal(map[string]string{"message": message})
	msg, err := json.Marshal(WSMessage{Type: WSTypeError, Payload: raw})
	if err != nil {
		return
	}
	c.trySend(msg)
}

// ProgressBroadcaster forwards batch progress onto the WebSocket hub.
//
// It implements receipt.Observer: snapshots go out on ChannelProgress and
// the final result on ChannelResult.
type ProgressBroadcaster struct {
	hub *Hub
}

// NewProgressBroadcaster creates an observer that broadcasts through the hub.
func NewProgressBroadcaster(hub *Hub) *ProgressBroadcaster {
	return &ProgressBroadcaster{hub: hub}
}

// BatchProgress broadcasts a submission snapshot.
func (b *ProgressBroadcaster) BatchProgress(snap receipt.Snapshot) {
	b.hub.Broadcast(ChannelProgress, snap)
}

// BatchFinished broadcasts the final batch result.
func (b *ProgressBroadcaster) BatchFinished(result receipt.BatchResult) {
	b.hub.Broadcast(ChannelResult, result)
}
