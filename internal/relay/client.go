package relay

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/velarchat/velar/internal/cerr"
	"github.com/velarchat/velar/internal/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client is the binding between one live connection and the user it
// authenticated as. UserID is fixed by the gate before the first pump
// starts; no event can rebind it.
type Client struct {
	ConnID uuid.UUID
	UserID int64

	hub    *Hub
	store  store.Store
	socket *websocket.Conn
	send   chan []byte
}

// trySend queues a payload for the write pump, dropping it if the
// connection cannot keep up. Delivery is at-most-once per connection.
func (c *Client) trySend(payload []byte) {
	select {
	case c.send <- payload:
	default:
		log.Warn("Send buffer full for connection %s (user %d), dropping payload", c.ConnID, c.UserID)
	}
}

// readPump processes inbound events strictly in arrival order for this
// connection, then unregisters it when the socket dies, which the hub
// treats the same as an explicit logout.
func (c *Client) readPump() {
	// Unregistering closes the send channel; the write pump drains what
	// is still queued (a final error event, say) and closes the socket.
	defer c.hub.unregister(c)

	c.socket.SetReadLimit(maxMessageSize)
	c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	joined := false

	for {
		_, raw, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Info("Connection %s lost: %v", c.ConnID, err)
			} else {
				log.Debug("Connection %s closed: %v", c.ConnID, err)
			}
			break
		}

		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.trySend(errorPayload(cerr.Invalid("malformed event")))
			continue
		}

		switch ev.Type {
		case EventJoin:
			// The identity claimed at join must be the one the session
			// resolved to at the handshake. Anything else ends the
			// connection.
			if ev.UserID != c.UserID {
				log.Warn("Join for user %d on connection %s authenticated as user %d, closing",
					ev.UserID, c.ConnID, c.UserID)
				c.trySend(errorPayload(cerr.Unauthenticated("join identity does not match session")))
				return
			}
			c.hub.join(c)
			joined = true

		case EventChatMessage:
			c.handleChat(ev, joined)

		default:
			c.trySend(errorPayload(cerr.Invalid("unknown event type")))
		}
	}
}

// handleChat validates, persists and fans out one chat event. Failures
// are reported to this connection only; delivery never runs unless the
// message was persisted.
func (c *Client) handleChat(ev Event, joined bool) {
	if ev.SenderID != c.UserID {
		log.Warn("Rejected chat event claiming sender %d on connection %s bound to user %d",
			ev.SenderID, c.ConnID, c.UserID)
		c.trySend(errorPayload(cerr.Unauthorized("sender does not match authenticated user")))
		return
	}

	if !joined {
		c.trySend(errorPayload(cerr.Invalid("join required before sending messages")))
		return
	}

	// Both endpoints must exist at send time; the store does not check.
	if _, err := c.store.GetUser(c.UserID); err != nil {
		c.sendLookupError(err, "sender")
		return
	}
	if _, err := c.store.GetUser(ev.ReceiverID); err != nil {
		c.sendLookupError(err, "receiver")
		return
	}

	msg, err := c.store.CreateMessage(ev.SenderID, ev.ReceiverID, ev.Content)
	if err != nil {
		log.Error("Failed to persist message from user %d to user %d: %v", ev.SenderID, ev.ReceiverID, err)
		c.trySend(errorPayload(cerr.Persistence("failed to persist message", err)))
		return
	}

	c.hub.deliver(msg.SenderID, msg.ReceiverID, newMessagePayload(msg))
}

func (c *Client) sendLookupError(err error, who string) {
	if errors.Is(err, store.ErrUserNotFound) {
		c.trySend(errorPayload(cerr.NotFound(who + " does not exist")))
		return
	}
	log.Error("User lookup failed on connection %s: %v", c.ConnID, err)
	c.trySend(errorPayload(cerr.Persistence("user lookup failed", err)))
}

// writePump pushes queued payloads to the socket and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.socket.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(payload)

			// Flush whatever else is already queued
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
