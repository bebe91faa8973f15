package relay

import (
	"sync"

	"github.com/google/uuid"

	"github.com/velarchat/velar/internal/logger"
	"github.com/velarchat/velar/internal/models"
	"github.com/velarchat/velar/internal/store"
)

var log = logger.New("relay")

// Hub tracks every accepted connection and the per-user presence sets.
// All set mutation happens under one mutex, so the decision to flip a
// user online or offline is atomic with the membership change that
// caused it: a disconnect racing a fresh join from another device can
// never leave the visible status out of sync with the live set.
type Hub struct {
	store store.Store

	mutex    sync.Mutex
	clients  map[uuid.UUID]*Client
	presence map[int64]map[uuid.UUID]*Client
}

// NewHub creates a hub backed by the given store.
func NewHub(st store.Store) *Hub {
	return &Hub{
		store:    st,
		clients:  make(map[uuid.UUID]*Client),
		presence: make(map[int64]map[uuid.UUID]*Client),
	}
}

// register adds an accepted connection. The connection carries no
// presence until its join event is validated.
func (h *Hub) register(c *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[c.ConnID] = c
	log.Info("Connection %s registered for user %d", c.ConnID, c.UserID)
}

// unregister removes a connection. If it was the user's last joined
// connection, the user transitions to offline and the change is
// announced to every connected client.
func (h *Hub) unregister(c *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[c.ConnID]; !ok {
		return
	}
	delete(h.clients, c.ConnID)
	close(c.send)

	set, ok := h.presence[c.UserID]
	if !ok {
		return
	}
	if _, joined := set[c.ConnID]; !joined {
		return
	}

	delete(set, c.ConnID)
	if len(set) == 0 {
		delete(h.presence, c.UserID)
		h.transitionLocked(c.UserID, models.StatusOffline)
	}
	log.Info("Connection %s for user %d disconnected", c.ConnID, c.UserID)
}

// join adds a connection to its user's presence set. The first joined
// connection flips the user online. Joining twice on one connection is
// a no-op.
func (h *Hub) join(c *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[c.ConnID]; !ok {
		// Connection already unregistered; nothing to join.
		return
	}

	set, ok := h.presence[c.UserID]
	if !ok {
		set = make(map[uuid.UUID]*Client)
		h.presence[c.UserID] = set
	}
	if _, joined := set[c.ConnID]; joined {
		return
	}

	set[c.ConnID] = c
	if len(set) == 1 {
		h.transitionLocked(c.UserID, models.StatusOnline)
	}
	log.Info("Connection %s joined as user %d", c.ConnID, c.UserID)
}

// transitionLocked records a presence flip and announces it to every
// connected client. Callers hold the mutex.
func (h *Hub) transitionLocked(userID int64, status string) {
	if _, err := h.store.UpdateStatus(userID, status); err != nil {
		// A user banned mid-session has no record left to update; the
		// broadcast still reflects the live connection set.
		log.Warn("Failed to persist status %s for user %d: %v", status, userID, err)
	}
	h.broadcastLocked(statusPayload(userID, status))
}

func (h *Hub) broadcastLocked(payload []byte) {
	for _, client := range h.clients {
		client.trySend(payload)
	}
}

// deliver sends a payload to every connection currently joined as the
// sender or the receiver. Self-delivery to the sender's other
// connections keeps multiple devices in sync.
func (h *Hub) deliver(senderID, receiverID int64, payload []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for _, client := range h.presence[senderID] {
		client.trySend(payload)
	}
	if receiverID == senderID {
		return
	}
	for _, client := range h.presence[receiverID] {
		client.trySend(payload)
	}
}

// OnlineConnections reports how many joined connections a user has.
func (h *Hub) OnlineConnections(userID int64) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.presence[userID])
}

// ConnectionCount reports how many connections are registered, joined
// or not.
func (h *Hub) ConnectionCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}
