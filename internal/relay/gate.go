package relay

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/velarchat/velar/internal/auth"
	"github.com/velarchat/velar/internal/store"
)

// Gate is the sole admission point for realtime traffic. Every
// connection attempt must carry a session token and the user id it
// claims to be; the gate resolves the token through the injected
// SessionStore and refuses to bind a connection to any identity the
// session did not authenticate.
type Gate struct {
	hub      *Hub
	sessions auth.SessionStore
	store    store.Store
	upgrader websocket.Upgrader
}

// NewGate creates a connection gate. allowedOrigins limits websocket
// upgrades; empty means any origin is accepted.
func NewGate(hub *Hub, sessions auth.SessionStore, st store.Store, allowedOrigins []string) *Gate {
	return &Gate{
		hub:      hub,
		sessions: sessions,
		store:    st,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		for _, a := range allowed {
			if a == origin {
				return true
			}
		}
		return false
	}
}

// HandleConnection authenticates and upgrades a connection attempt.
// Handshake parameters: "token" (the session credential) and "user_id"
// (the identity the client claims). A token that does not resolve, or
// resolves to a different user than claimed, terminates the attempt;
// the gate never retries.
func (g *Gate) HandleConnection(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session token required"})
		return
	}

	userID, err := g.sessions.Resolve(token)
	if err != nil {
		log.Warn("Rejected connection from %s: session did not resolve: %v", c.Request.RemoteAddr, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
		return
	}

	claimedID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || claimedID != userID {
		log.Warn("Rejected connection from %s: claimed user %q, session resolved to user %d",
			c.Request.RemoteAddr, c.Query("user_id"), userID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "claimed identity does not match session"})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade connection from %s: %v", c.Request.RemoteAddr, err)
		return
	}

	client := &Client{
		ConnID: uuid.New(),
		UserID: userID,
		hub:    g.hub,
		store:  g.store,
		socket: conn,
		send:   make(chan []byte, 256),
	}

	g.hub.register(client)

	go client.writePump()
	go client.readPump()
}
