package relay

import (
	"encoding/json"
	"errors"

	"github.com/velarchat/velar/internal/cerr"
	"github.com/velarchat/velar/internal/models"
)

// Inbound event types
const (
	EventJoin        = "join"
	EventChatMessage = "chat_message"
)

// Outbound event types
const (
	EventNewMessage        = "new_message"
	EventUserStatusChanged = "user_status_changed"
	EventError             = "error"
)

// Event is the envelope for everything a client sends over the socket.
// Content is opaque ciphertext; the relay never inspects it.
type Event struct {
	Type       string `json:"type"`
	UserID     int64  `json:"user_id,omitempty"`
	SenderID   int64  `json:"sender_id,omitempty"`
	ReceiverID int64  `json:"receiver_id,omitempty"`
	Content    string `json:"content,omitempty"`
}

// NewMessageEvent delivers a persisted message to active connections.
type NewMessageEvent struct {
	Type    string          `json:"type"`
	Message *models.Message `json:"message"`
}

// StatusEvent announces a presence transition.
type StatusEvent struct {
	Type   string `json:"type"`
	UserID int64  `json:"user_id"`
	Status string `json:"status"`
}

// ErrorEvent reports a failure to the originating connection only.
type ErrorEvent struct {
	Type    string    `json:"type"`
	Code    cerr.Code `json:"code"`
	Message string    `json:"message"`
}

func newMessagePayload(msg *models.Message) []byte {
	payload, _ := json.Marshal(NewMessageEvent{Type: EventNewMessage, Message: msg})
	return payload
}

func statusPayload(userID int64, status string) []byte {
	payload, _ := json.Marshal(StatusEvent{Type: EventUserStatusChanged, UserID: userID, Status: status})
	return payload
}

// errorPayload turns a coded error into an error event. The wire sees
// the code and public message only; wrapped causes stay server-side.
func errorPayload(err error) []byte {
	ev := ErrorEvent{Type: EventError, Code: cerr.CodeOf(err)}

	var e *cerr.Error
	if errors.As(err, &e) {
		ev.Message = e.Message
	} else {
		ev.Message = "internal error"
	}

	payload, _ := json.Marshal(ev)
	return payload
}
