package models

import "time"

// Message represents a chat message in the system. Content is ciphertext
// produced by the clients; the server stores and relays it without ever
// interpreting it. Messages are immutable once created.
type Message struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
