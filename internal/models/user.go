package models

import "time"

// Presence status values for a user.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// User represents an account in the chat system
type User struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"`
	PasswordHash string      `json:"-"` // Never send to client
	IsAdmin      bool        `json:"is_admin"`
	Status       string      `json:"status"`
	PublicKey    Base64Bytes `json:"public_key,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	LastSeen     time.Time   `json:"last_seen"`
}

// UserRegistration contains data needed for user registration
type UserRegistration struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Password string `json:"password" binding:"required,min=5"`
}

// UserLogin contains data needed for user login
type UserLogin struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserUpdate carries the mutable fields of a user. A nil field is left
// unchanged.
type UserUpdate struct {
	Username  *string      `json:"username,omitempty"`
	IsAdmin   *bool        `json:"is_admin,omitempty"`
	PublicKey *Base64Bytes `json:"public_key,omitempty"`
}

// UserResponse is what we return to the client
type UserResponse struct {
	ID        int64       `json:"id"`
	Username  string      `json:"username"`
	IsAdmin   bool        `json:"is_admin"`
	Status    string      `json:"status"`
	PublicKey Base64Bytes `json:"public_key,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	LastSeen  time.Time   `json:"last_seen"`
}

// Response strips the credential fields off a user.
func (u *User) Response() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		IsAdmin:   u.IsAdmin,
		Status:    u.Status,
		PublicKey: u.PublicKey,
		CreatedAt: u.CreatedAt,
		LastSeen:  u.LastSeen,
	}
}
