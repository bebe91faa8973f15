// Package store owns all durable chat state: users, contact edges and
// messages. It is the only place persisted state is mutated.
package store

import (
	"errors"
	"fmt"

	"github.com/velarchat/velar/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrMessageNotFound   = errors.New("message not found")
)

// Store is the directory of users, contacts and messages.
//
// CreateMessage deliberately does not check that sender and receiver
// exist; that validation belongs to the relay, which holds the
// authenticated connection identity.
type Store interface {
	// User methods
	GetUser(id int64) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	GetAllUsers() ([]*models.User, error)
	CreateUser(username, passwordHash string) (*models.User, error)
	UpdateStatus(id int64, status string) (*models.User, error)
	UpdateUser(id int64, update models.UserUpdate) (*models.User, error)
	BanUser(id int64) error

	// Message methods
	GetMessages(userA, userB int64) ([]*models.Message, error)
	CreateMessage(senderID, receiverID int64, content string) (*models.Message, error)
	DeleteMessage(id int64) error

	// Contact methods
	GetContacts(ownerID int64) ([]*models.User, error)
	AddContact(ownerID, contactID int64) error

	Close() error
}

type BackendType string

const (
	Memory     BackendType = "memory"
	PostgreSQL BackendType = "postgres"
)

// NewStore creates a store of the requested backend. connStr is ignored
// by the memory backend.
func NewStore(backend BackendType, connStr string) (Store, error) {
	switch backend {
	case Memory:
		return NewMemoryStore(), nil
	case PostgreSQL:
		return NewPostgresStore(connStr)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", backend)
	}
}
