package store

import (
	"sort"
	"sync"
	"time"

	"github.com/velarchat/velar/internal/models"
)

// MemoryStore keeps everything in process-local maps guarded by a single
// mutex. Id counters are distinct sequences for users and messages and
// are only advanced under the lock, so concurrent creates never reuse an
// id.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[int64]*models.User
	messages      map[int64]*models.Message
	contacts      map[int64]map[int64]struct{} // ownerID -> set of contactID
	nextUserID    int64
	nextMessageID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]*models.User),
		messages: make(map[int64]*models.Message),
		contacts: make(map[int64]map[int64]struct{}),
	}
}

// cloneUser copies a user record so callers never share the map's
// mutable entry.
func cloneUser(u *models.User) *models.User {
	cp := *u
	if u.PublicKey != nil {
		cp.PublicKey = append(models.Base64Bytes(nil), u.PublicKey...)
	}
	return &cp
}

func (s *MemoryStore) GetUser(id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (s *MemoryStore) GetUserByUsername(username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Linear scan; fine at this scale, index before using in production.
	for _, user := range s.users {
		if user.Username == username {
			return cloneUser(user), nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *MemoryStore) GetAllUsers() ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, cloneUser(user))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *MemoryStore) CreateUser(username, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Username == username {
			return nil, ErrDuplicateUsername
		}
	}

	s.nextUserID++
	now := time.Now().UTC()
	user := &models.User{
		ID:           s.nextUserID,
		Username:     username,
		PasswordHash: passwordHash,
		Status:       models.StatusOffline,
		CreatedAt:    now,
		LastSeen:     now,
	}
	s.users[user.ID] = user

	return cloneUser(user), nil
}

func (s *MemoryStore) UpdateStatus(id int64, status string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	user.Status = status
	user.LastSeen = time.Now().UTC()
	return cloneUser(user), nil
}

func (s *MemoryStore) UpdateUser(id int64, update models.UserUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	if update.Username != nil {
		for otherID, other := range s.users {
			if otherID != id && other.Username == *update.Username {
				return nil, ErrDuplicateUsername
			}
		}
		user.Username = *update.Username
	}
	if update.IsAdmin != nil {
		user.IsAdmin = *update.IsAdmin
	}
	if update.PublicKey != nil {
		user.PublicKey = append(models.Base64Bytes(nil), *update.PublicKey...)
	}

	return cloneUser(user), nil
}

// BanUser hard-deletes the user and every contact edge naming it on
// either end. Banning an id that is already gone is a no-op.
func (s *MemoryStore) BanUser(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, id)
	delete(s.contacts, id)
	for _, set := range s.contacts {
		delete(set, id)
	}
	return nil
}

func (s *MemoryStore) GetMessages(userA, userB int64) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var messages []*models.Message
	for _, msg := range s.messages {
		if (msg.SenderID == userA && msg.ReceiverID == userB) ||
			(msg.SenderID == userB && msg.ReceiverID == userA) {
			cp := *msg
			messages = append(messages, &cp)
		}
	}

	sort.Slice(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

func (s *MemoryStore) CreateMessage(senderID, receiverID int64, content string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextMessageID++
	msg := &models.Message{
		ID:         s.nextMessageID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	s.messages[msg.ID] = msg

	cp := *msg
	return &cp, nil
}

func (s *MemoryStore) DeleteMessage(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[id]; !ok {
		return ErrMessageNotFound
	}
	delete(s.messages, id)
	return nil
}

// GetContacts resolves the owner's contact set to user records, silently
// dropping ids that no longer resolve (banned users).
func (s *MemoryStore) GetContacts(ownerID int64) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var contacts []*models.User
	for contactID := range s.contacts[ownerID] {
		if user, ok := s.users[contactID]; ok {
			contacts = append(contacts, cloneUser(user))
		}
	}
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].ID < contacts[j].ID })
	return contacts, nil
}

// AddContact inserts a directed contact edge. Re-adding an existing edge
// is a no-op. Existence of contactID is the caller's concern.
func (s *MemoryStore) AddContact(ownerID, contactID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.contacts[ownerID]
	if !ok {
		set = make(map[int64]struct{})
		s.contacts[ownerID] = set
	}
	set[contactID] = struct{}{}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
