package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velarchat/velar/internal/models"
)

func TestCreateUser(t *testing.T) {
	s := NewMemoryStore()

	user, err := s.CreateUser("alice", "hash-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.StatusOffline, user.Status)
	assert.False(t, user.IsAdmin)

	second, err := s.CreateUser("bob", "hash-b")
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.CreateUser("alice", "hash-a")
	require.NoError(t, err)

	_, err = s.CreateUser("alice", "hash-b")
	assert.Equal(t, ErrDuplicateUsername, err)

	// The collision must not have created a second record.
	users, err := s.GetAllUsers()
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestGetUserByUsername(t *testing.T) {
	s := NewMemoryStore()

	created, err := s.CreateUser("alice", "hash-a")
	require.NoError(t, err)

	user, err := s.GetUserByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	// Usernames are case-sensitive.
	_, err = s.GetUserByUsername("Alice")
	assert.Equal(t, ErrUserNotFound, err)
}

func TestUpdateStatus(t *testing.T) {
	s := NewMemoryStore()

	user, err := s.CreateUser("alice", "hash-a")
	require.NoError(t, err)
	before := user.LastSeen

	updated, err := s.UpdateStatus(user.ID, models.StatusOnline)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOnline, updated.Status)
	assert.False(t, updated.LastSeen.Before(before))

	_, err = s.UpdateStatus(999, models.StatusOnline)
	assert.Equal(t, ErrUserNotFound, err)
}

func TestUpdateUser(t *testing.T) {
	s := NewMemoryStore()

	alice, err := s.CreateUser("alice", "hash-a")
	require.NoError(t, err)
	_, err = s.CreateUser("bob", "hash-b")
	require.NoError(t, err)

	newName := "alice2"
	isAdmin := true
	updated, err := s.UpdateUser(alice.ID, models.UserUpdate{Username: &newName, IsAdmin: &isAdmin})
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)
	assert.True(t, updated.IsAdmin)

	taken := "bob"
	_, err = s.UpdateUser(alice.ID, models.UserUpdate{Username: &taken})
	assert.Equal(t, ErrDuplicateUsername, err)

	_, err = s.UpdateUser(999, models.UserUpdate{})
	assert.Equal(t, ErrUserNotFound, err)
}

func TestUpdateUserPublicKey(t *testing.T) {
	s := NewMemoryStore()

	alice, err := s.CreateUser("alice", "hash-a")
	require.NoError(t, err)

	key := models.Base64Bytes("public-key-material")
	updated, err := s.UpdateUser(alice.ID, models.UserUpdate{PublicKey: &key})
	require.NoError(t, err)
	assert.Equal(t, key, updated.PublicKey)

	fetched, err := s.GetUser(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, key, fetched.PublicKey)
}

func TestBanUserPurgesContacts(t *testing.T) {
	s := NewMemoryStore()

	alice, _ := s.CreateUser("alice", "h")
	bob, _ := s.CreateUser("bob", "h")
	carol, _ := s.CreateUser("carol", "h")

	require.NoError(t, s.AddContact(alice.ID, bob.ID))
	require.NoError(t, s.AddContact(alice.ID, carol.ID))
	require.NoError(t, s.AddContact(bob.ID, alice.ID))

	require.NoError(t, s.BanUser(bob.ID))

	_, err := s.GetUser(bob.ID)
	assert.Equal(t, ErrUserNotFound, err)

	// Bob is gone from everyone's contact list.
	contacts, err := s.GetContacts(alice.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, carol.ID, contacts[0].ID)

	// Bob's own edges are gone too.
	contacts, err = s.GetContacts(bob.ID)
	require.NoError(t, err)
	assert.Empty(t, contacts)

	// Banning twice is a no-op, not an error.
	assert.NoError(t, s.BanUser(bob.ID))
}

func TestGetContactsDropsUnresolvableIDs(t *testing.T) {
	s := NewMemoryStore()

	alice, _ := s.CreateUser("alice", "h")
	bob, _ := s.CreateUser("bob", "h")

	require.NoError(t, s.AddContact(alice.ID, bob.ID))
	// The store does not validate edge targets.
	require.NoError(t, s.AddContact(alice.ID, 999))

	contacts, err := s.GetContacts(alice.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, bob.ID, contacts[0].ID)
}

func TestAddContactIdempotent(t *testing.T) {
	s := NewMemoryStore()

	alice, _ := s.CreateUser("alice", "h")
	bob, _ := s.CreateUser("bob", "h")

	require.NoError(t, s.AddContact(alice.ID, bob.ID))
	require.NoError(t, s.AddContact(alice.ID, bob.ID))

	contacts, err := s.GetContacts(alice.ID)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)

	// Edges are directed: bob never added alice.
	contacts, err = s.GetContacts(bob.ID)
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestGetMessagesInterleavedOrdering(t *testing.T) {
	s := NewMemoryStore()

	alice, _ := s.CreateUser("alice", "h")
	bob, _ := s.CreateUser("bob", "h")
	carol, _ := s.CreateUser("carol", "h")

	// Interleave both directions plus an unrelated conversation.
	var want []int64
	for i := 0; i < 10; i++ {
		var msg *models.Message
		var err error
		if i%2 == 0 {
			msg, err = s.CreateMessage(alice.ID, bob.ID, fmt.Sprintf("a->b %d", i))
		} else {
			msg, err = s.CreateMessage(bob.ID, alice.ID, fmt.Sprintf("b->a %d", i))
		}
		require.NoError(t, err)
		want = append(want, msg.ID)

		_, err = s.CreateMessage(alice.ID, carol.ID, "noise")
		require.NoError(t, err)
	}

	messages, err := s.GetMessages(alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, messages, len(want))
	for i, msg := range messages {
		assert.Equal(t, want[i], msg.ID)
		if i > 0 {
			assert.False(t, msg.CreatedAt.Before(messages[i-1].CreatedAt))
		}
	}

	// Argument order does not matter.
	reversed, err := s.GetMessages(bob.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, reversed, len(want))
	assert.Equal(t, messages[0].ID, reversed[0].ID)
}

func TestCreateMessageDoesNotValidateUsers(t *testing.T) {
	s := NewMemoryStore()

	// Existence checks belong to the relay.
	msg, err := s.CreateMessage(42, 43, "opaque")
	require.NoError(t, err)
	assert.Equal(t, int64(42), msg.SenderID)
	assert.Equal(t, int64(43), msg.ReceiverID)
}

func TestDeleteMessage(t *testing.T) {
	s := NewMemoryStore()

	msg, err := s.CreateMessage(1, 2, "opaque")
	require.NoError(t, err)

	require.NoError(t, s.DeleteMessage(msg.ID))
	assert.Equal(t, ErrMessageNotFound, s.DeleteMessage(msg.ID))
}

func TestConcurrentIDAssignment(t *testing.T) {
	s := NewMemoryStore()

	const n = 100
	var wg sync.WaitGroup
	userIDs := make(chan int64, n)
	messageIDs := make(chan int64, n)

	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			user, err := s.CreateUser(fmt.Sprintf("user-%d", i), "h")
			if err != nil {
				t.Errorf("CreateUser failed: %v", err)
				return
			}
			userIDs <- user.ID
		}(i)
		go func() {
			defer wg.Done()
			msg, err := s.CreateMessage(1, 2, "opaque")
			if err != nil {
				t.Errorf("CreateMessage failed: %v", err)
				return
			}
			messageIDs <- msg.ID
		}()
	}
	wg.Wait()
	close(userIDs)
	close(messageIDs)

	seenUsers := make(map[int64]bool)
	for id := range userIDs {
		assert.False(t, seenUsers[id], "duplicate user id %d", id)
		seenUsers[id] = true
	}
	assert.Len(t, seenUsers, n)

	seenMessages := make(map[int64]bool)
	for id := range messageIDs {
		assert.False(t, seenMessages[id], "duplicate message id %d", id)
		seenMessages[id] = true
	}
	assert.Len(t, seenMessages, n)
}
