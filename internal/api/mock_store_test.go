package api

import (
	"github.com/stretchr/testify/mock"

	"github.com/velarchat/velar/internal/models"
)

// MockStore implements store.Store for handler tests
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetUser(id int64) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) GetUserByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) GetAllUsers() ([]*models.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockStore) CreateUser(username, passwordHash string) (*models.User, error) {
	args := m.Called(username, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) UpdateStatus(id int64, status string) (*models.User, error) {
	args := m.Called(id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) UpdateUser(id int64, update models.UserUpdate) (*models.User, error) {
	args := m.Called(id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) BanUser(id int64) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockStore) GetMessages(userA, userB int64) ([]*models.Message, error) {
	args := m.Called(userA, userB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *MockStore) CreateMessage(senderID, receiverID int64, content string) (*models.Message, error) {
	args := m.Called(senderID, receiverID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStore) DeleteMessage(id int64) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockStore) GetContacts(ownerID int64) ([]*models.User, error) {
	args := m.Called(ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockStore) AddContact(ownerID, contactID int64) error {
	args := m.Called(ownerID, contactID)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
