package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/velarchat/velar/internal/logger"
	"github.com/velarchat/velar/internal/models"
	"github.com/velarchat/velar/internal/store"
)

var log = logger.New("api")

// UserHandler handles the user directory and admin moderation routes
type UserHandler struct {
	Store store.Store
}

// NewUserHandler creates a new user handler
func NewUserHandler(st store.Store) *UserHandler {
	return &UserHandler{Store: st}
}

func pathUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return 0, false
	}
	return id, true
}

// ListUsers returns every user in the directory
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.Store.GetAllUsers()
	if err != nil {
		storeError(c, err)
		return
	}

	responses := make([]models.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, user.Response())
	}
	c.JSON(http.StatusOK, responses)
}

// GetUser returns a single user
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathUserID(c)
	if !ok {
		return
	}

	user, err := h.Store.GetUser(id)
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user.Response())
}

// UpdateUser applies a partial update to a user (admin only)
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := pathUserID(c)
	if !ok {
		return
	}

	var update models.UserUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Store.UpdateUser(id, update)
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user.Response())
}

// BanUser hard-deletes a user and purges it from every contact list
// (admin only)
func (h *UserHandler) BanUser(c *gin.Context) {
	id, ok := pathUserID(c)
	if !ok {
		return
	}

	if err := h.Store.BanUser(id); err != nil {
		storeError(c, err)
		return
	}

	log.Info("User %d banned by admin %d", id, c.GetInt64("userID"))
	c.JSON(http.StatusOK, gin.H{"message": "User banned"})
}

// UploadKey stores the caller's public key material. The server never
// uses the key itself; it only hands it out to other clients.
func (h *UserHandler) UploadKey(c *gin.Context) {
	userID := c.GetInt64("userID")

	var input struct {
		PublicKey models.Base64Bytes `json:"public_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Store.UpdateUser(userID, models.UserUpdate{PublicKey: &input.PublicKey})
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user.Response())
}
