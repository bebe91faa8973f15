package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/velarchat/velar/internal/models"
	"github.com/velarchat/velar/internal/store"
)

// ContactHandler handles contact list routes
type ContactHandler struct {
	Store store.Store
}

// NewContactHandler creates a new contact handler
func NewContactHandler(st store.Store) *ContactHandler {
	return &ContactHandler{Store: st}
}

// ListContacts returns the authenticated user's contacts
func (h *ContactHandler) ListContacts(c *gin.Context) {
	userID := c.GetInt64("userID")

	contacts, err := h.Store.GetContacts(userID)
	if err != nil {
		storeError(c, err)
		return
	}

	responses := make([]models.UserResponse, 0, len(contacts))
	for _, contact := range contacts {
		responses = append(responses, contact.Response())
	}
	c.JSON(http.StatusOK, responses)
}

// AddContact adds a directed contact edge from the authenticated user.
// Contact edges are asymmetric; the target user is not notified and
// gains no edge of their own.
func (h *ContactHandler) AddContact(c *gin.Context) {
	userID := c.GetInt64("userID")

	var input struct {
		ContactID int64 `json:"contact_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The store does not validate edge targets; the CRUD layer does.
	if _, err := h.Store.GetUser(input.ContactID); err != nil {
		storeError(c, err)
		return
	}

	if err := h.Store.AddContact(userID, input.ContactID); err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Contact added"})
}
