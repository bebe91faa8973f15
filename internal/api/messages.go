package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/velarchat/velar/internal/store"
)

// MessageHandler handles the conversation history read path. Sending
// happens over the realtime relay, not here.
type MessageHandler struct {
	Store store.Store
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(st store.Store) *MessageHandler {
	return &MessageHandler{Store: st}
}

// GetConversation returns the full message history between the
// authenticated user and another user, both directions, oldest first.
func (h *MessageHandler) GetConversation(c *gin.Context) {
	userID := c.GetInt64("userID")

	otherID, ok := pathUserID(c)
	if !ok {
		return
	}

	messages, err := h.Store.GetMessages(userID, otherID)
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}
