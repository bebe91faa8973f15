package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/velarchat/velar/internal/auth"
	"github.com/velarchat/velar/internal/models"
	"github.com/velarchat/velar/internal/store"
)

// AuthHandler handles registration and login
type AuthHandler struct {
	Store  store.Store
	Tokens *auth.TokenManager
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(st store.Store, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{Store: st, Tokens: tokens}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.UserRegistration

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashedPassword, err := auth.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	user, err := h.Store.CreateUser(input.Username, hashedPassword)
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user.Response())
}

// Login handles user login and issues the session token consumed by
// both the HTTP middleware and the realtime gate.
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.UserLogin

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Store.GetUserByUsername(input.Username)
	if err == store.ErrUserNotFound {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		storeError(c, err)
		return
	}

	if !auth.CheckPasswordHash(input.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, expiry, err := h.Tokens.Issue(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"expiry": expiry,
		"user":   user.Response(),
	})
}

// GetMe returns the authenticated user's profile
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID := c.GetInt64("userID")

	user, err := h.Store.GetUser(userID)
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user.Response())
}
