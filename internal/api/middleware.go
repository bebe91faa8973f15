package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/velarchat/velar/internal/auth"
	"github.com/velarchat/velar/internal/store"
)

// AuthMiddleware resolves the bearer session token and sets the user id
// in the request context. The session store is injected; there is no
// ambient session state.
func AuthMiddleware(sessions auth.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")

		userID, err := sessions.Resolve(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

// RequireAdmin rejects requests from non-admin users. Must run after
// AuthMiddleware.
func RequireAdmin(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt64("userID")

		user, err := st.GetUser(userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown user"})
			c.Abort()
			return
		}

		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
