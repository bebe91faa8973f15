package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velarchat/velar/internal/auth"
	"github.com/velarchat/velar/internal/models"
	"github.com/velarchat/velar/internal/store"
)

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tokens := auth.NewTokenManager([]byte("middleware-test-key"))
	token, _, err := tokens.Issue(&models.User{ID: 7, Username: "alice"})
	require.NoError(t, err)

	router := gin.New()
	router.Use(AuthMiddleware(tokens))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetInt64("userID")})
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{
			name:       "valid token",
			header:     "Bearer " + token,
			wantStatus: http.StatusOK,
		},
		{
			name:       "no header",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing Bearer prefix",
			header:     token,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			header:     "Bearer invalid.token.string",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"userID":7`)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	user, err := st.CreateUser("alice", "h")
	require.NoError(t, err)
	isAdmin := true
	admin, err := st.CreateUser("root", "h")
	require.NoError(t, err)
	_, err = st.UpdateUser(admin.ID, models.UserUpdate{IsAdmin: &isAdmin})
	require.NoError(t, err)

	// Build the chain with an auth stub that binds the given identity.
	run := func(userID int64) int {
		r := gin.New()
		r.Use(func(c *gin.Context) { c.Set("userID", userID) })
		r.Use(RequireAdmin(st))
		r.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest("GET", "/admin", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, run(admin.ID))
	assert.Equal(t, http.StatusForbidden, run(user.ID))
	assert.Equal(t, http.StatusUnauthorized, run(999))
}
