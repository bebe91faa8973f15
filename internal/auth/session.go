package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/velarchat/velar/internal/logger"
	"github.com/velarchat/velar/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")

	log = logger.New("auth")
)

// SessionStore resolves an opaque session token to the user identity it
// was issued for. The realtime gate and the HTTP middleware both consume
// this interface; neither ever mutates session state.
type SessionStore interface {
	Resolve(token string) (int64, error)
}

// Claims represents the claims in a session token
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenManager issues and resolves signed session tokens. It implements
// SessionStore.
type TokenManager struct {
	key []byte
	ttl time.Duration
}

// NewTokenManager creates a token manager with the given signing key.
func NewTokenManager(key []byte) *TokenManager {
	return &TokenManager{key: key, ttl: 24 * time.Hour}
}

// Issue creates a new session token for a user
func (m *TokenManager) Issue(user *models.User) (string, time.Time, error) {
	if user == nil {
		return "", time.Time{}, errors.New("user cannot be nil")
	}

	if user.ID == 0 {
		return "", time.Time{}, errors.New("user ID cannot be empty")
	}

	expirationTime := time.Now().Add(m.ttl)

	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.key)

	return tokenString, expirationTime, err
}

// Validate checks a session token and returns the claims
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			log.Error("Unexpected signing method: %v", token.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.key, nil
	})

	if err != nil {
		// Callers must not be able to distinguish forged from expired
		// credentials; the parse detail stays in the log.
		log.Debug("Token validation error: %v", err)
		return nil, ErrInvalidToken
	}

	if !token.Valid {
		log.Warn("Token is invalid")
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Resolve implements SessionStore: it maps a session token to the user
// identity it was issued for.
func (m *TokenManager) Resolve(token string) (int64, error) {
	claims, err := m.Validate(token)
	if err != nil {
		return 0, err
	}
	if claims.UserID == 0 {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}
