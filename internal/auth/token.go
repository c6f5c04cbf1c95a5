package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims the portal backend issues for its callers.
type Claims struct {
	OrganizationID string   `json:"org_id"`
	Roles          []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenManager verifies bearer tokens issued by the auth service.
type TokenManager struct {
	secret []byte
}

// NewTokenManager constructs a manager with the shared signing secret.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// ParseToken validates the token signature and expiry and returns its claims.
func (m *TokenManager) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, errors.New("token expired")
	}
	if claims.Subject == "" || claims.OrganizationID == "" {
		return nil, errors.New("token missing subject or organization")
	}
	return claims, nil
}
