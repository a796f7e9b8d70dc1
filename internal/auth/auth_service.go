package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService issues and validates the signed session tokens handed to the
// browser. The token only names a session; all mutable state lives in the
// session store.
type AuthService struct {
	secret   []byte
	tokenTTL time.Duration
}

// TokenClaims carries the session reference inside the JWT.
type TokenClaims struct {
	SessionID string `json:"session_id"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// NewAuthService validates the signing secret and constructs the service.
func NewAuthService(secret string, tokenTTL time.Duration) (*AuthService, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	if tokenTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &AuthService{secret: []byte(secret), tokenTTL: tokenTTL}, nil
}

// IssueToken signs a token referencing the given session.
func (s *AuthService) IssueToken(sessionID, email string) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id is empty")
	}

	now := time.Now()
	claims := TokenClaims{
		SessionID: sessionID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a session token.
func (s *AuthService) ValidateToken(tokenString string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, errors.New("token string is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.SessionID == "" {
		return nil, errors.New("token missing session id")
	}

	return claims, nil
}

// TokenTTL exposes the configured token lifetime.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}
