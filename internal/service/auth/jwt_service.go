// Package auth verifies the bearer tokens issued by the external credential
// store. Passwords, sessions and refresh flows live outside this service;
// the only thing consumed here is the signed user identity.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService validates and, for local tooling, mints access tokens.
type JWTService interface {
	// GenerateToken creates a signed access token for userID.
	GenerateToken(ctx context.Context, userID uuid.UUID, username string) (string, error)

	// ValidateToken verifies tokenString and returns its claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the identity carried by a validated token.
type Claims struct {
	UserID    uuid.UUID `json:"uid,omitempty"`
	Username  string    `json:"name,omitempty"`
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
