package main

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestMint(t *testing.T) {
	userID := uuid.New()

	token, got, err := mint(testSecret, userID.String(), "olena", 5)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	svc, err := auth.NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 5})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "olena", claims.Username)
}

func TestMint_Errors(t *testing.T) {
	_, _, err := mint(testSecret, "not-a-uuid", "olena", 5)
	assert.ErrorContains(t, err, "invalid user ID")

	_, _, err = mint("short", "", "olena", 5)
	assert.Error(t, err)

	_, generated, err := mint(testSecret, "", "olena", 5)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, generated)
}
