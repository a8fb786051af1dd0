package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
)

// MockJWTService is a configurable auth.JWTService. ValidateToken returns
// Claims or ValidateErr unless ValidateTokenFn is set.
type MockJWTService struct {
	Token       string
	GenerateErr error
	Claims      *auth.Claims
	ValidateErr error

	ValidateTokenFn func(ctx context.Context, token string) (*auth.Claims, error)
}

var _ auth.JWTService = (*MockJWTService)(nil)

func (m *MockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID, username string) (string, error) {
	return m.Token, m.GenerateErr
}

func (m *MockJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, token)
	}
	return m.Claims, m.ValidateErr
}
