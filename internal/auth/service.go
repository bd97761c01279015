package auth

import (
	"context"

	"shelfdesk/internal/backend"
)

// Service defines the identity operations delegated to the auth
// collaborator.
type Service interface {
	Login(ctx context.Context, in LoginInput) (*LoginResponse, error)
	Register(ctx context.Context, in RegisterInput) (*RegisterResponse, error)
	Verify(ctx context.Context) (*backend.User, error)
}
