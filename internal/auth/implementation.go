package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"shelfdesk/internal/backend"
	"shelfdesk/internal/web"
)

// ErrRateLimited is returned when the login/register limiter rejects a
// request; the handler maps it to 429.
var ErrRateLimited = errors.New("rate limit exceeded")

// service implements Service against the identity collaborator.
type service struct {
	backend     *backend.Client
	rateLimiter *rate.Limiter
}

// NewService creates an auth service instance. Credential endpoints
// share one limiter: 30 attempts per minute across the process.
func NewService(client *backend.Client) Service {
	return &service{
		backend:     client,
		rateLimiter: rate.NewLimiter(rate.Every(2*time.Second), 30),
	}
}

// Login delegates the password check and session issuance to the
// collaborator. A rejection surfaces as a 400-class collaborator error
// with the collaborator's message.
func (s *service) Login(ctx context.Context, in LoginInput) (*LoginResponse, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	session, err := s.backend.SignInWithPassword(ctx, in.Email, in.Password)
	if err != nil {
		return nil, mapAuthError(err)
	}

	return &LoginResponse{User: session.User, Session: *session}, nil
}

// Register delegates account creation to the collaborator.
func (s *service) Register(ctx context.Context, in RegisterInput) (*RegisterResponse, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	user, err := s.backend.SignUp(ctx, in.Email, in.Password, in.FullName)
	if err != nil {
		return nil, mapAuthError(err)
	}

	return &RegisterResponse{
		User:    *user,
		Message: "Registration successful. Check your inbox to confirm the account.",
	}, nil
}

// Verify resolves the access token on the context to its account, or
// reports Unauthorized.
func (s *service) Verify(ctx context.Context) (*backend.User, error) {
	if backend.TokenFromContext(ctx) == "" {
		return nil, web.Unauthorized("")
	}

	user, err := s.backend.GetUser(ctx)
	if err != nil {
		return nil, web.Unauthorized("")
	}
	return user, nil
}

// mapAuthError folds an identity-collaborator failure into the closed
// taxonomy. Credential and sign-up rejections keep the collaborator's
// message; anything else is generic.
func mapAuthError(err error) error {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.CallerInput() {
		return web.Collaborator(apiErr.Message, err, true)
	}
	return web.Collaborator("", err, false)
}
