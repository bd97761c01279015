package backend

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
)

// User is the identity collaborator's account record.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	UserMetadata UserMetadata `json:"user_metadata,omitempty"`
}

// UserMetadata carries the free-form profile fields set at sign-up.
type UserMetadata struct {
	FullName string `json:"full_name,omitempty"`
}

// Session is the collaborator-issued credential pair.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	User         User   `json:"user"`
}

// SignInWithPassword exchanges credentials for a session. Bad
// credentials come back as an *APIError with a 4xx status.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	ctx, span := c.startSpan(ctx, "backend.auth.sign_in")
	defer span.End()

	body := map[string]string{"email": email, "password": password}
	resp, err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", nil, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		span.SetAttributes(attribute.Int("auth.status", resp.StatusCode))
		return nil, errorFromResponse(resp)
	}

	var session Session
	if err := decodeInto(resp, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignUp registers a new account. The metadata rides along so the
// collaborator stores the full name with the user record.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (*User, error) {
	ctx, span := c.startSpan(ctx, "backend.auth.sign_up")
	defer span.End()

	body := map[string]any{
		"email":    email,
		"password": password,
	}
	if fullName != "" {
		body["data"] = map[string]string{"full_name": fullName}
	}

	resp, err := c.do(ctx, http.MethodPost, "/auth/v1/signup", nil, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		span.SetAttributes(attribute.Int("auth.status", resp.StatusCode))
		return nil, errorFromResponse(resp)
	}

	var payload struct {
		User *User `json:"user"`
		// Some deployments return the user at the top level.
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := decodeInto(resp, &payload); err != nil {
		return nil, err
	}
	if payload.User != nil {
		return payload.User, nil
	}
	return &User{ID: payload.ID, Email: payload.Email}, nil
}

// GetUser resolves the access token on the context to its account.
// An invalid or absent token is an *APIError with status 401.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	ctx, span := c.startSpan(ctx, "backend.auth.get_user")
	defer span.End()

	resp, err := c.do(ctx, http.MethodGet, "/auth/v1/user", nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		span.SetAttributes(attribute.Int("auth.status", resp.StatusCode))
		return nil, errorFromResponse(resp)
	}

	var user User
	if err := decodeInto(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
