package auth

import (
	"strings"

	"shelfdesk/internal/backend"
	"shelfdesk/internal/validator"
	"shelfdesk/internal/web"
)

const minPasswordLen = 6

// LoginInput is the credential payload for sign-in.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterInput is the sign-up payload. The password must be confirmed
// and a mismatch is reported against confirmPassword specifically.
type RegisterInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FullName        string `json:"fullName,omitempty"`
}

// LoginResponse carries the collaborator-issued identity and session.
type LoginResponse struct {
	User    backend.User    `json:"user"`
	Session backend.Session `json:"session"`
}

// RegisterResponse reports the created account.
type RegisterResponse struct {
	User    backend.User `json:"user"`
	Message string       `json:"message"`
}

// Validate applies the canonical strict rule set: well-formed email,
// six character password minimum.
func (in *LoginInput) Validate() error {
	v := validator.New()
	checkEmail(v, in.Email)
	checkPassword(v, "password", in.Password)
	if !v.Valid() {
		return web.Validation(v.Errors, v.Fields())
	}
	return nil
}

// Validate applies the login rules plus password confirmation.
func (in *RegisterInput) Validate() error {
	v := validator.New()
	checkEmail(v, in.Email)
	checkPassword(v, "password", in.Password)
	checkPassword(v, "confirmPassword", in.ConfirmPassword)
	v.Check(in.Password == in.ConfirmPassword, "confirmPassword", "passwords do not match")
	if in.FullName != "" {
		v.Check(strings.TrimSpace(in.FullName) != "", "fullName", "full name must not be blank")
	}
	if !v.Valid() {
		return web.Validation(v.Errors, v.Fields())
	}
	return nil
}

// Validate checks the session the collaborator handed back before the
// caller trusts it.
func (r *LoginResponse) Validate() error {
	v := validator.New()
	v.Check(r.User.ID != "", "user.id", "session is missing its user id")
	v.Check(validator.Matches(r.User.Email, validator.EmailRX), "user.email", "session carries a malformed email")
	v.Check(r.Session.AccessToken != "", "session.access_token", "session is missing its access token")
	v.Check(r.Session.RefreshToken != "", "session.refresh_token", "session is missing its refresh token")
	v.Check(r.Session.ExpiresIn > 0, "session.expires_in", "session carries a non-positive lifetime")
	v.Check(r.Session.TokenType != "", "session.token_type", "session is missing its token type")
	if !v.Valid() {
		return web.Validation(v.Errors, v.Fields())
	}
	return nil
}

func checkEmail(v *validator.Validator, email string) {
	v.Check(email != "", "email", "email is required")
	if email != "" {
		v.Check(validator.Matches(email, validator.EmailRX), "email", "email must be a valid address")
	}
}

func checkPassword(v *validator.Validator, field, password string) {
	v.Check(password != "", field, field+" is required")
	if password != "" {
		v.Check(len(password) >= minPasswordLen, field, field+" must be at least 6 characters")
	}
}
