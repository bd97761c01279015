package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the closed enumeration of error categories the handlers map
// onto. Everything that crosses the HTTP boundary is one of these four.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthorized
	KindNotFound
	KindCollaborator
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindCollaborator:
		return "collaborator"
	}
	return "unknown"
}

// Error carries a kind, a user-facing message, optional details and an
// optional per-field breakdown for validation failures.
type Error struct {
	Kind    Kind
	Message string
	Details string
	Fields  map[string]string

	callerInput bool
	cause       error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Status maps the kind onto an HTTP status code. Collaborator errors
// default to 500 unless constructed with an explicit caller-input code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindCollaborator:
		if e.callerInput {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// Validation builds a validation error from the per-field messages.
// The first failing field's message becomes the user-facing one; the
// remaining fields are joined into Details.
func Validation(fields map[string]string, order []string) *Error {
	e := &Error{Kind: KindValidation, Message: "invalid request data", Fields: fields}
	if len(order) > 0 {
		e.Message = fields[order[0]]
	}
	if len(order) > 1 {
		var parts []string
		for _, f := range order {
			parts = append(parts, f+": "+fields[f])
		}
		e.Details = strings.Join(parts, "; ")
	}
	return e
}

func Unauthorized(message string) *Error {
	if message == "" {
		message = "Unauthorized"
	}
	return &Error{Kind: KindUnauthorized, Message: message}
}

func NotFound(message string) *Error {
	if message == "" {
		message = "Resource not found"
	}
	return &Error{Kind: KindNotFound, Message: message}
}

// Collaborator wraps a failure reported by the storage or identity
// collaborator. callerInput marks failures that originate from request
// data and should surface as 400 rather than 500.
func Collaborator(message string, cause error, callerInput bool) *Error {
	if message == "" {
		message = "Internal server error"
	}
	return &Error{Kind: KindCollaborator, Message: message, cause: cause, callerInput: callerInput}
}

func Internal(cause error) *Error {
	return &Error{
		Kind:    KindCollaborator,
		Message: "Internal server error",
		cause:   fmt.Errorf("internal: %w", cause),
	}
}

// AsError extracts a *web.Error from any error, wrapping unknown
// failures as internal ones so nothing escapes the taxonomy.
func AsError(err error) *Error {
	var webErr *Error
	if errors.As(err, &webErr) {
		return webErr
	}
	return Internal(err)
}
