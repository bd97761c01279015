package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrNoRows reports that an id-scoped read or write matched zero rows.
var ErrNoRows = errors.New("backend: no rows matched")

// CodeNoRows is the collaborator's wire code for a single-object
// request that matched nothing.
const CodeNoRows = "PGRST116"

// APIError is a failure reported by the collaborator itself.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend: %s (%s)", e.Message, e.Code)
	}
	return "backend: " + e.Message
}

// CallerInput reports whether the failure originated from request data
// rather than from the collaborator's own machinery.
func (e *APIError) CallerInput() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// errorFromResponse turns a non-2xx collaborator response into an
// *APIError, tolerating both {"message": ...} and {"error": ...}
// bodies. The no-rows wire code becomes ErrNoRows.
func errorFromResponse(resp *http.Response) error {
	defer resp.Body.Close()

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Msg     string `json:"msg"`
		Code    string `json:"code"`
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &body)

	message := body.Message
	if message == "" {
		message = body.Error
	}
	if message == "" {
		message = body.Msg
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	if body.Code == CodeNoRows || resp.StatusCode == http.StatusNotFound {
		return ErrNoRows
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       body.Code,
		Message:    message,
	}
}
