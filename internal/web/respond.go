package web

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

const (
	HeaderContentType = "Content-Type"
	ContentTypeJSON   = "application/json"
)

// ErrorBody is the wire shape of every failed response.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RespondJSON writes payload as JSON with the given status.
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set(HeaderContentType, ContentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}

	w.Header().Set(HeaderContentType, ContentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// RespondError maps err onto the closed error taxonomy and writes the
// {error, details?} body. Internal failures are logged with their cause
// and surface only a generic message.
func RespondError(w http.ResponseWriter, log *logrus.Logger, err error) {
	webErr := AsError(err)

	if webErr.Status() >= http.StatusInternalServerError && log != nil {
		log.WithError(webErr.Unwrap()).WithField("kind", webErr.Kind.String()).Error(webErr.Message)
	}

	RespondJSON(w, webErr.Status(), ErrorBody{
		Error:   webErr.Message,
		Details: webErr.Details,
	})
}
