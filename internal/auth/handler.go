package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"shelfdesk/internal/web"
)

// Handler exposes the login and register endpoints. Neither requires a
// session.
type Handler struct {
	service Service
	log     *logrus.Logger
}

func NewHandler(service Service, log *logrus.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Routes mounts the handlers on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/register", h.handleRegister)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		web.RespondError(w, h.log, web.Collaborator("invalid JSON body", err, true))
		return
	}

	if err := in.Validate(); err != nil {
		web.RespondError(w, h.log, err)
		return
	}

	resp, err := h.service.Login(r.Context(), in)
	if err != nil {
		h.respondAuthError(w, err)
		return
	}

	// The session is validated before the caller trusts it.
	if err := resp.Validate(); err != nil {
		web.RespondError(w, h.log, web.Internal(err))
		return
	}

	web.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		web.RespondError(w, h.log, web.Collaborator("invalid JSON body", err, true))
		return
	}

	if err := in.Validate(); err != nil {
		web.RespondError(w, h.log, err)
		return
	}

	resp, err := h.service.Register(r.Context(), in)
	if err != nil {
		h.respondAuthError(w, err)
		return
	}

	web.RespondJSON(w, http.StatusCreated, resp)
}

func (h *Handler) respondAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrRateLimited) {
		web.RespondJSON(w, http.StatusTooManyRequests, web.ErrorBody{Error: "rate limit exceeded"})
		return
	}
	web.RespondError(w, h.log, err)
}
