package books

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"shelfdesk/internal/web"
)

// Handler exposes the catalog endpoints. Session enforcement happens in
// the router's middleware before any of these run.
type Handler struct {
	service Service
	log     *logrus.Logger
}

func NewHandler(service Service, log *logrus.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Routes mounts the handlers on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Put("/", h.handleUpdate)
		r.Delete("/", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		web.RespondError(w, h.log, err)
		return
	}

	resp, err := h.service.List(r.Context(), q)
	if err != nil {
		web.RespondError(w, h.log, err)
		return
	}

	// Validate the outbound envelope before anyone trusts it.
	if err := resp.Validate(); err != nil {
		web.RespondError(w, h.log, web.Internal(err))
		return
	}

	web.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	book, err := h.service.Get(r.Context(), id)
	if err != nil {
		web.RespondError(w, h.log, err)
		return
	}

	if err := book.Validate(); err != nil {
		web.RespondError(w, h.log, web.Internal(err))
		return
	}

	web.RespondJSON(w, http.StatusOK, BookResponse{Book: *book})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in CreateBookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		web.RespondError(w, h.log, web.Collaborator("invalid JSON body", err, true))
		return
	}

	if err := in.Validate(); err != nil {
		web.RespondError(w, h.log, err)
		return
	}

	book, err := h.service.Create(r.Context(), in)
	if err != nil {
		web.RespondError(w, h.log, err)
		return
	}

	if err := book.Validate(); err != nil {
		web.RespondError(w, h.log, web.Internal(err))
		return
	}

	web.RespondJSON(w, http.StatusCreated, BookResponse{Book: *book})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in UpdateBookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		web.RespondError(w, h.log, web.Collaborator("invalid JSON body", err, true))
		return
	}

	if err := in.Validate(); err != nil {
		web.RespondError(w, h.log, err)
		return
	}

	book, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		web.RespondError(w, h.log, err)
		return
	}

	if err := book.Validate(); err != nil {
		web.RespondError(w, h.log, web.Internal(err))
		return
	}

	web.RespondJSON(w, http.StatusOK, BookResponse{Book: *book})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	resp, err := h.service.Delete(r.Context(), id)
	if err != nil {
		web.RespondError(w, h.log, err)
		return
	}

	if err := resp.DeletedBook.Validate(); err != nil {
		web.RespondError(w, h.log, web.Internal(err))
		return
	}

	web.RespondJSON(w, http.StatusOK, resp)
}
