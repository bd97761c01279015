package books

import (
	"context"
	"errors"
	"fmt"

	"shelfdesk/internal/backend"
	"shelfdesk/internal/web"
)

const table = "books"

// service implements Service on top of the storage collaborator.
type service struct {
	backend *backend.Client
}

// NewService creates a catalog service instance.
func NewService(client *backend.Client) Service {
	return &service{backend: client}
}

// List fetches one filtered, sorted page. Filters combine
// conjunctively; the search term matches title, author or isbn.
func (s *service) List(ctx context.Context, q Query) (*ListResponse, error) {
	qb := s.backend.From(table).Select("*").Count()
	if q.Search != "" {
		qb.OrIlike(q.Search, "title", "author", "isbn")
	}
	if q.Category != "" {
		qb.Eq("category", q.Category)
	}
	if q.Status != "" {
		qb.Eq("status", q.Status)
	}
	qb.Order(q.SortBy, q.SortOrder == "asc")
	qb.Range(q.Offset(), q.Offset()+q.Limit-1)

	rows := []Book{}
	total, err := qb.Get(ctx, &rows)
	if err != nil {
		return nil, mapBackendError(err, "")
	}

	return &ListResponse{
		Books: rows,
		Pagination: Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: (total + q.Limit - 1) / q.Limit,
		},
	}, nil
}

// Get fetches exactly one record by id.
func (s *service) Get(ctx context.Context, id string) (*Book, error) {
	var book Book
	err := s.backend.From(table).Select("*").Eq("id", id).Single(ctx, &book)
	if err != nil {
		return nil, mapBackendError(err, id)
	}
	return &book, nil
}

// Create inserts one record and returns the stored representation.
func (s *service) Create(ctx context.Context, in CreateBookInput) (*Book, error) {
	row := map[string]any{
		"title":    in.Title,
		"author":   in.Author,
		"category": in.Category,
		"status":   in.Status,
	}
	if in.ISBN != "" {
		row["isbn"] = in.ISBN
	}

	var book Book
	if err := s.backend.From(table).Insert(ctx, row, &book); err != nil {
		return nil, mapBackendError(err, "")
	}
	return &book, nil
}

// Update patches only the provided fields.
func (s *service) Update(ctx context.Context, id string, in UpdateBookInput) (*Book, error) {
	patch := map[string]any{}
	if in.Title != nil {
		patch["title"] = *in.Title
	}
	if in.Author != nil {
		patch["author"] = *in.Author
	}
	if in.ISBN != nil {
		patch["isbn"] = *in.ISBN
	}
	if in.Category != nil {
		patch["category"] = *in.Category
	}
	if in.Status != nil {
		patch["status"] = *in.Status
	}

	if len(patch) == 0 {
		// Nothing to apply; report the current record.
		return s.Get(ctx, id)
	}

	var book Book
	err := s.backend.From(table).Eq("id", id).Update(ctx, patch, &book)
	if err != nil {
		return nil, mapBackendError(err, id)
	}
	return &book, nil
}

// Delete fetches the record first so the response can report what was
// removed, then deletes it.
func (s *service) Delete(ctx context.Context, id string) (*DeleteResponse, error) {
	book, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.backend.From(table).Eq("id", id).Delete(ctx); err != nil {
		return nil, mapBackendError(err, id)
	}

	return &DeleteResponse{
		Message:     "Book deleted successfully",
		DeletedBook: *book,
	}, nil
}

// mapBackendError folds collaborator failures into the closed error
// taxonomy: zero rows becomes NotFound, caller-input rejections pass
// the collaborator message through as 400, everything else is generic.
func mapBackendError(err error, id string) error {
	if errors.Is(err, backend.ErrNoRows) {
		return web.NotFound("Book not found")
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.CallerInput() {
		return web.Collaborator(apiErr.Message, err, true)
	}

	if id != "" {
		return web.Collaborator("", fmt.Errorf("book %s: %w", id, err), false)
	}
	return web.Collaborator("", err, false)
}
