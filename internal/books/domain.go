package books

import (
	"strings"

	"shelfdesk/internal/validator"
	"shelfdesk/internal/web"
)

// Book statuses. Transitions are unconstrained: any status may follow
// any other.
const (
	StatusAvailable   = "available"
	StatusBorrowed    = "borrowed"
	StatusMaintenance = "maintenance"
)

var statuses = []string{StatusAvailable, StatusBorrowed, StatusMaintenance}

// Book is one catalog record. The id and created_at are assigned by
// the storage collaborator and never change afterwards.
type Book struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	ISBN      string `json:"isbn,omitempty"`
	Category  string `json:"category"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// CreateBookInput is the payload for adding a book.
type CreateBookInput struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	ISBN     string `json:"isbn,omitempty"`
	Category string `json:"category"`
	Status   string `json:"status,omitempty"`
}

// UpdateBookInput is the create schema with every field optional.
// nil means "not provided, leave as-is"; a present field is validated
// under the same rule as creation.
type UpdateBookInput struct {
	Title    *string `json:"title"`
	Author   *string `json:"author"`
	ISBN     *string `json:"isbn"`
	Category *string `json:"category"`
	Status   *string `json:"status"`
}

// Pagination is derived per response, never stored.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ListResponse is the list endpoint's envelope.
type ListResponse struct {
	Books      []Book     `json:"books"`
	Pagination Pagination `json:"pagination"`
}

// BookResponse wraps a single record.
type BookResponse struct {
	Book Book `json:"book"`
}

// DeleteResponse reports what was removed.
type DeleteResponse struct {
	Message     string `json:"message"`
	DeletedBook Book   `json:"deletedBook"`
}

// NormalizeISBN strips every non-digit from an ISBN string.
func NormalizeISBN(isbn string) string {
	var b strings.Builder
	for _, r := range isbn {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func checkISBN(v *validator.Validator, isbn string) {
	n := len(NormalizeISBN(isbn))
	v.Check(n == 10 || n == 13, "isbn", "must contain exactly 10 or 13 digits")
}

// Validate applies the create schema. The returned input has status
// defaulted to available when omitted.
func (in *CreateBookInput) Validate() error {
	v := validator.New()
	v.Check(strings.TrimSpace(in.Title) != "", "title", "title is required")
	v.Check(strings.TrimSpace(in.Author) != "", "author", "author is required")
	v.Check(strings.TrimSpace(in.Category) != "", "category", "category is required")
	if in.ISBN != "" {
		checkISBN(v, in.ISBN)
	}
	if in.Status == "" {
		in.Status = StatusAvailable
	}
	v.Check(validator.In(in.Status, statuses...), "status", "status must be one of available, borrowed, maintenance")

	if !v.Valid() {
		return web.Validation(v.Errors, v.Fields())
	}
	return nil
}

// Validate applies the partial schema: nothing is required, any field
// present is held to the creation rule.
func (in *UpdateBookInput) Validate() error {
	v := validator.New()
	if in.Title != nil {
		v.Check(strings.TrimSpace(*in.Title) != "", "title", "title must not be empty")
	}
	if in.Author != nil {
		v.Check(strings.TrimSpace(*in.Author) != "", "author", "author must not be empty")
	}
	if in.Category != nil {
		v.Check(strings.TrimSpace(*in.Category) != "", "category", "category must not be empty")
	}
	if in.ISBN != nil && *in.ISBN != "" {
		checkISBN(v, *in.ISBN)
	}
	if in.Status != nil {
		v.Check(validator.In(*in.Status, statuses...), "status", "status must be one of available, borrowed, maintenance")
	}

	if !v.Valid() {
		return web.Validation(v.Errors, v.Fields())
	}
	return nil
}

// Validate checks a record coming back from the collaborator before
// anyone trusts it.
func (b *Book) Validate() error {
	v := validator.New()
	v.Check(b.ID != "", "id", "record is missing its id")
	v.Check(b.Title != "", "title", "record is missing its title")
	v.Check(b.Author != "", "author", "record is missing its author")
	v.Check(b.Category != "", "category", "record is missing its category")
	v.Check(validator.In(b.Status, statuses...), "status", "record carries an unknown status")

	if !v.Valid() {
		return web.Validation(v.Errors, v.Fields())
	}
	return nil
}

// Validate checks the whole list envelope, including the pagination
// derivation totalPages = ceil(total/limit).
func (r *ListResponse) Validate() error {
	v := validator.New()
	p := r.Pagination
	v.Check(p.Page >= 1, "pagination.page", "page must be at least 1")
	v.Check(p.Limit >= 1, "pagination.limit", "limit must be at least 1")
	v.Check(p.Total >= 0, "pagination.total", "total must not be negative")
	if p.Limit >= 1 {
		want := (p.Total + p.Limit - 1) / p.Limit
		v.Check(p.TotalPages == want, "pagination.totalPages", "totalPages is not ceil(total/limit)")
	}
	if !v.Valid() {
		return web.Validation(v.Errors, v.Fields())
	}
	for i := range r.Books {
		if err := r.Books[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
