package books

import (
	"net/url"
	"strconv"

	"shelfdesk/internal/validator"
	"shelfdesk/internal/web"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

var (
	sortColumns = []string{"title", "author", "category", "created_at"}
	sortOrders  = []string{"asc", "desc"}
)

// Query is the validated parameter set for a list request. The zero
// value is not usable; build one with DefaultQuery or ParseQuery.
type Query struct {
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	Search    string `json:"search,omitempty"`
	Category  string `json:"category,omitempty"`
	Status    string `json:"status,omitempty"`
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
}

// DefaultQuery returns the first page, ten rows, newest first.
func DefaultQuery() Query {
	return Query{
		Page:      defaultPage,
		Limit:     defaultLimit,
		SortBy:    "created_at",
		SortOrder: "desc",
	}
}

// ParseQuery reads the raw URL parameters, applies defaults and
// validates the result.
func ParseQuery(values url.Values) (Query, error) {
	q := DefaultQuery()
	v := validator.New()

	q.Page = parseInt(v, values, "page", defaultPage)
	q.Limit = parseInt(v, values, "limit", defaultLimit)
	q.Search = values.Get("search")
	q.Category = values.Get("category")
	q.Status = values.Get("status")
	if s := values.Get("sortBy"); s != "" {
		q.SortBy = s
	}
	if s := values.Get("sortOrder"); s != "" {
		q.SortOrder = s
	}

	if err := q.validate(v); err != nil {
		return Query{}, err
	}
	return q, nil
}

// Validate applies the schema to an already-built Query, defaulting
// zero-valued page/limit/sort fields first. Client bindings use this
// before dispatching a request.
func (q *Query) Validate() error {
	d := DefaultQuery()
	if q.Page == 0 {
		q.Page = d.Page
	}
	if q.Limit == 0 {
		q.Limit = d.Limit
	}
	if q.SortBy == "" {
		q.SortBy = d.SortBy
	}
	if q.SortOrder == "" {
		q.SortOrder = d.SortOrder
	}
	return q.validate(validator.New())
}

func (q *Query) validate(v *validator.Validator) error {
	v.Check(q.Page >= 1, "page", "page must be a positive integer")
	v.Check(q.Limit >= 1, "limit", "limit must be a positive integer")
	v.Check(q.Limit <= maxLimit, "limit", "limit must not exceed 100")
	if q.Status != "" {
		v.Check(validator.In(q.Status, statuses...), "status", "status must be one of available, borrowed, maintenance")
	}
	v.Check(validator.In(q.SortBy, sortColumns...), "sortBy", "sortBy must be one of title, author, category, created_at")
	v.Check(validator.In(q.SortOrder, sortOrders...), "sortOrder", "sortOrder must be asc or desc")

	if !v.Valid() {
		return web.Validation(v.Errors, v.Fields())
	}
	return nil
}

// Offset returns the zero-based index of the first row of the page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Values encodes the query back to URL parameters, skipping empty
// filters so that equivalent queries encode identically.
func (q Query) Values() url.Values {
	values := url.Values{}
	values.Set("page", strconv.Itoa(q.Page))
	values.Set("limit", strconv.Itoa(q.Limit))
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Category != "" {
		values.Set("category", q.Category)
	}
	if q.Status != "" {
		values.Set("status", q.Status)
	}
	values.Set("sortBy", q.SortBy)
	values.Set("sortOrder", q.SortOrder)
	return values
}

func parseInt(v *validator.Validator, values url.Values, key string, fallback int) int {
	raw := values.Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		v.AddError(key, key+" must be an integer")
		return fallback
	}
	return n
}
