package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Query builds one tabular request against a collaborator table.
// Filters combine conjunctively; OrIlike contributes a single
// disjunctive search clause.
type Query struct {
	client *Client
	table  string

	selectCols string
	filters    url.Values
	order      string
	rangeFrom  int
	rangeTo    int
	hasRange   bool
	exactCount bool
}

// From starts a query against the named table.
func (c *Client) From(table string) *Query {
	return &Query{
		client:     c,
		table:      table,
		selectCols: "*",
		filters:    url.Values{},
	}
}

// Select sets the column list, default "*".
func (q *Query) Select(cols string) *Query {
	q.selectCols = cols
	return q
}

// Count asks the collaborator for the exact total row count alongside
// the page, reported through the Content-Range header.
func (q *Query) Count() *Query {
	q.exactCount = true
	return q
}

// Eq adds an equality filter on col.
func (q *Query) Eq(col, value string) *Query {
	q.filters.Add(col, "eq."+value)
	return q
}

// OrIlike adds a case-insensitive substring match for term, OR'd across
// the given columns.
func (q *Query) OrIlike(term string, cols ...string) *Query {
	clauses := make([]string, 0, len(cols))
	for _, col := range cols {
		clauses = append(clauses, col+".ilike.*"+term+"*")
	}
	q.filters.Add("or", "("+strings.Join(clauses, ",")+")")
	return q
}

// Order sets the sort column and direction.
func (q *Query) Order(col string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.order = col + "." + dir
	return q
}

// Range limits the result to the half-open row window [from, to],
// inclusive on both ends per the collaborator's convention.
func (q *Query) Range(from, to int) *Query {
	q.rangeFrom = from
	q.rangeTo = to
	q.hasRange = true
	return q
}

func (q *Query) path() string {
	values := url.Values{}
	values.Set("select", q.selectCols)
	for col, fs := range q.filters {
		for _, f := range fs {
			values.Add(col, f)
		}
	}
	if q.order != "" {
		values.Set("order", q.order)
	}
	return "/rest/v1/" + q.table + "?" + values.Encode()
}

func (q *Query) headers() http.Header {
	h := http.Header{}
	prefer := []string{}
	if q.exactCount {
		prefer = append(prefer, "count=exact")
	}
	if len(prefer) > 0 {
		h.Set("Prefer", strings.Join(prefer, ","))
	}
	if q.hasRange {
		h.Set("Range", fmt.Sprintf("%d-%d", q.rangeFrom, q.rangeTo))
	}
	return h
}

// Get executes the query and decodes the matching rows into dest, a
// pointer to a slice. It returns the exact total when Count was
// requested, else the number of rows decoded.
func (q *Query) Get(ctx context.Context, dest any) (int, error) {
	ctx, span := q.client.startSpan(ctx, "backend.rows.get",
		attribute.String("table", q.table),
	)
	defer span.End()

	resp, err := q.client.do(ctx, http.MethodGet, q.path(), q.headers(), nil)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode >= 300 {
		return 0, errorFromResponse(resp)
	}

	total := totalFromContentRange(resp.Header.Get("Content-Range"))
	if err := decodeInto(resp, dest); err != nil {
		return 0, err
	}
	if total < 0 {
		total = sliceLen(dest)
	}

	span.SetAttributes(attribute.Int("rows.total", total))
	return total, nil
}

// Single executes the query and decodes exactly one row into dest.
// Zero matching rows is ErrNoRows.
func (q *Query) Single(ctx context.Context, dest any) error {
	ctx, span := q.client.startSpan(ctx, "backend.rows.single",
		attribute.String("table", q.table),
	)
	defer span.End()

	q.Range(0, 0)
	resp, err := q.client.do(ctx, http.MethodGet, q.path(), q.headers(), nil)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return errorFromResponse(resp)
	}

	var rows []json.RawMessage
	if err := decodeInto(resp, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNoRows
	}
	if err := json.Unmarshal(rows[0], dest); err != nil {
		return fmt.Errorf("decode collaborator row: %w", err)
	}
	return nil
}

// Insert writes one row and decodes the stored representation, with
// collaborator-assigned id and created_at, back into dest.
func (q *Query) Insert(ctx context.Context, row, dest any) error {
	ctx, span := q.client.startSpan(ctx, "backend.rows.insert",
		attribute.String("table", q.table),
	)
	defer span.End()

	h := http.Header{}
	h.Set("Prefer", "return=representation")
	resp, err := q.client.do(ctx, http.MethodPost, "/rest/v1/"+q.table, h, row)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return errorFromResponse(resp)
	}
	return decodeFirstRow(resp, dest)
}

// Update patches the rows matching the query's filters and decodes the
// updated representation into dest. Zero matched rows is ErrNoRows.
func (q *Query) Update(ctx context.Context, patch, dest any) error {
	ctx, span := q.client.startSpan(ctx, "backend.rows.update",
		attribute.String("table", q.table),
	)
	defer span.End()

	h := http.Header{}
	h.Set("Prefer", "return=representation")
	resp, err := q.client.do(ctx, http.MethodPatch, q.path(), h, patch)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return errorFromResponse(resp)
	}
	return decodeFirstRow(resp, dest)
}

// Delete removes the rows matching the query's filters.
func (q *Query) Delete(ctx context.Context) error {
	ctx, span := q.client.startSpan(ctx, "backend.rows.delete",
		attribute.String("table", q.table),
	)
	defer span.End()

	resp, err := q.client.do(ctx, http.MethodDelete, q.path(), nil, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return errorFromResponse(resp)
	}
	return decodeInto(resp, nil)
}

// decodeFirstRow unwraps the single-element array representation the
// collaborator returns for mutations.
func decodeFirstRow(resp *http.Response, dest any) error {
	var rows []json.RawMessage
	if err := decodeInto(resp, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNoRows
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(rows[0], dest); err != nil {
		return fmt.Errorf("decode collaborator row: %w", err)
	}
	return nil
}

// totalFromContentRange parses "0-9/42" style headers, returning -1
// when no exact total was reported.
func totalFromContentRange(header string) int {
	idx := strings.LastIndex(header, "/")
	if idx < 0 {
		return -1
	}
	total, err := strconv.Atoi(header[idx+1:])
	if err != nil {
		return -1
	}
	return total
}

func sliceLen(dest any) int {
	v := reflect.Indirect(reflect.ValueOf(dest))
	if v.Kind() != reflect.Slice {
		return 0
	}
	return v.Len()
}
