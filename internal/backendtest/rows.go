package backendtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type bookRow struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	ISBN      string    `json:"isbn,omitempty"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (b bookRow) field(name string) string {
	switch name {
	case "id":
		return b.ID
	case "title":
		return b.Title
	case "author":
		return b.Author
	case "isbn":
		return b.ISBN
	case "category":
		return b.Category
	case "status":
		return b.Status
	}
	return ""
}

// SeedBook inserts a row directly and returns its assigned id.
func (s *Server) SeedBook(title, author, isbn, category, status string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(map[string]any{
		"title":    title,
		"author":   author,
		"isbn":     isbn,
		"category": category,
		"status":   status,
	}).ID
}

// BookCount reports the current number of stored rows.
func (s *Server) BookCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// insertLocked assigns the id and creation timestamp the way the real
// collaborator's column defaults would. Timestamps advance one second
// per row so ordering is deterministic.
func (s *Server) insertLocked(values map[string]any) bookRow {
	s.seq++
	row := bookRow{
		ID:        uuid.New().String(),
		Title:     stringValue(values, "title"),
		Author:    stringValue(values, "author"),
		ISBN:      stringValue(values, "isbn"),
		Category:  stringValue(values, "category"),
		Status:    stringValue(values, "status"),
		CreatedAt: s.baseTime.Add(time.Duration(s.seq) * time.Second),
	}
	if row.Status == "" {
		row.Status = "available"
	}
	s.rows = append(s.rows, row)
	return row
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	if !s.authorizedForRows(r) {
		writeError(w, http.StatusUnauthorized, "invalid JWT", "")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleSelect(w, r)
	case http.MethodPost:
		s.handleInsert(w, r)
	case http.MethodPatch:
		s.handlePatch(w, r)
	case http.MethodDelete:
		s.handleDelete(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	matched := s.matchLocked(r)
	s.mu.Unlock()

	applyOrder(matched, r.URL.Query().Get("order"))

	total := len(matched)
	from, to, ok := parseRange(r.Header.Get("Range"))
	if ok {
		matched = window(matched, from, to)
	} else {
		from, to = 0, total-1
	}

	if strings.Contains(r.Header.Get("Prefer"), "count=exact") {
		upper := from + len(matched) - 1
		w.Header().Set("Content-Range", fmt.Sprintf("%d-%d/%d", from, upper, total))
	}
	writeJSON(w, http.StatusOK, matched)
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var values map[string]any
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	s.mu.Lock()
	row := s.insertLocked(values)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, []bookRow{row})
}

func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filters := eqFilters(r)
	var updated []bookRow
	for i := range s.rows {
		if !matchesEq(s.rows[i], filters) {
			continue
		}
		applyPatch(&s.rows[i], patch)
		updated = append(updated, s.rows[i])
	}

	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filters := eqFilters(r)
	kept := s.rows[:0]
	for _, row := range s.rows {
		if !matchesEq(row, filters) {
			kept = append(kept, row)
		}
	}
	s.rows = kept

	w.WriteHeader(http.StatusNoContent)
}

// matchLocked applies the conjunctive eq filters plus the disjunctive
// or=(col.ilike.*term*,...) search clause.
func (s *Server) matchLocked(r *http.Request) []bookRow {
	filters := eqFilters(r)
	orCols, orTerm, hasOr := parseOrIlike(r.URL.Query().Get("or"))

	var matched []bookRow
	for _, row := range s.rows {
		if !matchesEq(row, filters) {
			continue
		}
		if hasOr && !matchesIlike(row, orCols, orTerm) {
			continue
		}
		matched = append(matched, row)
	}
	return matched
}

func eqFilters(r *http.Request) map[string]string {
	filters := map[string]string{}
	for key, values := range r.URL.Query() {
		switch key {
		case "select", "order", "or":
			continue
		}
		for _, v := range values {
			if strings.HasPrefix(v, "eq.") {
				filters[key] = strings.TrimPrefix(v, "eq.")
			}
		}
	}
	return filters
}

func matchesEq(row bookRow, filters map[string]string) bool {
	for col, want := range filters {
		if row.field(col) != want {
			return false
		}
	}
	return true
}

// parseOrIlike understands "(title.ilike.*term*,author.ilike.*term*)".
func parseOrIlike(clause string) (cols []string, term string, ok bool) {
	clause = strings.TrimPrefix(clause, "(")
	clause = strings.TrimSuffix(clause, ")")
	if clause == "" {
		return nil, "", false
	}
	for _, part := range strings.Split(clause, ",") {
		col, pattern, found := strings.Cut(part, ".ilike.")
		if !found {
			continue
		}
		cols = append(cols, col)
		term = strings.Trim(pattern, "*")
	}
	return cols, term, len(cols) > 0
}

func matchesIlike(row bookRow, cols []string, term string) bool {
	needle := strings.ToLower(term)
	for _, col := range cols {
		if strings.Contains(strings.ToLower(row.field(col)), needle) {
			return true
		}
	}
	return false
}

// applyOrder sorts rows by an "col.asc" / "col.desc" clause, with the
// creation time as the insertion-stable fallback.
func applyOrder(rows []bookRow, clause string) {
	col, dir, _ := strings.Cut(clause, ".")
	if col == "" {
		col = "created_at"
	}
	ascending := dir == "asc"

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !ascending {
			a, b = b, a
		}
		if col == "created_at" {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.field(col) < b.field(col)
	})
}

func parseRange(header string) (from, to int, ok bool) {
	lo, hi, found := strings.Cut(header, "-")
	if !found {
		return 0, 0, false
	}
	from, err1 := strconv.Atoi(lo)
	to, err2 := strconv.Atoi(hi)
	if err1 != nil || err2 != nil || from < 0 || to < from {
		return 0, 0, false
	}
	return from, to, true
}

func window(rows []bookRow, from, to int) []bookRow {
	if from >= len(rows) {
		return []bookRow{}
	}
	if to >= len(rows) {
		to = len(rows) - 1
	}
	return rows[from : to+1]
}

func applyPatch(row *bookRow, patch map[string]any) {
	for key, value := range patch {
		str, _ := value.(string)
		switch key {
		case "title":
			row.Title = str
		case "author":
			row.Author = str
		case "isbn":
			row.ISBN = str
		case "category":
			row.Category = str
		case "status":
			row.Status = str
		}
	}
}

func stringValue(values map[string]any, key string) string {
	v, _ := values[key].(string)
	return v
}
