package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfdesk/internal/auth"
	"shelfdesk/internal/backend"
	"shelfdesk/internal/backendtest"
	"shelfdesk/internal/books"
)

const testAPIKey = "test-api-key"

type testStack struct {
	collaborator *backendtest.Server
	api          *httptest.Server
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	collaborator := backendtest.NewServer(testAPIKey)
	collaboratorSrv := httptest.NewServer(collaborator.Handler())
	t.Cleanup(collaboratorSrv.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)

	client := backend.NewClient(collaboratorSrv.URL, testAPIKey)
	authService := auth.NewService(client)
	bookService := books.NewService(client)

	router := NewRouter(
		auth.NewHandler(authService, log),
		books.NewHandler(bookService, log),
		authService,
		log,
	)
	apiSrv := httptest.NewServer(router)
	t.Cleanup(apiSrv.Close)

	return &testStack{collaborator: collaborator, api: apiSrv}
}

func (ts *testStack) request(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, ts.api.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

// login registers (when needed) and signs in, returning an access token.
func (ts *testStack) login(t *testing.T) string {
	t.Helper()
	ts.collaborator.RegisterUser("reader@example.com", "secret123", "A Reader")

	status, raw := ts.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "reader@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, status, string(raw))

	var resp auth.LoginResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.NotEmpty(t, resp.Session.AccessToken)
	return resp.Session.AccessToken
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestStack(t)

	status, raw := ts.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":           "new@example.com",
		"password":        "secret123",
		"confirmPassword": "secret123",
		"fullName":        "New Reader",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))

	var registered auth.RegisterResponse
	require.NoError(t, json.Unmarshal(raw, &registered))
	assert.Equal(t, "new@example.com", registered.User.Email)
	assert.NotEmpty(t, registered.Message)

	// The same address cannot register twice; the collaborator's
	// message passes through as a 400.
	status, raw = ts.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":           "new@example.com",
		"password":        "secret123",
		"confirmPassword": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "already registered")

	status, _ = ts.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "new@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusOK, status)

	status, _ = ts.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "new@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRegisterPasswordMismatchNamesConfirmPassword(t *testing.T) {
	ts := newTestStack(t)

	status, raw := ts.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":           "new@example.com",
		"password":        "secret123",
		"confirmPassword": "different",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "passwords do not match")
}

func TestBooksRequireSession(t *testing.T) {
	ts := newTestStack(t)

	status, _ := ts.request(t, http.MethodGet, "/api/books", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.request(t, http.MethodGet, "/api/books", "a-forged-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.request(t, http.MethodPost, "/api/books", "", map[string]string{"title": "t"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	ts := newTestStack(t)
	token := ts.login(t)

	status, raw := ts.request(t, http.MethodPost, "/api/books", token, map[string]string{
		"title":    "活着",
		"author":   "余华",
		"isbn":     "978-7-5063-6543-7",
		"category": "文学小说",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))

	var created books.BookResponse
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.NotEmpty(t, created.Book.ID)
	assert.NotEmpty(t, created.Book.CreatedAt)
	assert.Equal(t, books.StatusAvailable, created.Book.Status, "status defaults to available")

	status, raw = ts.request(t, http.MethodGet, "/api/books/"+created.Book.ID, token, nil)
	require.Equal(t, http.StatusOK, status)

	var fetched books.BookResponse
	require.NoError(t, json.Unmarshal(raw, &fetched))
	assert.Equal(t, created.Book, fetched.Book)
}

func TestCreateValidation(t *testing.T) {
	ts := newTestStack(t)
	token := ts.login(t)

	status, raw := ts.request(t, http.MethodPost, "/api/books", token, map[string]string{
		"author": "余华",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "title is required")

	status, raw = ts.request(t, http.MethodPost, "/api/books", token, map[string]string{
		"title":    "t",
		"author":   "a",
		"category": "c",
		"isbn":     "12345",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "10 or 13 digits")
}

func seedCatalog(ts *testStack) {
	ts.collaborator.SeedBook("活着", "余华", "9787506365437", "文学小说", "available")
	ts.collaborator.SeedBook("三体", "刘慈欣", "9787536692930", "科幻小说", "available")
	ts.collaborator.SeedBook("百年孤独", "马尔克斯", "9787544253994", "文学小说", "borrowed")
	ts.collaborator.SeedBook("1984", "乔治·奥威尔", "9787530210291", "文学小说", "available")
	ts.collaborator.SeedBook("黑客与画家", "Paul Graham", "9787115249494", "技术", "available")
}

func TestListSearchScenario(t *testing.T) {
	ts := newTestStack(t)
	token := ts.login(t)
	seedCatalog(ts)

	status, raw := ts.request(t, http.MethodGet, "/api/books?search=%E6%B4%BB%E7%9D%80&page=1&limit=10", token, nil)
	require.Equal(t, http.StatusOK, status, string(raw))

	var resp books.ListResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.Len(t, resp.Books, 1)
	assert.Equal(t, "活着", resp.Books[0].Title)
	assert.Equal(t, 1, resp.Pagination.Total)
	assert.Equal(t, 1, resp.Pagination.TotalPages)
}

func TestListFiltersAreConjunctive(t *testing.T) {
	ts := newTestStack(t)
	token := ts.login(t)
	seedCatalog(ts)

	status, raw := ts.request(t, http.MethodGet, "/api/books?category=%E6%96%87%E5%AD%A6%E5%B0%8F%E8%AF%B4&status=available", token, nil)
	require.Equal(t, http.StatusOK, status)

	var resp books.ListResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.Equal(t, 2, resp.Pagination.Total)
	for _, b := range resp.Books {
		assert.Equal(t, "文学小说", b.Category)
		assert.Equal(t, "available", b.Status)
	}
}

func TestListPagination(t *testing.T) {
	ts := newTestStack(t)
	token := ts.login(t)
	seedCatalog(ts)

	status, raw := ts.request(t, http.MethodGet, "/api/books?page=2&limit=2", token, nil)
	require.Equal(t, http.StatusOK, status)

	var resp books.ListResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, 2, resp.Pagination.Page)
	assert.Equal(t, 2, resp.Pagination.Limit)
	assert.Equal(t, 5, resp.Pagination.Total)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.Len(t, resp.Books, 2)

	status, _ = ts.request(t, http.MethodGet, "/api/books?limit=101", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = ts.request(t, http.MethodGet, "/api/books?limit=100", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, 100, resp.Pagination.Limit)
}

func TestListIsIdempotentBetweenMutations(t *testing.T) {
	ts := newTestStack(t)
	token := ts.login(t)
	seedCatalog(ts)

	_, first := ts.request(t, http.MethodGet, "/api/books?sortBy=title&sortOrder=asc", token, nil)
	_, second := ts.request(t, http.MethodGet, "/api/books?sortBy=title&sortOrder=asc", token, nil)
	assert.Equal(t, first, second)
}

func TestUpdateBook(t *testing.T) {
	ts := newTestStack(t)
	token := ts.login(t)
	id := ts.collaborator.SeedBook("围城", "钱钟书", "9787020090006", "文学小说", "available")

	status, raw := ts.request(t, http.MethodPut, "/api/books/"+id, token, map[string]string{
		"status": "maintenance",
	})
	require.Equal(t, http.StatusOK, status, string(raw))

	var updated books.BookResponse
	require.NoError(t, json.Unmarshal(raw, &updated))
	assert.Equal(t, "maintenance", updated.Book.Status)
	assert.Equal(t, "围城", updated.Book.Title, "absent fields stay untouched")

	status, _ = ts.request(t, http.MethodPut, "/api/books/no-such-id", token, map[string]string{
		"status": "available",
	})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.request(t, http.MethodPut, "/api/books/"+id, token, map[string]string{
		"status": "lost",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDeleteBook(t *testing.T) {
	ts := newTestStack(t)
	token := ts.login(t)
	id := ts.collaborator.SeedBook("白夜行", "东野圭吾", "9787544258609", "推理小说", "available")

	status, raw := ts.request(t, http.MethodDelete, "/api/books/"+id, token, nil)
	require.Equal(t, http.StatusOK, status, string(raw))

	var resp books.DeleteResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.NotEmpty(t, resp.Message)
	assert.Equal(t, "白夜行", resp.DeletedBook.Title)
	assert.Equal(t, id, resp.DeletedBook.ID)

	status, _ = ts.request(t, http.MethodGet, "/api/books/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// Deleting an id that does not exist is NotFound, never a silent
	// success.
	status, _ = ts.request(t, http.MethodDelete, "/api/books/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestStack(t)
	status, raw := ts.request(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(raw))
}
