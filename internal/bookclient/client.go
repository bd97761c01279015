// Package bookclient binds the catalog API to a client-side query
// cache. Each operation owns a cache key, a staleness policy and a
// post-mutation update rule, so consumers never manage cache coherence
// themselves. The invalidation policy is deliberately coarse:
// mutations mark every list entry stale instead of patching cached
// pages, trading freshness work for predictability.
package bookclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"shelfdesk/internal/auth"
	"shelfdesk/internal/books"
	"shelfdesk/internal/web"
)

// ErrEmptyID reports a get-by-id binding invoked without an id; the
// binding is disabled in that state and never touches the network.
var ErrEmptyID = errors.New("bookclient: empty book id")

// Client is the typed consumer-side API client.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *Cache
	notify  Notifier
	token   string
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notify = n }
}

func WithCache(cache *Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// NewClient builds a client for the API at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    http.DefaultClient,
		cache:   NewCache(),
		notify:  nopNotifier{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache exposes the underlying query cache.
func (c *Client) Cache() *Cache {
	return c.cache
}

// SetToken installs the session token used for catalog calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

func listKey(q books.Query) string {
	return "books?" + q.Values().Encode()
}

func bookKey(id string) string {
	return "book?" + id
}

// Login validates the credentials, signs in and keeps the returned
// access token for subsequent calls.
func (c *Client) Login(ctx context.Context, in auth.LoginInput) (*auth.LoginResponse, error) {
	if err := in.Validate(); err != nil {
		c.notify.Error("Login failed", err.Error())
		return nil, err
	}

	var resp auth.LoginResponse
	if err := c.post(ctx, "/api/auth/login", in, &resp); err != nil {
		c.notify.Error("Login failed", err.Error())
		return nil, err
	}
	if err := resp.Validate(); err != nil {
		c.notify.Error("Login failed", err.Error())
		return nil, err
	}

	c.token = resp.Session.AccessToken
	return &resp, nil
}

// Register validates the payload and creates the account.
func (c *Client) Register(ctx context.Context, in auth.RegisterInput) (*auth.RegisterResponse, error) {
	if err := in.Validate(); err != nil {
		c.notify.Error("Registration failed", err.Error())
		return nil, err
	}

	var resp auth.RegisterResponse
	if err := c.post(ctx, "/api/auth/register", in, &resp); err != nil {
		c.notify.Error("Registration failed", err.Error())
		return nil, err
	}
	return &resp, nil
}

// ListBooks serves a fresh cached page when one exists; otherwise it
// validates the parameters, fetches, validates the response and caches
// it under the full parameter tuple.
func (c *Client) ListBooks(ctx context.Context, q books.Query) (*books.ListResponse, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	key := listKey(q)
	if cached, fresh, ok := c.cache.Get(key); ok && fresh {
		return cached.(*books.ListResponse), nil
	}

	var resp books.ListResponse
	if err := c.get(ctx, "/api/books?"+q.Values().Encode(), &resp); err != nil {
		return nil, err
	}
	if err := resp.Validate(); err != nil {
		return nil, err
	}

	c.cache.Set(key, &resp)
	return &resp, nil
}

// GetBook serves the record from cache when fresh. An empty id
// disables the binding entirely.
func (c *Client) GetBook(ctx context.Context, id string) (*books.BookResponse, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	key := bookKey(id)
	if cached, fresh, ok := c.cache.Get(key); ok && fresh {
		return cached.(*books.BookResponse), nil
	}

	var resp books.BookResponse
	if err := c.get(ctx, "/api/books/"+id, &resp); err != nil {
		return nil, err
	}
	if err := resp.Book.Validate(); err != nil {
		return nil, err
	}

	c.cache.Set(key, &resp)
	return &resp, nil
}

// CreateBook validates before dispatch. Success invalidates every list
// entry; no cached page is patched optimistically.
func (c *Client) CreateBook(ctx context.Context, in books.CreateBookInput) (*books.BookResponse, error) {
	if err := in.Validate(); err != nil {
		c.notify.Error("Could not add book", err.Error())
		return nil, err
	}

	var resp books.BookResponse
	if err := c.send(ctx, http.MethodPost, "/api/books", in, &resp); err != nil {
		c.notify.Error("Could not add book", err.Error())
		return nil, err
	}
	if err := resp.Book.Validate(); err != nil {
		c.notify.Error("Could not add book", err.Error())
		return nil, err
	}

	c.cache.Invalidate("books")
	c.notify.Success("Book added", fmt.Sprintf("%q is now in the catalog", resp.Book.Title))
	return &resp, nil
}

// UpdateBook overwrites the record's own cache entry with the fresh
// representation, then invalidates every list entry.
func (c *Client) UpdateBook(ctx context.Context, id string, in books.UpdateBookInput) (*books.BookResponse, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	if err := in.Validate(); err != nil {
		c.notify.Error("Could not update book", err.Error())
		return nil, err
	}

	var resp books.BookResponse
	if err := c.send(ctx, http.MethodPut, "/api/books/"+id, in, &resp); err != nil {
		c.notify.Error("Could not update book", err.Error())
		return nil, err
	}
	if err := resp.Book.Validate(); err != nil {
		c.notify.Error("Could not update book", err.Error())
		return nil, err
	}

	c.cache.Set(bookKey(id), &resp)
	c.cache.Invalidate("books")
	c.notify.Success("Book updated", fmt.Sprintf("%q has been updated", resp.Book.Title))
	return &resp, nil
}

// DeleteBook invalidates every list entry and removes the record's own
// entry outright, so a later read refetches and sees the absence.
func (c *Client) DeleteBook(ctx context.Context, id string) (*books.DeleteResponse, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	var resp books.DeleteResponse
	if err := c.send(ctx, http.MethodDelete, "/api/books/"+id, nil, &resp); err != nil {
		c.notify.Error("Could not delete book", err.Error())
		return nil, err
	}
	if err := resp.DeletedBook.Validate(); err != nil {
		c.notify.Error("Could not delete book", err.Error())
		return nil, err
	}

	c.cache.Invalidate("books")
	c.cache.Remove(bookKey(id))
	c.notify.Success("Book deleted", fmt.Sprintf("%q has been removed from the catalog", resp.DeletedBook.Title))
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	return c.send(ctx, http.MethodGet, path, nil, dest)
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	return c.send(ctx, http.MethodPost, path, body, dest)
}

func (c *Client) send(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var failure web.ErrorBody
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		if failure.Error == "" {
			failure.Error = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%s", failure.Error)
	}

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type nopNotifier struct{}

func (nopNotifier) Success(string, string) {}
func (nopNotifier) Error(string, string)   {}
