package bookclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newClockedCache() (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewCache().WithClock(clock.Now), clock
}

func TestCacheFreshHit(t *testing.T) {
	cache, _ := newClockedCache()
	cache.Set("books?page=1", "payload")

	value, fresh, ok := cache.Get("books?page=1")
	require.True(t, ok)
	assert.True(t, fresh)
	assert.Equal(t, "payload", value)
}

func TestCacheMiss(t *testing.T) {
	cache, _ := newClockedCache()
	_, fresh, ok := cache.Get("books?page=1")
	assert.False(t, ok)
	assert.False(t, fresh)
}

func TestCacheGoesStaleAfterFiveMinutes(t *testing.T) {
	cache, clock := newClockedCache()
	cache.Set("books?page=1", "payload")

	clock.advance(5*time.Minute - time.Second)
	_, fresh, _ := cache.Get("books?page=1")
	assert.True(t, fresh, "still fresh just inside the window")

	clock.advance(2 * time.Second)
	value, fresh, ok := cache.Get("books?page=1")
	require.True(t, ok)
	assert.False(t, fresh)
	assert.Equal(t, "payload", value, "stale entries remain readable")
}

func TestCacheEvictsAfterRetention(t *testing.T) {
	cache, clock := newClockedCache()
	cache.Set("books?page=1", "payload")

	clock.advance(10*time.Minute + time.Second)
	_, _, ok := cache.Get("books?page=1")
	assert.False(t, ok)
	assert.Zero(t, cache.Len())
}

func TestCacheInvalidateMarksResourceStale(t *testing.T) {
	cache, _ := newClockedCache()
	cache.Set("books?page=1", "page one")
	cache.Set("books?page=2", "page two")
	cache.Set("book?abc", "single")

	cache.Invalidate("books")

	_, fresh, ok := cache.Get("books?page=1")
	assert.True(t, ok)
	assert.False(t, fresh)
	_, fresh, _ = cache.Get("books?page=2")
	assert.False(t, fresh)

	value, fresh, _ := cache.Get("book?abc")
	assert.True(t, fresh, "other resources untouched")
	assert.Equal(t, "single", value)
}

func TestCacheInvalidatedEntryEvictedAtRetention(t *testing.T) {
	cache, clock := newClockedCache()
	cache.Set("books?page=1", "payload")
	cache.Invalidate("books")

	value, _, ok := cache.Get("books?page=1")
	require.True(t, ok)
	assert.Equal(t, "payload", value)

	clock.advance(10*time.Minute + time.Second)
	_, _, ok = cache.Get("books?page=1")
	assert.False(t, ok)
}

func TestCacheRemove(t *testing.T) {
	cache, _ := newClockedCache()
	cache.Set("book?abc", "single")

	cache.Remove("book?abc")
	_, _, ok := cache.Get("book?abc")
	assert.False(t, ok)
}

func TestCacheSetRefreshesStaleness(t *testing.T) {
	cache, clock := newClockedCache()
	cache.Set("books?page=1", "old")
	cache.Invalidate("books")
	clock.advance(time.Minute)

	cache.Set("books?page=1", "new")
	value, fresh, ok := cache.Get("books?page=1")
	require.True(t, ok)
	assert.True(t, fresh)
	assert.Equal(t, "new", value)
}
