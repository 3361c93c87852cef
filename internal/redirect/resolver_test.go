package redirect_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/shortmark/shortmark/internal/logger"
	"github.com/shortmark/shortmark/internal/redirect"
	"github.com/shortmark/shortmark/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memStore is an in-memory redirect.Store keyed by code.
type memStore struct {
	mu      sync.Mutex
	urls    map[string]string
	visits  map[string]int
	resolve int
}

func newMemStore(urls map[string]string) *memStore {
	return &memStore{urls: urls, visits: map[string]int{}}
}

func (m *memStore) Resolve(_ context.Context, code string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolve++
	url, ok := m.urls[code]
	if !ok {
		return "", store.ErrNotFound
	}
	m.visits[code]++
	return url, nil
}

func (m *memStore) IncrementVisits(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.urls[code]; !ok {
		return store.ErrNotFound
	}
	m.visits[code]++
	return nil
}

func (m *memStore) visitCount(code string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visits[code]
}

type memCache struct {
	mu     sync.Mutex
	m      map[string]string
	getErr error
}

func newMemCache() *memCache { return &memCache{m: map[string]string{}} }

func (c *memCache) Get(_ context.Context, code string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", false, c.getErr
	}
	url, ok := c.m[code]
	return url, ok, nil
}

func (c *memCache) Set(_ context.Context, code, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[code] = url
	return nil
}

func (c *memCache) Delete(_ context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, code)
	return nil
}

func (c *memCache) has(code string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.m[code]
	return ok
}

func TestResolver_NoCache(t *testing.T) {
	s := newMemStore(map[string]string{"abc": "https://example.com"})
	r := redirect.New(s, nil, logger.Nop())
	ctx := context.Background()

	url, err := r.Resolve(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", url)
	assert.Equal(t, 1, s.visitCount("abc"))

	_, err = r.Resolve(ctx, "zzz")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestResolver_MalformedCodeSkipsStore(t *testing.T) {
	s := newMemStore(map[string]string{})
	r := redirect.New(s, nil, logger.Nop())

	for _, code := range []string{"", "ab", "abcd", "a/b", "a.b"} {
		_, err := r.Resolve(context.Background(), code)
		assert.ErrorIs(t, err, store.ErrNotFound, code)
	}
	assert.Equal(t, 0, s.resolve)
}

func TestResolver_CacheHitStillCountsVisit(t *testing.T) {
	s := newMemStore(map[string]string{"abc": "https://example.com"})
	c := newMemCache()
	r := redirect.New(s, c, logger.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		url, err := r.Resolve(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", url)
	}

	assert.Equal(t, 1, s.resolve, "only the first lookup reaches Resolve")
	assert.Equal(t, 3, s.visitCount("abc"))
	assert.True(t, c.has("abc"))
}

func TestResolver_StaleCacheEntryDropped(t *testing.T) {
	s := newMemStore(map[string]string{})
	c := newMemCache()
	c.m["abc"] = "https://gone.example.com"
	r := redirect.New(s, c, logger.Nop())

	_, err := r.Resolve(context.Background(), "abc")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.False(t, c.has("abc"))
}

func TestResolver_CacheErrorFallsBackToStore(t *testing.T) {
	s := newMemStore(map[string]string{"abc": "https://example.com"})
	c := newMemCache()
	c.getErr = errors.New("redis down")
	r := redirect.New(s, c, logger.Nop())

	url, err := r.Resolve(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", url)
	assert.Equal(t, 1, s.visitCount("abc"))
}

func TestResolver_Forget(t *testing.T) {
	s := newMemStore(map[string]string{"abc": "https://old.example.com"})
	c := newMemCache()
	r := redirect.New(s, c, logger.Nop())
	ctx := context.Background()

	_, err := r.Resolve(ctx, "abc")
	require.NoError(t, err)
	require.True(t, c.has("abc"))

	s.mu.Lock()
	s.urls["abc"] = "https://new.example.com"
	s.mu.Unlock()
	r.Forget(ctx, "abc")

	url, err := r.Resolve(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "https://new.example.com", url)
}

func TestResolver_ConcurrentVisitsAreExact(t *testing.T) {
	s := newMemStore(map[string]string{"abc": "https://example.com"})
	r := redirect.New(s, newMemCache(), logger.Nop())

	const n = 50
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := r.Resolve(context.Background(), "abc")
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, n, s.visitCount("abc"))
}
