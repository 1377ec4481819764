package ratelimiter_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/lessonkit/pkg/clientip"
	"github.com/dmitrymomot/lessonkit/pkg/ratelimiter"
	"github.com/dmitrymomot/lessonkit/pkg/redis"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var cfg = ratelimiter.Config{Capacity: 3, RefillRate: 1, RefillInterval: 10 * time.Second}

func newBucket(t *testing.T, store ratelimiter.Store) (*ratelimiter.Bucket, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	b, err := ratelimiter.NewBucket(store, cfg, ratelimiter.WithClock(c.Now))
	require.NoError(t, err)
	return b, c
}

func TestNewBucket(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithStaleAfter(0))
	for _, bad := range []ratelimiter.Config{
		{Capacity: 0, RefillRate: 1, RefillInterval: time.Second},
		{Capacity: 1, RefillRate: 0, RefillInterval: time.Second},
		{Capacity: 1, RefillRate: 1},
	} {
		_, err := ratelimiter.NewBucket(store, bad)
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
	}

	_, err := ratelimiter.NewBucket(nil, cfg)
	assert.ErrorIs(t, err, ratelimiter.ErrStoreUnavailable)
}

// exercise runs the shared bucket behavior against a store.
func exercise(t *testing.T, store ratelimiter.Store) {
	ctx := context.Background()
	b, c := newBucket(t, store)
	key := "login:" + uuid.NewString()

	for want := 2; want >= 0; want-- {
		res, err := b.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, res.Allowed())
		assert.Equal(t, want, res.Remaining)
		assert.Equal(t, 3, res.Limit)
	}

	res, err := b.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, res.Allowed())
	assert.Equal(t, 10*time.Second, res.RetryAfter(b.Now()))

	// A denied request does not dig the hole deeper.
	c.Advance(10 * time.Second)
	res, err = b.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, res.Allowed())
	assert.Equal(t, 0, res.Remaining)

	c.Advance(time.Hour)
	res, err = b.AllowN(ctx, key, 3)
	require.NoError(t, err)
	assert.True(t, res.Allowed(), "refill is capped at capacity")
	assert.Equal(t, 0, res.Remaining)

	_, err = b.AllowN(ctx, key, 0)
	assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)

	require.NoError(t, b.Reset(ctx, key))
	res, err = b.Allow(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Remaining)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithStaleAfter(0))
	defer store.Close()
	exercise(t, store)

	b, _ := newBucket(t, store)
	_, err := b.Allow(context.Background(), "other")
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	store.Close()
	store.Close()
}

func TestMemoryStoreConcurrent(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithStaleAfter(0))
	big := ratelimiter.Config{Capacity: 50, RefillRate: 1, RefillInterval: time.Hour}
	b, err := ratelimiter.NewBucket(store, big)
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := b.Allow(context.Background(), "shared")
			if err == nil && res.Allowed() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

// Set REDIS_TEST_URL to run against a live server.
func TestRedisStore(t *testing.T) {
	_, err := ratelimiter.NewRedisStore(nil, "")
	assert.ErrorIs(t, err, ratelimiter.ErrNilClient)

	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL is not set")
	}
	client, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  url,
		RetryAttempts:  1,
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store, err := ratelimiter.NewRedisStore(client, "lessonkit:test:"+uuid.NewString()+":")
	require.NoError(t, err)
	exercise(t, store)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithStaleAfter(0))
	defer store.Close()
	b, c := newBucket(t, store)

	var denied int
	h := clientip.Middleware(clientip.New())(
		ratelimiter.Middleware(b, ratelimiter.ByClientIP("login"),
			ratelimiter.WithErrorResponder(func(w http.ResponseWriter, _ *http.Request, res *ratelimiter.Result, err error) {
				denied++
				assert.NoError(t, err)
				assert.False(t, res.Allowed())
				w.WriteHeader(http.StatusTooManyRequests)
			}),
		)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})),
	)

	call := func(remote string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		r.RemoteAddr = remote
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	for range 3 {
		assert.Equal(t, http.StatusNoContent, call("192.0.2.1:1000").Code)
	}
	w := call("192.0.2.1:1001")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "10", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, 1, denied)

	assert.Equal(t, http.StatusNoContent, call("192.0.2.2:1000").Code, "other clients keep their budget")

	c.Advance(10 * time.Second)
	assert.Equal(t, http.StatusNoContent, call("192.0.2.1:1002").Code)
}

type brokenStore struct{}

func (brokenStore) ConsumeTokens(context.Context, string, int, ratelimiter.Config, time.Time) (int, time.Time, error) {
	return 0, time.Time{}, ratelimiter.ErrStoreUnavailable
}

func (brokenStore) Reset(context.Context, string) error { return nil }

func TestMiddlewareStoreFailure(t *testing.T) {
	t.Parallel()

	b, err := ratelimiter.NewBucket(brokenStore{}, cfg)
	require.NoError(t, err)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	key := func(*http.Request) string { return "k" }

	w := httptest.NewRecorder()
	ratelimiter.Middleware(b, key)(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	ratelimiter.Middleware(b, key, ratelimiter.FailOpen())(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestComposite(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	short := ratelimiter.Composite(
		func(*http.Request) string { return "a" },
		func(*http.Request) string { return "" },
		func(*http.Request) string { return "b" },
	)
	assert.Equal(t, "a:b", short(r))

	long := ratelimiter.Composite(func(*http.Request) string { return string(make([]byte, 100)) })
	assert.LessOrEqual(t, len(long(r)), 13)
}
