package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Sternrassler/flashsale-itemcache/internal/testutil"
	"github.com/Sternrassler/flashsale-itemcache/pkg/itemcache"
	"github.com/Sternrassler/flashsale-itemcache/pkg/ratelimit"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItem(id int64) itemcache.Item {
	start := time.Date(2026, 11, 11, 0, 0, 0, 0, time.UTC)
	return itemcache.Item{
		ID:             id,
		ActivityID:     3,
		Title:          "Mechanical keyboard",
		InitialStock:   100,
		AvailableStock: 42,
		OriginalPrice:  12900,
		FlashPrice:     7900,
		StartTime:      start,
		EndTime:        start.Add(2 * time.Hour),
		Status:         1,
	}
}

func newTestClient(t *testing.T, mock *testutil.MockCatalog, tracker *ratelimit.Tracker) *Client {
	t.Helper()
	cfg := DefaultConfig(mock.URL())
	cfg.RateLimiter = tracker
	cfg.Retry = fastPolicy(3)
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func newTestTracker(t *testing.T) *ratelimit.Tracker {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return ratelimit.NewTracker(rc, ratelimit.Config{ThrottleDelay: time.Millisecond}, zerolog.Nop())
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing base url", func(c *Config) { c.BaseURL = "" }, true},
		{"missing user agent", func(c *Config) { c.UserAgent = "" }, true},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("http://catalog.local/")
			tt.mutate(&cfg)
			c, err := New(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "http://catalog.local", c.config.BaseURL)
			assert.NotNil(t, c.config.Retry)
		})
	}
}

func TestFetchByID_Found(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.PutItem(sampleItem(7))

	c := newTestClient(t, mock, nil)
	item, err := c.FetchByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, sampleItem(7), *item)
	assert.Equal(t, "flashsale-itemcache/1.0", mock.LastUserAgent())
}

func TestFetchByID_NotFound(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()

	c := newTestClient(t, mock, nil)
	_, err := c.FetchByID(context.Background(), 404)
	assert.ErrorIs(t, err, itemcache.ErrItemNotFound)
	assert.Equal(t, 1, mock.ItemRequestCount(404), "404 must not be retried")
}

func TestFetchByID_RetriesServerErrors(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.PutItem(sampleItem(8))
	mock.FailNext(8, http.StatusInternalServerError, http.StatusBadGateway)

	c := newTestClient(t, mock, nil)
	item, err := c.FetchByID(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, int64(8), item.ID)
	assert.Equal(t, 3, mock.ItemRequestCount(8))
}

func TestFetchByID_RetryExhausted(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.PutItem(sampleItem(9))
	mock.FailNext(9, 503, 503, 503)

	c := newTestClient(t, mock, nil)
	_, err := c.FetchByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrRetryExhausted)

	var ce *CatalogError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrorClassServer, ce.ErrorClass)
	assert.Equal(t, 3, mock.ItemRequestCount(9))
}

func TestFetchByID_ClientErrorNotRetried(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.FailNext(10, http.StatusForbidden)

	c := newTestClient(t, mock, nil)
	_, err := c.FetchByID(context.Background(), 10)

	var ce *CatalogError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrorClassClient, ce.ErrorClass)
	assert.Equal(t, http.StatusForbidden, ce.StatusCode)
	assert.Equal(t, 1, mock.ItemRequestCount(10))
}

func TestFetchByID_InvalidBody(t *testing.T) {
	srv := http.NewServeMux()
	srv.HandleFunc("/items/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "not-a-number"`))
	})
	c := newMuxClient(t, srv)

	_, err := c.FetchByID(context.Background(), 1)
	var ce *CatalogError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrorClassInvalidResponse, ce.ErrorClass)
}

func TestFetchByID_NetworkError(t *testing.T) {
	mock := testutil.NewMockCatalog()
	c := newTestClient(t, mock, nil)
	mock.Close()

	_, err := c.FetchByID(context.Background(), 1)
	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, ErrorClassNetwork, classOf(err))
}

func TestFetchByID_ContextCancelled(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.PutItem(sampleItem(11))
	mock.SetDelay(time.Second)

	c := newTestClient(t, mock, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.FetchByID(ctx, 11)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestFetchByID_UpdatesRateLimitState(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.PutItem(sampleItem(12))
	mock.SetRateLimit(37, 60)

	tracker := newTestTracker(t)
	c := newTestClient(t, mock, tracker)

	_, err := c.FetchByID(context.Background(), 12)
	require.NoError(t, err)

	state, err := tracker.GetState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 37, state.Remaining)
}

func TestFetchByID_BlockedByRateLimit(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.PutItem(sampleItem(13))
	mock.SetRateLimit(1, 60)

	tracker := newTestTracker(t)
	c := newTestClient(t, mock, tracker)

	// The first response reports an exhausted budget.
	_, err := c.FetchByID(context.Background(), 13)
	require.NoError(t, err)

	_, err = c.FetchByID(context.Background(), 13)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, mock.RequestCount())
}

func newMuxClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := newHTTPTestServer(t, mux)
	cfg := DefaultConfig(srv)
	cfg.Retry = fastPolicy(1)
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func newHTTPTestServer(t *testing.T, h http.Handler) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv.URL
}
