// Package testutil provides test doubles shared across packages.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/flashsale-itemcache/pkg/itemcache"
)

// MockCatalog is a configurable in-process catalog HTTP server.
//
// GET /items/{id} serves the stored item as JSON, 404 for unknown ids,
// and 400 for malformed ids. Queued failures are served before the item.
type MockCatalog struct {
	server *httptest.Server

	mu        sync.Mutex
	items     map[int64]itemcache.Item
	failures  map[int64][]int
	delay     time.Duration
	remaining int
	reset     int

	requests      int
	itemRequests  map[int64]int
	lastUserAgent string
}

// NewMockCatalog starts a mock catalog. It reports a healthy rate limit
// budget until SetRateLimit is called.
func NewMockCatalog() *MockCatalog {
	m := &MockCatalog{
		items:        make(map[int64]itemcache.Item),
		failures:     make(map[int64][]int),
		itemRequests: make(map[int64]int),
		remaining:    100,
		reset:        60,
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// URL returns the base URL of the server.
func (m *MockCatalog) URL() string {
	return m.server.URL
}

// Close shuts the server down.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// PutItem stores an item.
func (m *MockCatalog) PutItem(item itemcache.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
}

// DeleteItem removes an item.
func (m *MockCatalog) DeleteItem(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
}

// FailNext makes the next requests for id answer with the given status
// codes, in order.
func (m *MockCatalog) FailNext(id int64, statuses ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[id] = append(m.failures[id], statuses...)
}

// SetDelay delays every response.
func (m *MockCatalog) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// SetRateLimit sets the budget reported in X-RateLimit-* headers.
func (m *MockCatalog) SetRateLimit(remaining, resetSeconds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remaining = remaining
	m.reset = resetSeconds
}

// RequestCount returns the total number of requests served.
func (m *MockCatalog) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}

// ItemRequestCount returns the number of requests for one id.
func (m *MockCatalog) ItemRequestCount(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.itemRequests[id]
}

// LastUserAgent returns the User-Agent of the latest request.
func (m *MockCatalog) LastUserAgent() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastUserAgent
}

func (m *MockCatalog) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requests++
	m.lastUserAgent = r.UserAgent()
	delay := m.delay
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(m.remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(m.reset))
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	rest, ok := strings.CutPrefix(r.URL.Path, "/items/")
	if !ok || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		http.Error(w, `{"error":"bad item id"}`, http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.itemRequests[id]++
	var status int
	if queue := m.failures[id]; len(queue) > 0 {
		status, m.failures[id] = queue[0], queue[1:]
	}
	item, found := m.items[id]
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	switch {
	case status != 0:
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"injected failure"}`))
	case !found:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"item not found"}`))
	default:
		_ = json.NewEncoder(w).Encode(item)
	}
}
