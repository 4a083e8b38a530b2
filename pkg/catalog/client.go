// Package catalog fetches flash-sale item records from the catalog HTTP
// service. Client and MemoryStore both satisfy itemcache.ItemStore.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/flashsale-itemcache/pkg/itemcache"
	"github.com/Sternrassler/flashsale-itemcache/pkg/logging"
	"github.com/Sternrassler/flashsale-itemcache/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flashsale_catalog_requests_total",
		Help: "Total catalog requests by status",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flashsale_catalog_request_duration_seconds",
		Help:    "Catalog fetch duration in seconds including retries",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flashsale_catalog_errors_total",
		Help: "Total catalog errors by class",
	}, []string{"class"})
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 1 << 20

// Config holds the client configuration.
type Config struct {
	// BaseURL of the catalog service, e.g. "http://catalog:8080".
	BaseURL string

	// UserAgent is sent with every request.
	UserAgent string

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	// RateLimiter gates requests on the shared budget. Optional.
	RateLimiter *ratelimit.Tracker

	// Retry overrides RetryConfigForErrorClass. Optional.
	Retry RetryPolicy
}

// DefaultConfig returns a configuration for the catalog at baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: "flashsale-itemcache/1.0",
		Timeout:   time.Second,
	}
}

// Client is an itemcache.ItemStore backed by the catalog HTTP API.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

var _ itemcache.ItemStore = (*Client)(nil)

// New creates a catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base url is required")
	}
	if cfg.UserAgent == "" {
		return nil, errors.New("user-agent is required")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive (got %s)", cfg.Timeout)
	}
	if cfg.Retry == nil {
		cfg.Retry = RetryConfigForErrorClass
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		logger:     logging.NewLogger("catalog-client"),
	}, nil
}

// SetHTTPClient replaces the HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// FetchByID returns the item with the given id. A 404 is reported as
// itemcache.ErrItemNotFound. Server, network and 429 failures are retried.
func (c *Client) FetchByID(ctx context.Context, itemID int64) (*itemcache.Item, error) {
	start := time.Now()
	defer func() {
		requestDuration.Observe(time.Since(start).Seconds())
	}()

	if c.config.RateLimiter != nil {
		allowed, err := c.config.RateLimiter.ShouldAllowRequest(ctx)
		if err != nil {
			return nil, fmt.Errorf("rate limit check: %w", err)
		}
		if !allowed {
			requestsTotal.WithLabelValues("rate_limited").Inc()
			c.logger.Warn().Int64("item_id", itemID).Msg("Catalog request blocked by rate limiter")
			return nil, ErrRateLimited
		}
	}

	url := c.config.BaseURL + "/items/" + strconv.FormatInt(itemID, 10)
	var item *itemcache.Item

	err := retryWithBackoff(ctx, c.logger, c.config.Retry, func() error {
		var err error
		item, err = c.fetchOnce(ctx, url)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (c *Client) fetchOnce(ctx context.Context, url string) (*itemcache.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues("network_error").Inc()
		c.logger.Warn().Err(err).Str("url", url).Msg("Catalog request failed")
		return nil, &CatalogError{ErrorClass: ErrorClassNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if c.config.RateLimiter != nil {
		if err := c.config.RateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
		}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var item itemcache.Item
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&item); err != nil {
			errorsTotal.WithLabelValues(string(ErrorClassInvalidResponse)).Inc()
			return nil, &CatalogError{
				StatusCode: resp.StatusCode,
				ErrorClass: ErrorClassInvalidResponse,
				Message:    "decode item",
				Err:        err,
			}
		}
		return &item, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, itemcache.ErrItemNotFound

	default:
		class := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Str("url", url).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Catalog request error")
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &CatalogError{
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    resp.Status,
		}
	}
}
