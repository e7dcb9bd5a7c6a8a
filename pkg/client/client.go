// Package client is a typed HTTP client for the order service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"tableorders/pkg/order"
)

var (
	// ErrNotFound is returned when the service answers 404.
	ErrNotFound = errors.New("not found")
	// ErrBadRequest is returned when the service answers 400, for example for
	// a table outside the configured range.
	ErrBadRequest = errors.New("bad request")
)

// StatusError is returned for any other non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Message)
}

// Client talks to one order service.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRateLimit bounds the requests per second issued by this client across
// all goroutines. A non-positive rps disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New returns a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type configResponse struct {
	TableRange order.TableRange `json:"table_range"`
}

type createRequest struct {
	TableID uint32           `json:"table_id"`
	Menus   []order.MenuItem `json:"menus"`
}

// Config fetches the service's table range.
func (c *Client) Config(ctx context.Context) (order.TableRange, error) {
	cfg, err := do[configResponse](ctx, c, http.MethodGet, "/configs", nil)
	return cfg.TableRange, err
}

// Menus fetches the menu catalog.
func (c *Client) Menus(ctx context.Context) ([]order.MenuItem, error) {
	return do[[]order.MenuItem](ctx, c, http.MethodGet, "/menus", nil)
}

// ListOrders fetches a table's orders.
func (c *Client) ListOrders(ctx context.Context, tableID uint32) ([]order.Order, error) {
	return do[[]order.Order](ctx, c, http.MethodGet, fmt.Sprintf("/tables/%d/orders", tableID), nil)
}

// GetOrder fetches one order of a table.
func (c *Client) GetOrder(ctx context.Context, tableID uint32, id uuid.UUID) (order.Order, error) {
	return do[order.Order](ctx, c, http.MethodGet, fmt.Sprintf("/tables/%d/orders/%s", tableID, id), nil)
}

// CreateOrders places one order per item at the table.
func (c *Client) CreateOrders(ctx context.Context, tableID uint32, items []order.MenuItem) ([]order.Order, error) {
	if items == nil {
		items = []order.MenuItem{}
	}
	return do[[]order.Order](ctx, c, http.MethodPost, "/orders", createRequest{TableID: tableID, Menus: items})
}

// DeleteOrder removes one order of a table.
func (c *Client) DeleteOrder(ctx context.Context, tableID uint32, id uuid.UUID) error {
	_, err := do[struct{}](ctx, c, http.MethodDelete, fmt.Sprintf("/tables/%d/orders/%s", tableID, id), nil)
	return err
}

type envelope[T any] struct {
	Status  string `json:"status"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

func do[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var zero T

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return zero, fmt.Errorf("%s %s: rate limit: %w", method, path, err)
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("%s %s: encode body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env envelope[json.RawMessage]
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&env)
		switch resp.StatusCode {
		case http.StatusNotFound:
			return zero, fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
		case http.StatusBadRequest:
			return zero, fmt.Errorf("%s %s: %s: %w", method, path, env.Message, ErrBadRequest)
		}
		return zero, fmt.Errorf("%s %s: %w", method, path, &StatusError{Code: resp.StatusCode, Message: env.Message})
	}

	if resp.StatusCode == http.StatusNoContent {
		return zero, nil
	}

	var env envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return zero, fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return env.Data, nil
}
