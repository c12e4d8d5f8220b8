package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRetries    = 2
	defaultRetryDelay = 200 * time.Millisecond
	defaultLimit      = 10
)

// HTTPClient reads products from a catalog HTTP API. Reads are retried a
// bounded number of times on transport errors and 5xx responses; a 404 on
// Get maps to ErrNotFound and is never retried.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
	retries int
	delay   time.Duration
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithToken sets the bearer token sent on catalog requests.
func WithToken(token string) HTTPOption {
	return func(c *HTTPClient) { c.token = token }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(c *HTTPClient) { c.client.Timeout = timeout }
}

// WithRetries sets how many times a failed read is retried.
func WithRetries(retries int, delay time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		c.retries = retries
		c.delay = delay
	}
}

// NewHTTPClient creates a catalog client for baseURL.
func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
		retries: defaultRetries,
		delay:   defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search queries the catalog's search endpoint.
func (c *HTTPClient) Search(ctx context.Context, query string, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	endpoint := fmt.Sprintf("%s/products/search?q=%s&limit=%s",
		c.baseURL, url.QueryEscape(query), strconv.Itoa(limit))

	var out struct {
		Products []Product `json:"products"`
	}
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}
	if out.Products == nil {
		out.Products = []Product{}
	}
	return out.Products, nil
}

// Get fetches one product by id.
func (c *HTTPClient) Get(ctx context.Context, id string) (Product, error) {
	endpoint := fmt.Sprintf("%s/products/%s", c.baseURL, url.PathEscape(id))

	var out Product
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("fetching product %s: %w", id, err)
	}
	return out, nil
}

// getJSON performs a GET with retries and decodes the JSON body into out.
func (c *HTTPClient) getJSON(ctx context.Context, endpoint string, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.delay):
			}
		}

		err := c.doOnce(ctx, endpoint, out)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrNotFound) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (c *HTTPClient) doOnce(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building catalog request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling catalog: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding catalog response: %w", err)
	}
	return nil
}

// Verify interface compliance.
var _ Client = (*HTTPClient)(nil)
