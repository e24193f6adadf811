// Package proxy is the typed client for the remote cart REST proxy:
// sessions, items, size sub-records and inventory.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrConfigInvalid = errors.New("cart proxy config invalid")

// RequestError wraps a transport-level failure (network class). Callers only
// use the distinction for message wording, never for control flow.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return "cart proxy unreachable: " + e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// APIError wraps a non-2xx proxy response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("cart proxy returned status %d", e.Status)
	}
	return fmt.Sprintf("cart proxy returned status %d: %s", e.Status, e.Body)
}

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}

// Config holds the proxy client settings.
type Config struct {
	BaseURL   string        // e.g. https://proxy.example.com/api
	Timeout   time.Duration // per-request timeout, defaults to 15s
	UserAgent string
}

// Client talks to the cart proxy.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// New creates a proxy client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrConfigInvalid
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode cart proxy request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build cart proxy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &RequestError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode cart proxy response: %w", err)
	}
	return nil
}
