package proxy

import (
	"context"
	"net/http"
	"net/url"
)

// GetSession fetches one session record; nil when the proxy has none.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*SessionRecord, error) {
	query := url.Values{"sessionID": {sessionID}}
	var records []SessionRecord
	if err := c.do(ctx, http.MethodGet, "/cart-sessions", query, nil, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	rec := records[0]
	return &rec, nil
}

// CreateSession registers a client-generated session id with the proxy.
func (c *Client) CreateSession(ctx context.Context, input CreateSessionInput) error {
	return c.do(ctx, http.MethodPost, "/cart-sessions", nil, input, nil)
}
