package proxy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListItems fetches every item of a session.
func (c *Client) ListItems(ctx context.Context, sessionID string) ([]ItemRecord, error) {
	query := url.Values{"sessionID": {sessionID}}
	var records []ItemRecord
	if err := c.do(ctx, http.MethodGet, "/cart-items", query, nil, &records); err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Normalize()
	}
	return records, nil
}

// CreateItem persists a new item and returns the created record.
func (c *Client) CreateItem(ctx context.Context, rec ItemRecord) (*ItemRecord, error) {
	var created ItemRecord
	if err := c.do(ctx, http.MethodPost, "/cart-items", nil, rec, &created); err != nil {
		return nil, err
	}
	created.Normalize()
	return &created, nil
}

// UpdateItem replaces an item record.
func (c *Client) UpdateItem(ctx context.Context, cartItemID int64, rec ItemRecord) error {
	path := fmt.Sprintf("/cart-items/%d", cartItemID)
	return c.do(ctx, http.MethodPut, path, nil, rec, nil)
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, cartItemID int64) error {
	path := fmt.Sprintf("/cart-items/%d", cartItemID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}
