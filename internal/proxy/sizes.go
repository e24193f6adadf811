package proxy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ListSizes fetches the size sub-records of one item.
func (c *Client) ListSizes(ctx context.Context, cartItemID int64) ([]SizeRecord, error) {
	query := url.Values{"cartItemID": {strconv.FormatInt(cartItemID, 10)}}
	var records []SizeRecord
	if err := c.do(ctx, http.MethodGet, "/cart-item-sizes", query, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CreateSize persists a new size record and returns the created record.
func (c *Client) CreateSize(ctx context.Context, rec SizeRecord) (*SizeRecord, error) {
	var created SizeRecord
	if err := c.do(ctx, http.MethodPost, "/cart-item-sizes", nil, rec, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateSize replaces a size record.
func (c *Client) UpdateSize(ctx context.Context, sizeItemID int64, rec SizeRecord) error {
	path := fmt.Sprintf("/cart-item-sizes/%d", sizeItemID)
	return c.do(ctx, http.MethodPut, path, nil, rec, nil)
}

// DeleteSize removes a size record.
func (c *Client) DeleteSize(ctx context.Context, sizeItemID int64) error {
	path := fmt.Sprintf("/cart-item-sizes/%d", sizeItemID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}
