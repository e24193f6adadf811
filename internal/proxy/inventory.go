package proxy

import (
	"context"
	"net/http"
	"net/url"
)

// Inventory fetches available inventory rows for a style/color.
func (c *Client) Inventory(ctx context.Context, styleNumber, color string) ([]InventoryRecord, error) {
	query := url.Values{
		"styleNumber": {styleNumber},
		"color":       {color},
	}
	var records []InventoryRecord
	if err := c.do(ctx, http.MethodGet, "/inventory", query, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}
