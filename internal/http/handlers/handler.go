// Package handlers exposes the cart engine over the HTTP facade.
package handlers

import "github.com/nwca-cart/internal/provider"

// Handler is the cart facade handler entry.
type Handler struct {
	*provider.Container
}

// New creates the facade handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
