package cart

import (
	"time"

	"github.com/nwca-cart/internal/models"
)

// State is a point-in-time snapshot of the cart.
type State struct {
	SessionID   string            `json:"session_id"`
	Items       []models.CartItem `json:"items"`
	Loading     bool              `json:"loading"`
	Error       string            `json:"error,omitempty"`
	LastSync    time.Time         `json:"last_sync"`
	Initialized bool              `json:"initialized"`
}

func copyItems(items []models.CartItem) []models.CartItem {
	out := make([]models.CartItem, len(items))
	copy(out, items)
	for i := range out {
		sizes := make([]models.CartItemSize, len(out[i].Sizes))
		copy(sizes, out[i].Sizes)
		out[i].Sizes = sizes
	}
	return out
}
