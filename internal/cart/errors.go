package cart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nwca-cart/internal/proxy"
)

var ErrItemNotFound = errors.New("cart item not found")

// ValidationError reports missing or malformed add-to-cart input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// BusinessRuleError reports an imprint-type or stitch-count conflict.
type BusinessRuleError struct {
	Message string
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

// InventoryShortage is one size whose requested quantity exceeds inventory.
type InventoryShortage struct {
	Size      string
	Requested int
	Available int
}

// InventoryError aggregates every offending size of one request.
type InventoryError struct {
	Shortages []InventoryShortage
}

func (e *InventoryError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", s.Size, s.Requested, s.Available))
	}
	return "insufficient inventory: " + strings.Join(parts, "; ")
}

// SyncError reports a reconciliation failure. Partial means some items
// synced and the warning is non-blocking.
type SyncError struct {
	Partial bool
	Message string
	Err     error
}

func (e *SyncError) Error() string {
	return e.Message
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// syncMessage words a sync failure for the UI. Network-class and API-class
// failures differ only here, never in control flow.
func syncMessage(err error) string {
	if proxy.IsNetwork(err) {
		return "cart server unreachable, working from the local copy"
	}
	return "cart sync failed: " + err.Error()
}

// sizeCreateError marks a size-level create failure after the parent item
// was already created server-side (the orphan is rolled back best-effort).
type sizeCreateError struct {
	err error
}

func (e *sizeCreateError) Error() string {
	return "cart item size create failed: " + e.err.Error()
}

func (e *sizeCreateError) Unwrap() error {
	return e.err
}
