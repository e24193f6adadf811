package proxy

import (
	"time"

	"github.com/nwca-cart/internal/models"
)

// SessionRecord mirrors one /cart-sessions row.
type SessionRecord struct {
	SessionID    string `json:"SessionID"`
	CreateDate   string `json:"CreateDate"`
	LastActivity string `json:"LastActivity"`
	IsActive     bool   `json:"IsActive"`
}

// CreateSessionInput is the /cart-sessions create body. The session id is
// client-generated; the proxy only acknowledges.
type CreateSessionInput struct {
	SessionID    string    `json:"SessionID"`
	CreateDate   time.Time `json:"CreateDate"`
	LastActivity time.Time `json:"LastActivity"`
	UserAgent    string    `json:"UserAgent"`
	IPAddress    string    `json:"IPAddress"`
	IsActive     bool      `json:"IsActive"`
}

// ItemRecord mirrors one /cart-items row. The proxy populates the image URL
// under either of two field-name conventions; Normalize fills both so
// downstream code never has to care.
type ItemRecord struct {
	CartItemID           int64  `json:"CartItemID,omitempty"`
	SessionID            string `json:"SessionID"`
	ProductID            string `json:"ProductID"`
	StyleNumber          string `json:"StyleNumber"`
	Color                string `json:"Color"`
	ImprintType          string `json:"ImprintType"`
	ImageURL             string `json:"ImageURL"`
	ImageURLLower        string `json:"imageUrl"`
	ProductTitle         string `json:"PRODUCT_TITLE"`
	EmbellishmentOptions string `json:"EmbellishmentOptions"` // JSON string
	DateAdded            string `json:"DateAdded"`
	CartStatus           string `json:"CartStatus"`
}

// Normalize populates both image URL casings from whichever one is set.
func (r *ItemRecord) Normalize() {
	if r.ImageURL == "" {
		r.ImageURL = r.ImageURLLower
	}
	if r.ImageURLLower == "" {
		r.ImageURLLower = r.ImageURL
	}
}

// SizeRecord mirrors one /cart-item-sizes row.
type SizeRecord struct {
	SizeItemID      int64        `json:"SizeItemID,omitempty"`
	CartItemID      int64        `json:"CartItemID"`
	Size            string       `json:"Size"`
	Quantity        int          `json:"Quantity"`
	UnitPrice       models.Money `json:"UnitPrice"`
	WarehouseSource string       `json:"WarehouseSource,omitempty"`
}

// InventoryRecord is one /inventory row. Rows repeat per warehouse; callers
// aggregate by size.
type InventoryRecord struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

// AggregateInventory sums inventory rows by size label.
func AggregateInventory(records []InventoryRecord) map[string]int {
	totals := make(map[string]int, len(records))
	for _, rec := range records {
		totals[rec.Size] += rec.Quantity
	}
	return totals
}
