package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nwca-cart/internal/constants"
)

// CartSession is the cart session adopted by this client. A session is never
// mutated after creation, only replaced.
type CartSession struct {
	SessionID    string    `gorm:"primarykey" json:"session_id"`
	CreateDate   time.Time `json:"create_date"`
	LastActivity time.Time `json:"last_activity"`
	IsActive     bool      `json:"is_active"`
}

// TableName sets the table name.
func (CartSession) TableName() string {
	return "cart_sessions"
}

// LocalOnly reports whether the session was never registered with the proxy.
func (s CartSession) LocalOnly() bool {
	return strings.HasPrefix(s.SessionID, constants.SessionPrefixLocal)
}

// CartItem is one style/color/imprint grouping in the cart.
type CartItem struct {
	LocalID      uint      `gorm:"primarykey" json:"local_id"`
	CartItemID   *int64    `gorm:"index" json:"cart_item_id"` // server id, nil until synced
	SessionID    string    `gorm:"index" json:"session_id"`
	ProductID    string    `gorm:"type:varchar(50)" json:"product_id"`
	StyleNumber  string    `gorm:"type:varchar(50);not null" json:"style_number"`
	Color        string    `gorm:"type:varchar(100);not null" json:"color"`
	ImprintType  string    `gorm:"type:varchar(50);not null" json:"imprint_type"`
	ImageURL     string    `gorm:"type:varchar(500)" json:"image_url"`
	ProductTitle string    `gorm:"type:varchar(255)" json:"product_title"`
	Options      JSON      `gorm:"type:json" json:"embellishment_options"`
	DateAdded    time.Time `json:"date_added"`
	CartStatus   string    `gorm:"type:varchar(20);not null" json:"cart_status"`

	Sizes []CartItemSize `gorm:"foreignKey:ItemLocalID;constraint:OnDelete:CASCADE" json:"sizes"`
}

// TableName sets the table name.
func (CartItem) TableName() string {
	return "cart_items"
}

// Synced reports whether the item has been persisted on the proxy.
func (i CartItem) Synced() bool {
	return i.CartItemID != nil
}

// GroupKey identifies items that merge on re-add.
func (i CartItem) GroupKey() string {
	return i.StyleNumber + "|" + i.Color + "|" + i.ImprintType
}

// StitchCount reads the stitch count out of the options blob (0 when absent).
func (i CartItem) StitchCount() int {
	return i.Options.Int(constants.OptionKeyStitchCount)
}

// TotalQuantity sums the item's size quantities.
func (i CartItem) TotalQuantity() int {
	total := 0
	for _, size := range i.Sizes {
		total += size.Quantity
	}
	return total
}

// Subtotal sums quantity times unit price across the item's sizes.
func (i CartItem) Subtotal() Money {
	total := decimal.Zero
	for _, size := range i.Sizes {
		total = total.Add(size.UnitPrice.Mul(decimal.NewFromInt(int64(size.Quantity))))
	}
	return NewMoneyFromDecimal(total)
}

// CartItemSize is one per-size quantity/price sub-record of a cart item.
type CartItemSize struct {
	LocalID         uint   `gorm:"primarykey" json:"local_id"`
	ItemLocalID     uint   `gorm:"index" json:"-"`
	SizeItemID      *int64 `gorm:"index" json:"size_item_id"` // server id, nil until synced
	Size            string `gorm:"type:varchar(20);not null" json:"size"`
	Quantity        int    `gorm:"not null" json:"quantity"`
	UnitPrice       Money  `gorm:"type:decimal(10,2)" json:"unit_price"`
	WarehouseSource string `gorm:"type:varchar(50)" json:"warehouse_source,omitempty"`
}

// TableName sets the table name.
func (CartItemSize) TableName() string {
	return "cart_item_sizes"
}

// MirrorMeta is local key-value metadata for the durable mirror.
type MirrorMeta struct {
	Key   string `gorm:"primarykey" json:"key"`
	Value string `json:"value"`
}

// TableName sets the table name.
func (MirrorMeta) TableName() string {
	return "mirror_meta"
}
