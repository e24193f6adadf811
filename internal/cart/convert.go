package cart

import (
	"encoding/json"
	"time"

	"github.com/nwca-cart/internal/constants"
	"github.com/nwca-cart/internal/models"
	"github.com/nwca-cart/internal/proxy"
)

func (e *Engine) itemFromRecord(rec proxy.ItemRecord, sizes []proxy.SizeRecord) models.CartItem {
	opts := models.JSON{}
	if rec.EmbellishmentOptions != "" {
		_ = json.Unmarshal([]byte(rec.EmbellishmentOptions), &opts)
	}
	added, err := time.Parse(time.RFC3339, rec.DateAdded)
	if err != nil {
		added = time.Now()
	}
	status := rec.CartStatus
	if status == "" {
		status = constants.CartStatusActive
	}
	serverID := rec.CartItemID
	item := models.CartItem{
		LocalID:      e.allocItemID(),
		CartItemID:   &serverID,
		SessionID:    e.sessionID,
		ProductID:    rec.ProductID,
		StyleNumber:  rec.StyleNumber,
		Color:        rec.Color,
		ImprintType:  rec.ImprintType,
		ImageURL:     rec.ImageURL,
		ProductTitle: rec.ProductTitle,
		Options:      opts,
		DateAdded:    added,
		CartStatus:   status,
	}
	for _, s := range sizes {
		sizeID := s.SizeItemID
		item.Sizes = append(item.Sizes, models.CartItemSize{
			LocalID:         e.allocSizeID(),
			ItemLocalID:     item.LocalID,
			SizeItemID:      &sizeID,
			Size:            s.Size,
			Quantity:        s.Quantity,
			UnitPrice:       s.UnitPrice,
			WarehouseSource: s.WarehouseSource,
		})
	}
	return item
}

func recordFromItem(item models.CartItem) proxy.ItemRecord {
	opts := "{}"
	if item.Options != nil {
		if b, err := json.Marshal(item.Options); err == nil {
			opts = string(b)
		}
	}
	rec := proxy.ItemRecord{
		SessionID:            item.SessionID,
		ProductID:            item.ProductID,
		StyleNumber:          item.StyleNumber,
		Color:                item.Color,
		ImprintType:          item.ImprintType,
		ImageURL:             item.ImageURL,
		ImageURLLower:        item.ImageURL,
		ProductTitle:         item.ProductTitle,
		EmbellishmentOptions: opts,
		DateAdded:            item.DateAdded.UTC().Format(time.RFC3339),
		CartStatus:           item.CartStatus,
	}
	if item.CartItemID != nil {
		rec.CartItemID = *item.CartItemID
	}
	return rec
}

func sizeRecord(cartItemID int64, size models.CartItemSize) proxy.SizeRecord {
	rec := proxy.SizeRecord{
		CartItemID:      cartItemID,
		Size:            size.Size,
		Quantity:        size.Quantity,
		UnitPrice:       size.UnitPrice,
		WarehouseSource: size.WarehouseSource,
	}
	if size.SizeItemID != nil {
		rec.SizeItemID = *size.SizeItemID
	}
	return rec
}
