package cart

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/nwca-cart/internal/constants"
	"github.com/nwca-cart/internal/logger"
	"github.com/nwca-cart/internal/models"
	"github.com/nwca-cart/internal/proxy"
)

// SizeInput is one requested size line.
type SizeInput struct {
	Size            string       `json:"size"`
	Quantity        int          `json:"quantity"`
	UnitPrice       models.Money `json:"unit_price"`
	WarehouseSource string       `json:"warehouse_source,omitempty"`
}

// AddToCartInput is the add-to-cart request. Confirmed resolves a previous
// RequiresConfirmation outcome for a cross-type mix.
type AddToCartInput struct {
	StyleNumber  string      `json:"style_number"`
	Color        string      `json:"color"`
	ImprintType  string      `json:"imprint_type"`
	ProductID    string      `json:"product_id,omitempty"`
	ProductTitle string      `json:"product_title,omitempty"`
	ImageURL     string      `json:"image_url,omitempty"`
	Sizes        []SizeInput `json:"sizes"`
	Options      models.JSON `json:"embellishment_options,omitempty"`
	StitchCount  int         `json:"stitch_count,omitempty"`
	Confirmed    bool        `json:"confirmed,omitempty"`
}

func validateAddInput(input AddToCartInput) error {
	if strings.TrimSpace(input.StyleNumber) == "" {
		return &ValidationError{Message: "style number is required"}
	}
	if strings.TrimSpace(input.Color) == "" {
		return &ValidationError{Message: "color is required"}
	}
	if strings.TrimSpace(input.ImprintType) == "" {
		return &ValidationError{Message: "imprint type is required"}
	}
	hasQuantity := false
	for _, s := range input.Sizes {
		if s.Quantity < 0 {
			return &ValidationError{Message: "size quantities must not be negative"}
		}
		if s.Quantity > 0 {
			hasQuantity = true
		}
	}
	if !hasQuantity {
		return &ValidationError{Message: "at least one size with a positive quantity is required"}
	}
	if input.ImprintType == constants.ImprintCapEmbroidery &&
		input.StitchCount <= 0 && input.Options.Int(constants.OptionKeyStitchCount) <= 0 {
		return &ValidationError{Message: "stitch count is required for Cap Embroidery"}
	}
	return nil
}

// AddToCart validates and adds a style/color/imprint grouping, merging into
// an existing active item with the same grouping.
func (e *Engine) AddToCart(ctx context.Context, input AddToCartInput) Result {
	e.mu.Lock()
	res := e.addLocked(ctx, input)
	events := e.finishMutationLocked(res)
	e.mu.Unlock()
	e.flush(events)
	return res
}

func (e *Engine) addLocked(ctx context.Context, input AddToCartInput) Result {
	e.ensureSessionLocked(ctx)

	if err := validateAddInput(input); err != nil {
		return failResult(err)
	}

	stitch := input.StitchCount
	if stitch == 0 {
		stitch = input.Options.Int(constants.OptionKeyStitchCount)
	}
	needsConfirmation, err := checkImprintRules(e.activeItemsLocked(), input.ImprintType, stitch)
	if err != nil {
		return failResult(err)
	}
	if needsConfirmation && !input.Confirmed {
		// the caller resolves the confirmation and re-invokes with Confirmed
		return Result{Success: false, RequiresConfirmation: true}
	}

	if e.inventoryCheck {
		requested := make(map[string]int)
		for _, s := range input.Sizes {
			if s.Quantity > 0 {
				requested[s.Size] += s.Quantity
			}
		}
		if err := e.checkInventoryLocked(ctx, input.StyleNumber, input.Color, requested); err != nil {
			return failResult(err)
		}
	}

	if existing := e.findGroupLocked(input); existing != nil {
		e.mergeSizesLocked(ctx, existing, input)
	} else {
		item := e.buildItemLocked(input, stitch)
		if !e.localOnly() {
			if err := e.pushItemLocked(ctx, &item); err != nil {
				var sce *sizeCreateError
				if errors.As(err, &sce) {
					return failResult(err)
				}
				// item-level failure: keep it local and unsynced, the next
				// sync retries the push
			}
		}
		e.items = append(e.items, item)
	}

	e.persistLocked()
	e.recalcLocked(ctx, input.ImprintType)
	e.queueEventLocked(constants.EventCartItemAdded)
	if err := e.syncLocked(ctx); err != nil {
		logger.Warnw("cart_post_add_sync_failed", "error", err)
	}
	e.persistLocked()
	return Result{Success: true}
}

func (e *Engine) findGroupLocked(input AddToCartInput) *models.CartItem {
	key := models.CartItem{
		StyleNumber: input.StyleNumber,
		Color:       input.Color,
		ImprintType: input.ImprintType,
	}.GroupKey()
	for i := range e.items {
		if e.items[i].CartStatus == constants.CartStatusActive && e.items[i].GroupKey() == key {
			return &e.items[i]
		}
	}
	return nil
}

func (e *Engine) buildItemLocked(input AddToCartInput, stitch int) models.CartItem {
	opts := models.JSON{}
	for k, v := range input.Options {
		opts[k] = v
	}
	if stitch > 0 {
		opts[constants.OptionKeyStitchCount] = stitch
	}
	item := models.CartItem{
		LocalID:      e.allocItemID(),
		SessionID:    e.sessionID,
		ProductID:    input.ProductID,
		StyleNumber:  input.StyleNumber,
		Color:        input.Color,
		ImprintType:  input.ImprintType,
		ImageURL:     input.ImageURL,
		ProductTitle: input.ProductTitle,
		Options:      opts,
		DateAdded:    time.Now(),
		CartStatus:   constants.CartStatusActive,
	}
	for _, s := range input.Sizes {
		if s.Quantity <= 0 {
			continue
		}
		item.Sizes = append(item.Sizes, models.CartItemSize{
			LocalID:         e.allocSizeID(),
			ItemLocalID:     item.LocalID,
			Size:            s.Size,
			Quantity:        s.Quantity,
			UnitPrice:       s.UnitPrice,
			WarehouseSource: s.WarehouseSource,
		})
	}
	return item
}

// mergeSizesLocked folds requested sizes into an existing item: matching
// sizes sum quantities, new sizes are appended. Server writes are best
// effort; the next sync reconciles.
func (e *Engine) mergeSizesLocked(ctx context.Context, item *models.CartItem, input AddToCartInput) {
	for _, in := range input.Sizes {
		if in.Quantity <= 0 {
			continue
		}
		var match *models.CartItemSize
		for j := range item.Sizes {
			if item.Sizes[j].Size == in.Size {
				match = &item.Sizes[j]
				break
			}
		}
		if match != nil {
			match.Quantity += in.Quantity
			if match.SizeItemID != nil && item.Synced() && !e.localOnly() {
				if err := e.client.UpdateSize(ctx, *match.SizeItemID, sizeRecord(*item.CartItemID, *match)); err != nil {
					logger.Warnw("cart_size_update_failed", "size_item_id", *match.SizeItemID, "error", err)
				}
			}
			continue
		}
		size := models.CartItemSize{
			LocalID:         e.allocSizeID(),
			ItemLocalID:     item.LocalID,
			Size:            in.Size,
			Quantity:        in.Quantity,
			UnitPrice:       in.UnitPrice,
			WarehouseSource: in.WarehouseSource,
		}
		if item.Synced() && !e.localOnly() {
			if rec, err := e.client.CreateSize(ctx, sizeRecord(*item.CartItemID, size)); err != nil {
				logger.Warnw("cart_size_create_failed", "size", size.Size, "error", err)
			} else if rec != nil && rec.SizeItemID != 0 {
				id := rec.SizeItemID
				size.SizeItemID = &id
			}
		}
		item.Sizes = append(item.Sizes, size)
	}
}

// checkInventoryLocked validates requested quantities against available
// inventory. An unreachable inventory endpoint means "inventory unknown":
// the check is skipped so the cart stays usable offline.
func (e *Engine) checkInventoryLocked(ctx context.Context, styleNumber, color string, requested map[string]int) error {
	records, err := e.client.Inventory(ctx, styleNumber, color)
	if err != nil {
		logger.Warnw("cart_inventory_check_skipped", "style", styleNumber, "color", color, "error", err)
		return nil
	}
	available := proxy.AggregateInventory(records)

	sizes := make([]string, 0, len(requested))
	for size := range requested {
		sizes = append(sizes, size)
	}
	sort.Strings(sizes)

	var shortages []InventoryShortage
	for _, size := range sizes {
		if qty := requested[size]; qty > available[size] {
			shortages = append(shortages, InventoryShortage{
				Size:      size,
				Requested: qty,
				Available: available[size],
			})
		}
	}
	if len(shortages) > 0 {
		return &InventoryError{Shortages: shortages}
	}
	return nil
}
