package cart

import (
	"context"
	"fmt"

	"github.com/nwca-cart/internal/logger"
)

// UpdateQuantity sets the quantity of one size on an item. Zero or negative
// quantity deletes the size; an item whose last size goes is removed whole.
func (e *Engine) UpdateQuantity(ctx context.Context, cartItemID int64, size string, quantity int) Result {
	e.mu.Lock()
	res := e.updateQuantityLocked(ctx, cartItemID, size, quantity)
	events := e.finishMutationLocked(res)
	e.mu.Unlock()
	e.flush(events)
	return res
}

func (e *Engine) updateQuantityLocked(ctx context.Context, cartItemID int64, size string, quantity int) Result {
	e.ensureSessionLocked(ctx)

	item := e.findItemLocked(cartItemID)
	if item == nil {
		return failResult(ErrItemNotFound)
	}
	idx := -1
	for i := range item.Sizes {
		if item.Sizes[i].Size == size {
			idx = i
			break
		}
	}
	if idx < 0 {
		return failResult(&ValidationError{Message: fmt.Sprintf("size %q is not on the cart item", size)})
	}

	if quantity > 0 && e.inventoryCheck {
		if err := e.checkInventoryLocked(ctx, item.StyleNumber, item.Color, map[string]int{size: quantity}); err != nil {
			return failResult(err)
		}
	}

	if quantity <= 0 {
		sz := item.Sizes[idx]
		if sz.SizeItemID != nil && !e.localOnly() {
			if err := e.client.DeleteSize(ctx, *sz.SizeItemID); err != nil {
				logger.Warnw("cart_size_delete_failed", "size_item_id", *sz.SizeItemID, "error", err)
			}
		}
		item.Sizes = append(item.Sizes[:idx], item.Sizes[idx+1:]...)
		if len(item.Sizes) == 0 {
			return e.removeItemLocked(ctx, itemRef(item))
		}
	} else {
		item.Sizes[idx].Quantity = quantity
		if item.Sizes[idx].SizeItemID != nil && item.Synced() && !e.localOnly() {
			if err := e.client.UpdateSize(ctx, *item.Sizes[idx].SizeItemID, sizeRecord(*item.CartItemID, item.Sizes[idx])); err != nil {
				logger.Warnw("cart_size_update_failed", "size_item_id", *item.Sizes[idx].SizeItemID, "error", err)
			}
		}
	}

	e.persistLocked()
	e.recalcLocked(ctx, item.ImprintType)
	return Result{Success: true}
}

// RemoveItem deletes an item on the proxy then locally. Only a locally
// unknown item fails the call.
func (e *Engine) RemoveItem(ctx context.Context, cartItemID int64) Result {
	e.mu.Lock()
	res := e.removeItemLocked(ctx, cartItemID)
	events := e.finishMutationLocked(res)
	e.mu.Unlock()
	e.flush(events)
	return res
}

func (e *Engine) removeItemLocked(ctx context.Context, cartItemID int64) Result {
	e.ensureSessionLocked(ctx)

	item := e.findItemLocked(cartItemID)
	if item == nil {
		return failResult(ErrItemNotFound)
	}
	imprintType := item.ImprintType

	if item.Synced() && !e.localOnly() {
		if err := e.client.DeleteItem(ctx, *item.CartItemID); err != nil {
			logger.Warnw("cart_item_delete_failed", "cart_item_id", *item.CartItemID, "error", err)
		}
	}
	for i := range e.items {
		if &e.items[i] == item {
			e.items = append(e.items[:i], e.items[i+1:]...)
			break
		}
	}

	e.persistLocked()
	e.recalcLocked(ctx, imprintType)
	return Result{Success: true}
}
