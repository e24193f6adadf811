package cart

import (
	"context"

	"github.com/nwca-cart/internal/constants"
	"github.com/nwca-cart/internal/logger"
	"github.com/nwca-cart/internal/models"
)

// RecalculatePrices invokes the pricing hook for one imprint type and writes
// any returned quotes back into the store. Always succeeds; hook absence and
// hook failure are logged and swallowed.
func (e *Engine) RecalculatePrices(ctx context.Context, imprintType string) Result {
	e.mu.Lock()
	e.recalcLocked(ctx, imprintType)
	e.persistLocked()
	e.queueEventLocked(constants.EventCartUpdated)
	events := e.takeEventsLocked()
	e.mu.Unlock()
	e.flush(events)
	return Result{Success: true}
}

func (e *Engine) recalcLocked(ctx context.Context, imprintType string) {
	if e.pricing == nil {
		logger.Debugw("cart_pricing_hook_absent", "imprint_type", imprintType)
		return
	}
	var group []models.CartItem
	for _, item := range e.items {
		if item.CartStatus == constants.CartStatusActive && item.ImprintType == imprintType {
			group = append(group, item)
		}
	}
	if len(group) == 0 {
		return
	}
	quotes, err := e.pricing(ctx, imprintType, copyItems(group))
	if err != nil {
		logger.Warnw("cart_price_recalc_failed", "imprint_type", imprintType, "error", err)
		return
	}
	for _, quote := range quotes {
		for i := range e.items {
			if e.items[i].LocalID != quote.ItemLocalID {
				continue
			}
			for j := range e.items[i].Sizes {
				if e.items[i].Sizes[j].Size == quote.Size {
					e.items[i].Sizes[j].UnitPrice = quote.UnitPrice
				}
			}
		}
	}
}
