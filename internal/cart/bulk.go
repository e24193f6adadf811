package cart

import (
	"context"
	"fmt"

	"github.com/nwca-cart/internal/constants"
	"github.com/nwca-cart/internal/logger"
)

// SaveForLater moves every active item to the saved list, remotely then
// locally. A partial failure is a non-fatal warning; a total failure is a
// hard error.
func (e *Engine) SaveForLater(ctx context.Context) Result {
	e.mu.Lock()
	res := e.saveForLaterLocked(ctx)
	events := e.finishMutationLocked(res)
	e.mu.Unlock()
	e.flush(events)
	return res
}

func (e *Engine) saveForLaterLocked(ctx context.Context) Result {
	e.ensureSessionLocked(ctx)

	attempted := 0
	failed := 0
	for i := range e.items {
		item := &e.items[i]
		if item.CartStatus != constants.CartStatusActive {
			continue
		}
		attempted++
		if item.Synced() && !e.localOnly() {
			rec := recordFromItem(*item)
			rec.CartStatus = constants.CartStatusSavedForLater
			if err := e.client.UpdateItem(ctx, *item.CartItemID, rec); err != nil {
				logger.Warnw("cart_save_for_later_failed", "cart_item_id", *item.CartItemID, "error", err)
				failed++
				continue
			}
		}
		item.CartStatus = constants.CartStatusSavedForLater
	}
	if attempted == 0 {
		return Result{Success: true}
	}

	e.persistLocked()

	if failed == attempted {
		e.lastErr = "no items could be saved for later"
		return Result{Success: false, Error: e.lastErr}
	}
	if failed > 0 {
		e.lastErr = fmt.Sprintf("%d of %d items could not be saved for later", failed, attempted)
		return Result{Success: true, Error: e.lastErr}
	}
	return Result{Success: true}
}

// ClearCart empties the local cart immediately, then best-effort deletes the
// remote items; remote failures are logged and swallowed because local state
// is already gone.
func (e *Engine) ClearCart(ctx context.Context) Result {
	e.mu.Lock()
	res := e.clearLocked(ctx)
	events := e.finishMutationLocked(res)
	e.mu.Unlock()
	e.flush(events)
	return res
}

func (e *Engine) clearLocked(ctx context.Context) Result {
	e.ensureSessionLocked(ctx)

	cleared := e.items
	e.items = nil
	e.persistLocked()

	if !e.localOnly() {
		for _, item := range cleared {
			if !item.Synced() {
				continue
			}
			if err := e.client.DeleteItem(ctx, *item.CartItemID); err != nil {
				logger.Warnw("cart_clear_remote_delete_failed", "cart_item_id", *item.CartItemID, "error", err)
			}
		}
	}

	return Result{Success: true}
}

// SubmitQuoteRequest flips every active item to Submitted on the proxy,
// all-or-nothing per item: failed items stay active locally and are
// reported in FailedItems.
func (e *Engine) SubmitQuoteRequest(ctx context.Context) Result {
	e.mu.Lock()
	res := e.submitQuoteLocked(ctx)
	events := e.finishMutationLocked(res)
	e.mu.Unlock()
	e.flush(events)
	return res
}

func (e *Engine) submitQuoteLocked(ctx context.Context) Result {
	e.ensureSessionLocked(ctx)

	var failedItems []int64
	for i := range e.items {
		item := &e.items[i]
		if item.CartStatus != constants.CartStatusActive {
			continue
		}
		if !item.Synced() || e.localOnly() {
			// never registered remotely, nothing to flip
			failedItems = append(failedItems, itemRef(item))
			continue
		}
		rec := recordFromItem(*item)
		rec.CartStatus = constants.CartStatusSubmitted
		if err := e.client.UpdateItem(ctx, *item.CartItemID, rec); err != nil {
			logger.Warnw("cart_quote_submit_failed", "cart_item_id", *item.CartItemID, "error", err)
			failedItems = append(failedItems, *item.CartItemID)
			continue
		}
		item.CartStatus = constants.CartStatusSubmitted
	}

	e.persistLocked()

	if len(failedItems) > 0 {
		msg := fmt.Sprintf("%d item(s) could not be submitted", len(failedItems))
		e.lastErr = msg
		return Result{Success: false, Error: msg, FailedItems: failedItems}
	}
	return Result{Success: true}
}
