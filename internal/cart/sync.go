package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nwca-cart/internal/constants"
	"github.com/nwca-cart/internal/logger"
	"github.com/nwca-cart/internal/models"
	"github.com/nwca-cart/internal/proxy"
)

// SyncWithServer reconciles the local and remote item lists. When the proxy
// returns at least one item, remote wins outright; when it returns none and
// local items were never pushed, they are pushed and the list reloaded for
// canonical ids. A partial push is a non-blocking warning; a total push
// failure blocks.
func (e *Engine) SyncWithServer(ctx context.Context) Result {
	e.mu.Lock()
	e.ensureSessionLocked(ctx)
	err := e.syncLocked(ctx)
	e.persistLocked()
	e.queueEventLocked(constants.EventCartUpdated)
	events := e.takeEventsLocked()
	e.mu.Unlock()
	e.flush(events)

	if err == nil {
		return Result{Success: true}
	}
	var se *SyncError
	if errors.As(err, &se) && se.Partial {
		return Result{Success: true, Error: se.Message}
	}
	return failResult(err)
}

func (e *Engine) syncLocked(ctx context.Context) error {
	if e.sessionID == "" || e.localOnly() {
		// local-only sessions never touch the proxy again
		return nil
	}
	e.loading = true
	defer func() { e.loading = false }()

	records, err := e.client.ListItems(ctx, e.sessionID)
	if err != nil {
		e.lastErr = syncMessage(err)
		return &SyncError{Message: e.lastErr, Err: err}
	}

	if len(records) > 0 {
		items, err := e.itemsFromRemoteLocked(ctx, records)
		if err != nil {
			e.lastErr = syncMessage(err)
			return &SyncError{Message: e.lastErr, Err: err}
		}
		// remote wins outright, local-only items are discarded
		e.items = items
		e.markSyncedLocked()
		return nil
	}

	var unsynced []*models.CartItem
	for i := range e.items {
		if !e.items[i].Synced() {
			unsynced = append(unsynced, &e.items[i])
		}
	}
	if len(unsynced) == 0 {
		e.markSyncedLocked()
		return nil
	}

	failed := 0
	var lastPushErr error
	for _, item := range unsynced {
		if err := e.pushItemLocked(ctx, item); err != nil {
			failed++
			lastPushErr = err
		}
	}
	if failed == len(unsynced) {
		e.lastErr = syncMessage(lastPushErr)
		return &SyncError{Message: e.lastErr, Err: lastPushErr}
	}

	// reload for canonical server ids, keeping the still-unsynced subset
	if reloaded, err := e.client.ListItems(ctx, e.sessionID); err == nil {
		if items, convErr := e.itemsFromRemoteLocked(ctx, reloaded); convErr == nil {
			for _, item := range unsynced {
				if !item.Synced() {
					items = append(items, *item)
				}
			}
			e.items = items
		}
	}

	if failed > 0 {
		e.lastErr = fmt.Sprintf("cart partially synced: %d of %d items failed", failed, len(unsynced))
		e.markSyncTimeLocked()
		return &SyncError{Partial: true, Message: e.lastErr, Err: lastPushErr}
	}
	e.markSyncedLocked()
	return nil
}

func (e *Engine) itemsFromRemoteLocked(ctx context.Context, records []proxy.ItemRecord) ([]models.CartItem, error) {
	items := make([]models.CartItem, 0, len(records))
	for _, rec := range records {
		sizes, err := e.client.ListSizes(ctx, rec.CartItemID)
		if err != nil {
			return nil, err
		}
		items = append(items, e.itemFromRecord(rec, sizes))
	}
	return items, nil
}

// pushItemLocked creates an item and its sizes on the proxy. A size-level
// failure rolls back the orphaned server item best-effort and reports
// sizeCreateError; the item stays unsynced either way.
func (e *Engine) pushItemLocked(ctx context.Context, item *models.CartItem) error {
	created, err := e.client.CreateItem(ctx, recordFromItem(*item))
	if err != nil {
		logger.Warnw("cart_item_push_failed", "style", item.StyleNumber, "error", err)
		return err
	}
	if created == nil || created.CartItemID == 0 {
		err := errors.New("cart proxy did not return an item id")
		logger.Warnw("cart_item_push_failed", "style", item.StyleNumber, "error", err)
		return err
	}
	serverID := created.CartItemID

	for i := range item.Sizes {
		rec, err := e.client.CreateSize(ctx, sizeRecord(serverID, item.Sizes[i]))
		if err != nil {
			if delErr := e.client.DeleteItem(ctx, serverID); delErr != nil {
				logger.Warnw("cart_orphan_item_delete_failed", "cart_item_id", serverID, "error", delErr)
			}
			for j := range item.Sizes {
				item.Sizes[j].SizeItemID = nil
			}
			return &sizeCreateError{err: err}
		}
		if rec != nil && rec.SizeItemID != 0 {
			id := rec.SizeItemID
			item.Sizes[i].SizeItemID = &id
		}
	}
	item.CartItemID = &serverID
	return nil
}

// persistLocked mirrors the optimistic state to durable storage. There is no
// rollback if a later step fails; the mirror may transiently hold state the
// server has not confirmed yet.
func (e *Engine) persistLocked() {
	if err := e.mirror.ReplaceItems(e.sessionID, copyItems(e.items)); err != nil {
		logger.Warnw("cart_mirror_write_failed", "error", err)
	}
}

func (e *Engine) markSyncTimeLocked() {
	e.lastSync = time.Now()
	if err := e.mirror.SetLastSync(e.lastSync); err != nil {
		logger.Warnw("cart_last_sync_store_failed", "error", err)
	}
}

func (e *Engine) markSyncedLocked() {
	e.lastErr = ""
	e.markSyncTimeLocked()
}
