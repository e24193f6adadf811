package cart

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nwca-cart/internal/constants"
	"github.com/nwca-cart/internal/logger"
	"github.com/nwca-cart/internal/models"
	"github.com/nwca-cart/internal/proxy"
)

// InitializeCart bootstraps the session and loads the cart: adopt the stored
// session when the proxy still reports it active, otherwise create a new
// one. Never fails; the worst case is a usable local-only session.
func (e *Engine) InitializeCart(ctx context.Context) Result {
	e.mu.Lock()
	e.initLocked(ctx)
	events := e.takeEventsLocked()
	e.mu.Unlock()
	e.flush(events)
	return Result{Success: true}
}

func (e *Engine) ensureSessionLocked(ctx context.Context) {
	if !e.initialized {
		e.initLocked(ctx)
	}
}

func (e *Engine) initLocked(ctx context.Context) {
	if e.initialized {
		return
	}
	e.loading = true

	adopted := false
	stored, err := e.mirror.LoadSession()
	if err != nil {
		logger.Warnw("cart_session_load_failed", "error", err)
	}
	if stored != nil {
		if stored.LocalOnly() {
			// local-only sessions are never retried against the proxy
			e.sessionID = stored.SessionID
			adopted = true
		} else {
			rec, err := e.client.GetSession(ctx, stored.SessionID)
			switch {
			case err == nil && rec != nil && rec.IsActive:
				e.sessionID = stored.SessionID
				adopted = true
			case err != nil:
				logger.Warnw("cart_session_validate_failed", "session_id", stored.SessionID, "error", err)
			default:
				logger.Infow("cart_session_expired", "session_id", stored.SessionID)
			}
		}
	}
	if !adopted {
		e.createSessionLocked(ctx)
	}

	// the mirror is read once here; afterwards it is write-only
	items, err := e.mirror.LoadItems(e.sessionID)
	if err != nil {
		logger.Warnw("cart_mirror_read_failed", "error", err)
	} else {
		e.items = items
		e.seedLocalIDsLocked()
	}
	if last, err := e.mirror.LastSync(); err == nil {
		e.lastSync = last
	}

	e.initialized = true
	logger.SW("session_id", e.sessionID).Infow("cart_session_ready", "items", len(e.items))
	if err := e.syncLocked(ctx); err != nil {
		logger.Warnw("cart_initial_sync_failed", "error", err)
	}
	e.persistLocked()
	e.loading = false
	e.queueEventLocked(constants.EventCartUpdated)
}

// createSessionLocked generates the id locally, attempts a remote create and
// falls back to a local-only session on any failure.
func (e *Engine) createSessionLocked(ctx context.Context) {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	id := constants.SessionPrefixRemote + raw
	now := time.Now()
	input := proxy.CreateSessionInput{
		SessionID:    id,
		CreateDate:   now,
		LastActivity: now,
		UserAgent:    e.userAgent,
		IsActive:     true,
	}
	if err := e.client.CreateSession(ctx, input); err != nil {
		logger.Warnw("cart_session_create_failed_local_fallback", "error", err)
		id = constants.SessionPrefixLocal + raw
	}
	e.sessionID = id

	session := &models.CartSession{
		SessionID:    id,
		CreateDate:   now,
		LastActivity: now,
		IsActive:     true,
	}
	if err := e.mirror.SaveSession(session); err != nil {
		logger.Warnw("cart_session_store_failed", "session_id", id, "error", err)
	}
}

func (e *Engine) seedLocalIDsLocked() {
	for _, item := range e.items {
		if item.LocalID >= e.nextItemID {
			e.nextItemID = item.LocalID + 1
		}
		for _, size := range item.Sizes {
			if size.LocalID >= e.nextSizeID {
				e.nextSizeID = size.LocalID + 1
			}
		}
	}
}
