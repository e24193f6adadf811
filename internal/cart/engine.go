// Package cart is the local-first cart synchronization engine: session
// bootstrap with local-only fallback, an in-memory store mirrored to durable
// storage after every mutation, optimistic mutations with inventory and
// business-rule validation, last-write-wins reconciliation against the cart
// proxy, a best-effort pricing hook and a synchronous event bus.
package cart

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nwca-cart/internal/constants"
	"github.com/nwca-cart/internal/models"
	"github.com/nwca-cart/internal/proxy"
	"github.com/nwca-cart/internal/storage"
)

// PriceQuote is one recomputed unit price pushed back by the pricing hook.
type PriceQuote struct {
	ItemLocalID uint
	Size        string
	UnitPrice   models.Money
}

// PricingHook recomputes prices for the active items of one imprint type.
// The engine invokes it after every quantity-changing mutation and tolerates
// both absence and failure; a hook error never fails the mutation.
type PricingHook func(ctx context.Context, imprintType string, items []models.CartItem) ([]PriceQuote, error)

// Result is the uniform outcome of every public operation. Operations never
// panic or return errors past this boundary.
type Result struct {
	Success              bool    `json:"success"`
	Error                string  `json:"error,omitempty"`
	RequiresConfirmation bool    `json:"requires_confirmation,omitempty"`
	FailedItems          []int64 `json:"failed_items,omitempty"`
}

func failResult(err error) Result {
	if err == nil {
		return Result{Success: false}
	}
	return Result{Success: false, Error: err.Error()}
}

// Options configures an Engine.
type Options struct {
	Client         *proxy.Client
	Mirror         *storage.Mirror
	Pricing        PricingHook
	InventoryCheck bool
	UserAgent      string
}

// Engine owns the cart state. Mutations are serialized behind one mutex;
// the optimistic-then-reconcile ordering of each mutation is preserved.
type Engine struct {
	mu      sync.Mutex
	client  *proxy.Client
	mirror  *storage.Mirror
	bus     *EventBus
	pricing PricingHook

	inventoryCheck bool
	userAgent      string

	sessionID   string
	items       []models.CartItem
	nextItemID  uint
	nextSizeID  uint
	loading     bool
	lastErr     string
	lastSync    time.Time
	initialized bool

	pending []queuedEvent
}

type queuedEvent struct {
	name  string
	state State
}

// New creates an engine.
func New(opts Options) (*Engine, error) {
	if opts.Client == nil {
		return nil, errors.New("cart engine requires a proxy client")
	}
	if opts.Mirror == nil {
		return nil, errors.New("cart engine requires a storage mirror")
	}
	return &Engine{
		client:         opts.Client,
		mirror:         opts.Mirror,
		bus:            NewEventBus(),
		pricing:        opts.Pricing,
		inventoryCheck: opts.InventoryCheck,
		userAgent:      opts.UserAgent,
		nextItemID:     1,
		nextSizeID:     1,
	}, nil
}

// AddEventListener registers a cart event listener.
func (e *Engine) AddEventListener(event string, fn Listener) int {
	return e.bus.AddEventListener(event, fn)
}

// RemoveEventListener drops a cart event listener.
func (e *Engine) RemoveEventListener(event string, id int) {
	e.bus.RemoveEventListener(event, id)
}

// SessionID returns the adopted session id ("" before initialization).
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

// IsInitialized reports whether the session bootstrap has run.
func (e *Engine) IsInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// IsLoading reports whether an operation is in flight.
func (e *Engine) IsLoading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// Err returns the last non-blocking error message ("" when clear).
func (e *Engine) Err() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// LastSync returns the time of the last successful reconciliation.
func (e *Engine) LastSync() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSync
}

// State returns a snapshot of the whole cart.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// Items returns the cart items, optionally filtered by status.
func (e *Engine) Items(status ...string) []models.CartItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(status) == 0 {
		return copyItems(e.items)
	}
	var filtered []models.CartItem
	for _, item := range e.items {
		for _, s := range status {
			if item.CartStatus == s {
				filtered = append(filtered, item)
				break
			}
		}
	}
	return copyItems(filtered)
}

// Count sums the quantities of every active item.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := 0
	for _, item := range e.items {
		if item.CartStatus != constants.CartStatusActive {
			continue
		}
		total += item.TotalQuantity()
	}
	return total
}

// Total sums quantity times unit price across every active item.
func (e *Engine) Total() models.Money {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := decimal.Zero
	for _, item := range e.items {
		if item.CartStatus != constants.CartStatusActive {
			continue
		}
		total = total.Add(item.Subtotal().Decimal)
	}
	return models.NewMoneyFromDecimal(total)
}

// HasImprintType reports whether any active item carries the given type.
func (e *Engine) HasImprintType(imprintType string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, item := range e.items {
		if item.CartStatus == constants.CartStatusActive && item.ImprintType == imprintType {
			return true
		}
	}
	return false
}

// ImprintTypes returns the distinct imprint types of the active items.
func (e *Engine) ImprintTypes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return activeImprintTypes(e.items)
}

func activeImprintTypes(items []models.CartItem) []string {
	seen := make(map[string]struct{})
	var types []string
	for _, item := range items {
		if item.CartStatus != constants.CartStatusActive {
			continue
		}
		if _, ok := seen[item.ImprintType]; ok {
			continue
		}
		seen[item.ImprintType] = struct{}{}
		types = append(types, item.ImprintType)
	}
	sort.Strings(types)
	return types
}

func (e *Engine) stateLocked() State {
	return State{
		SessionID:   e.sessionID,
		Items:       copyItems(e.items),
		Loading:     e.loading,
		Error:       e.lastErr,
		LastSync:    e.lastSync,
		Initialized: e.initialized,
	}
}

func (e *Engine) localOnly() bool {
	return models.CartSession{SessionID: e.sessionID}.LocalOnly()
}

func (e *Engine) allocItemID() uint {
	id := e.nextItemID
	e.nextItemID++
	return id
}

func (e *Engine) allocSizeID() uint {
	id := e.nextSizeID
	e.nextSizeID++
	return id
}

func (e *Engine) activeItemsLocked() []models.CartItem {
	var active []models.CartItem
	for _, item := range e.items {
		if item.CartStatus == constants.CartStatusActive {
			active = append(active, item)
		}
	}
	return active
}

// findItemLocked resolves an item by its server id first; the local id is
// only a fallback, so a collision between the two namespaces cannot shadow
// a synced item.
func (e *Engine) findItemLocked(cartItemID int64) *models.CartItem {
	for i := range e.items {
		if item := &e.items[i]; item.CartItemID != nil && *item.CartItemID == cartItemID {
			return item
		}
	}
	for i := range e.items {
		if item := &e.items[i]; int64(item.LocalID) == cartItemID {
			return item
		}
	}
	return nil
}

func itemRef(item *models.CartItem) int64 {
	if item.CartItemID != nil {
		return *item.CartItemID
	}
	return int64(item.LocalID)
}

func (e *Engine) queueEventLocked(name string) {
	e.pending = append(e.pending, queuedEvent{name: name, state: e.stateLocked()})
}

func (e *Engine) takeEventsLocked() []queuedEvent {
	events := e.pending
	e.pending = nil
	return events
}

// finishMutationLocked records a failure message and queues the terminal
// cartUpdated event. Every mutation ends here, success or failure, so
// listeners always see a snapshot carrying Err().
func (e *Engine) finishMutationLocked(res Result) []queuedEvent {
	if !res.Success && res.Error != "" {
		e.lastErr = res.Error
	}
	e.queueEventLocked(constants.EventCartUpdated)
	return e.takeEventsLocked()
}

func (e *Engine) flush(events []queuedEvent) {
	for _, ev := range events {
		e.bus.emit(ev.name, ev.state)
	}
}
