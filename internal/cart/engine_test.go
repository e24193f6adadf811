package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nwca-cart/internal/constants"
	"github.com/nwca-cart/internal/models"
	"github.com/nwca-cart/internal/proxy"
	"github.com/nwca-cart/internal/storage"
)

var testDBSeq int64

func newTestMirror(t *testing.T) *storage.Mirror {
	t.Helper()
	dsn := fmt.Sprintf("file:cart_engine_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db failed: %v", err)
	}
	if err := db.AutoMigrate(&models.CartSession{}, &models.CartItem{}, &models.CartItemSize{}, &models.MirrorMeta{}); err != nil {
		t.Fatalf("migrate test db failed: %v", err)
	}
	return storage.NewMirror(db)
}

// fakeProxy is an in-memory cart proxy behind httptest.
type fakeProxy struct {
	t   *testing.T
	mu  sync.Mutex
	srv *httptest.Server

	sessions  map[string]bool
	items     map[int64]proxy.ItemRecord
	sizes     map[int64]proxy.SizeRecord
	inventory map[string][]proxy.InventoryRecord

	nextItemID int64
	nextSizeID int64

	failAll           bool
	failSessionCreate bool
	failItemCreate    bool
	failSizeCreate    bool
	failItemDelete    bool
	failUpdateItems   map[int64]bool
}

func newFakeProxy(t *testing.T) *fakeProxy {
	t.Helper()
	fp := &fakeProxy{
		t:               t,
		sessions:        make(map[string]bool),
		items:           make(map[int64]proxy.ItemRecord),
		sizes:           make(map[int64]proxy.SizeRecord),
		inventory:       make(map[string][]proxy.InventoryRecord),
		failUpdateItems: make(map[int64]bool),
	}
	fp.srv = httptest.NewServer(http.HandlerFunc(fp.handle))
	t.Cleanup(fp.srv.Close)
	return fp
}

func (fp *fakeProxy) set(mutate func()) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	mutate()
}

func (fp *fakeProxy) stock(style, color string, records ...proxy.InventoryRecord) {
	fp.set(func() { fp.inventory[style+"|"+color] = records })
}

// seedItem plants an item with one size directly into the fake store.
func (fp *fakeProxy) seedItem(sessionID, style, color, imprint, size string, qty int, price float64) int64 {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.nextItemID++
	itemID := fp.nextItemID
	fp.items[itemID] = proxy.ItemRecord{
		CartItemID:           itemID,
		SessionID:            sessionID,
		StyleNumber:          style,
		Color:                color,
		ImprintType:          imprint,
		EmbellishmentOptions: "{}",
		DateAdded:            time.Now().UTC().Format(time.RFC3339),
		CartStatus:           constants.CartStatusActive,
	}
	fp.nextSizeID++
	fp.sizes[fp.nextSizeID] = proxy.SizeRecord{
		SizeItemID: fp.nextSizeID,
		CartItemID: itemID,
		Size:       size,
		Quantity:   qty,
		UnitPrice:  models.NewMoneyFromFloat(price),
	}
	return itemID
}

func (fp *fakeProxy) itemCount() int {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return len(fp.items)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (fp *fakeProxy) handle(w http.ResponseWriter, r *http.Request) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	if fp.failAll {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	path := r.URL.Path
	switch {
	case path == "/cart-sessions" && r.Method == http.MethodGet:
		id := r.URL.Query().Get("sessionID")
		out := []proxy.SessionRecord{}
		if fp.sessions[id] {
			out = append(out, proxy.SessionRecord{SessionID: id, IsActive: true})
		}
		writeJSON(w, out)

	case path == "/cart-sessions" && r.Method == http.MethodPost:
		if fp.failSessionCreate {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		var in proxy.CreateSessionInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		fp.sessions[in.SessionID] = true
		writeJSON(w, proxy.SessionRecord{SessionID: in.SessionID, IsActive: true})

	case path == "/cart-items" && r.Method == http.MethodGet:
		sessionID := r.URL.Query().Get("sessionID")
		out := []proxy.ItemRecord{}
		for _, rec := range fp.items {
			if rec.SessionID == sessionID {
				out = append(out, rec)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CartItemID < out[j].CartItemID })
		writeJSON(w, out)

	case path == "/cart-items" && r.Method == http.MethodPost:
		if fp.failItemCreate {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		var rec proxy.ItemRecord
		_ = json.NewDecoder(r.Body).Decode(&rec)
		fp.nextItemID++
		rec.CartItemID = fp.nextItemID
		fp.items[rec.CartItemID] = rec
		writeJSON(w, rec)

	case strings.HasPrefix(path, "/cart-items/"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(path, "/cart-items/"), 10, 64)
		switch r.Method {
		case http.MethodPut:
			if fp.failUpdateItems[id] {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
			var rec proxy.ItemRecord
			_ = json.NewDecoder(r.Body).Decode(&rec)
			rec.CartItemID = id
			fp.items[id] = rec
			writeJSON(w, rec)
		case http.MethodDelete:
			if fp.failItemDelete {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
			delete(fp.items, id)
			for sizeID, size := range fp.sizes {
				if size.CartItemID == id {
					delete(fp.sizes, sizeID)
				}
			}
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}

	case path == "/cart-item-sizes" && r.Method == http.MethodGet:
		itemID, _ := strconv.ParseInt(r.URL.Query().Get("cartItemID"), 10, 64)
		out := []proxy.SizeRecord{}
		for _, rec := range fp.sizes {
			if rec.CartItemID == itemID {
				out = append(out, rec)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].SizeItemID < out[j].SizeItemID })
		writeJSON(w, out)

	case path == "/cart-item-sizes" && r.Method == http.MethodPost:
		if fp.failSizeCreate {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		var rec proxy.SizeRecord
		_ = json.NewDecoder(r.Body).Decode(&rec)
		fp.nextSizeID++
		rec.SizeItemID = fp.nextSizeID
		fp.sizes[rec.SizeItemID] = rec
		writeJSON(w, rec)

	case strings.HasPrefix(path, "/cart-item-sizes/"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(path, "/cart-item-sizes/"), 10, 64)
		switch r.Method {
		case http.MethodPut:
			var rec proxy.SizeRecord
			_ = json.NewDecoder(r.Body).Decode(&rec)
			rec.SizeItemID = id
			fp.sizes[id] = rec
			writeJSON(w, rec)
		case http.MethodDelete:
			delete(fp.sizes, id)
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}

	case path == "/inventory" && r.Method == http.MethodGet:
		key := r.URL.Query().Get("styleNumber") + "|" + r.URL.Query().Get("color")
		out := fp.inventory[key]
		if out == nil {
			out = []proxy.InventoryRecord{}
		}
		writeJSON(w, out)

	default:
		http.NotFound(w, r)
	}
}

func (fp *fakeProxy) newClient(t *testing.T) *proxy.Client {
	t.Helper()
	client, err := proxy.New(proxy.Config{BaseURL: fp.srv.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("proxy client failed: %v", err)
	}
	return client
}

func newTestEngine(t *testing.T, fp *fakeProxy, opts Options) *Engine {
	t.Helper()
	opts.Client = fp.newClient(t)
	opts.Mirror = newTestMirror(t)
	engine, err := New(opts)
	if err != nil {
		t.Fatalf("engine init failed: %v", err)
	}
	return engine
}

func sizeQty(size string, qty int, price float64) SizeInput {
	return SizeInput{Size: size, Quantity: qty, UnitPrice: models.NewMoneyFromFloat(price)}
}

func addInput(style, color, imprint string, sizes ...SizeInput) AddToCartInput {
	return AddToCartInput{
		StyleNumber: style,
		Color:       color,
		ImprintType: imprint,
		Sizes:       sizes,
	}
}

func TestInitializeCreatesRemoteSession(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})

	res := engine.InitializeCart(context.Background())
	if !res.Success {
		t.Fatalf("initialize failed: %+v", res)
	}
	if !engine.IsInitialized() {
		t.Fatal("engine should be initialized")
	}
	if !strings.HasPrefix(engine.SessionID(), constants.SessionPrefixRemote) {
		t.Fatalf("expected remote session id, got %q", engine.SessionID())
	}
}

func TestInitializeFallsBackToLocalSession(t *testing.T) {
	fp := newFakeProxy(t)
	fp.set(func() { fp.failAll = true })
	engine := newTestEngine(t, fp, Options{})

	res := engine.InitializeCart(context.Background())
	if !res.Success {
		t.Fatalf("initialize must not fail: %+v", res)
	}
	if !strings.HasPrefix(engine.SessionID(), constants.SessionPrefixLocal) {
		t.Fatalf("expected local-only session id, got %q", engine.SessionID())
	}

	// the cart stays usable with the proxy down
	add := engine.AddToCart(context.Background(), addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 3, 12)))
	if !add.Success {
		t.Fatalf("offline add failed: %+v", add)
	}
	if got := engine.Count(); got != 3 {
		t.Fatalf("count = %d, want 3", got)
	}
	if fp.itemCount() != 0 {
		t.Fatal("local-only session must never push items")
	}
}

func TestAddToCartEndToEnd(t *testing.T) {
	fp := newFakeProxy(t)
	fp.stock("PC54", "Black", proxy.InventoryRecord{Size: "M", Quantity: 20})
	engine := newTestEngine(t, fp, Options{InventoryCheck: true})
	engine.InitializeCart(context.Background())

	res := engine.AddToCart(context.Background(), addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 3, 12)))
	if !res.Success {
		t.Fatalf("add failed: %+v", res)
	}

	if got := engine.Count(); got != 3 {
		t.Fatalf("count = %d, want 3", got)
	}
	if got := engine.Total().String(); got != "36.00" {
		t.Fatalf("total = %s, want 36.00", got)
	}
	types := engine.ImprintTypes()
	if len(types) != 1 || types[0] != constants.ImprintEmbroidery {
		t.Fatalf("imprint types = %v", types)
	}
	items := engine.Items()
	if len(items) != 1 || !items[0].Synced() {
		t.Fatalf("expected one synced item, got %+v", items)
	}
	if fp.itemCount() != 1 {
		t.Fatalf("proxy item count = %d, want 1", fp.itemCount())
	}
}

func TestAddToCartMergesSameGrouping(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})
	engine.InitializeCart(context.Background())

	in := addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 2, 12))
	if res := engine.AddToCart(context.Background(), in); !res.Success {
		t.Fatalf("first add failed: %+v", res)
	}
	if res := engine.AddToCart(context.Background(), in); !res.Success {
		t.Fatalf("second add failed: %+v", res)
	}

	items := engine.Items()
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1 (merge)", len(items))
	}
	if got := engine.Count(); got != 4 {
		t.Fatalf("count = %d, want 4", got)
	}
	if fp.itemCount() != 1 {
		t.Fatalf("proxy item count = %d, want 1", fp.itemCount())
	}
}

func TestAddToCartInventoryBound(t *testing.T) {
	fp := newFakeProxy(t)
	fp.stock("PC54", "Black", proxy.InventoryRecord{Size: "M", Quantity: 5})
	engine := newTestEngine(t, fp, Options{InventoryCheck: true})
	engine.InitializeCart(context.Background())

	res := engine.AddToCart(context.Background(), addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 6, 12)))
	if res.Success {
		t.Fatal("add above inventory must fail")
	}
	if want := "insufficient inventory: M (requested 6, available 5)"; res.Error != want {
		t.Fatalf("error = %q, want %q", res.Error, want)
	}
	if got := engine.Count(); got != 0 {
		t.Fatalf("failed add must not mutate the cart, count = %d", got)
	}
	if fp.itemCount() != 0 {
		t.Fatal("failed add must not reach the proxy")
	}
}

func TestAddToCartValidation(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})
	engine.InitializeCart(context.Background())

	cases := []struct {
		name  string
		input AddToCartInput
	}{
		{"missing style", addInput("", "Black", constants.ImprintEmbroidery, sizeQty("M", 1, 12))},
		{"missing color", addInput("PC54", "", constants.ImprintEmbroidery, sizeQty("M", 1, 12))},
		{"missing imprint", addInput("PC54", "Black", "", sizeQty("M", 1, 12))},
		{"no positive quantity", addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 0, 12))},
		{"negative quantity", addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", -1, 12))},
		{"cap without stitch count", addInput("C112", "Black", constants.ImprintCapEmbroidery, sizeQty("OSFA", 1, 15))},
	}
	for _, tc := range cases {
		if res := engine.AddToCart(context.Background(), tc.input); res.Success || res.Error == "" {
			t.Fatalf("%s: expected validation failure, got %+v", tc.name, res)
		}
	}
	if got := engine.Count(); got != 0 {
		t.Fatalf("count = %d, want 0", got)
	}
}

func TestUpdateQuantityZeroRemovesSizeThenItem(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})
	engine.InitializeCart(context.Background())

	engine.AddToCart(context.Background(), addInput("PC54", "Black", constants.ImprintEmbroidery,
		sizeQty("M", 2, 12), sizeQty("S", 1, 12)))
	items := engine.Items()
	if len(items) != 1 || len(items[0].Sizes) != 2 {
		t.Fatalf("unexpected cart shape: %+v", items)
	}
	itemID := *items[0].CartItemID

	if res := engine.UpdateQuantity(context.Background(), itemID, "M", 0); !res.Success {
		t.Fatalf("zero-qty update failed: %+v", res)
	}
	items = engine.Items()
	if len(items) != 1 || len(items[0].Sizes) != 1 || items[0].Sizes[0].Size != "S" {
		t.Fatalf("size M should be gone: %+v", items)
	}

	if res := engine.UpdateQuantity(context.Background(), itemID, "S", 0); !res.Success {
		t.Fatalf("last-size update failed: %+v", res)
	}
	if len(engine.Items()) != 0 {
		t.Fatal("item with no sizes should be removed")
	}
	if fp.itemCount() != 0 {
		t.Fatal("remote item should be deleted with the last size")
	}
}

func TestUpdateQuantityChangesCount(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})
	engine.InitializeCart(context.Background())

	engine.AddToCart(context.Background(), addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 2, 12)))
	itemID := *engine.Items()[0].CartItemID

	if res := engine.UpdateQuantity(context.Background(), itemID, "M", 5); !res.Success {
		t.Fatalf("update failed: %+v", res)
	}
	if got := engine.Count(); got != 5 {
		t.Fatalf("count = %d, want 5", got)
	}

	if res := engine.UpdateQuantity(context.Background(), itemID, "XL", 1); res.Success {
		t.Fatal("updating an unknown size must fail")
	}
}

func TestCapEmbroideryExclusive(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})
	engine.InitializeCart(context.Background())

	cap := addInput("C112", "Black", constants.ImprintCapEmbroidery, sizeQty("OSFA", 2, 15))
	cap.StitchCount = 8000
	if res := engine.AddToCart(context.Background(), cap); !res.Success {
		t.Fatalf("cap add failed: %+v", res)
	}

	res := engine.AddToCart(context.Background(), addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 1, 12)))
	if res.Success || !strings.Contains(res.Error, "Cap Embroidery") {
		t.Fatalf("expected cap exclusivity failure, got %+v", res)
	}
	if len(engine.Items()) != 1 {
		t.Fatal("rejected add must not mutate the cart")
	}
}

func TestCapEmbroideryExcludedByOthers(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})
	engine.InitializeCart(context.Background())

	engine.AddToCart(context.Background(), addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 1, 12)))

	cap := addInput("C112", "Black", constants.ImprintCapEmbroidery, sizeQty("OSFA", 2, 15))
	cap.StitchCount = 8000
	res := engine.AddToCart(context.Background(), cap)
	if res.Success || !strings.Contains(res.Error, "Cap Embroidery") {
		t.Fatalf("expected cap exclusivity failure, got %+v", res)
	}
}

func TestCapEmbroideryStitchCountConsistency(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})
	engine.InitializeCart(context.Background())

	first := addInput("C112", "Black", constants.ImprintCapEmbroidery, sizeQty("OSFA", 2, 15))
	first.StitchCount = 8000
	if res := engine.AddToCart(context.Background(), first); !res.Success {
		t.Fatalf("first cap add failed: %+v", res)
	}

	second := addInput("C113", "Navy", constants.ImprintCapEmbroidery, sizeQty("OSFA", 1, 15))
	second.StitchCount = 5000
	res := engine.AddToCart(context.Background(), second)
	if res.Success || !strings.Contains(res.Error, "stitch count") {
		t.Fatalf("expected stitch-count failure, got %+v", res)
	}

	// same stitch count is fine
	second.StitchCount = 8000
	if res := engine.AddToCart(context.Background(), second); !res.Success {
		t.Fatalf("matching stitch count add failed: %+v", res)
	}
}

func TestCrossTypeMixRequiresConfirmation(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})
	engine.InitializeCart(context.Background())

	engine.AddToCart(context.Background(), addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 1, 12)))

	dtg := addInput("PC61", "White", constants.ImprintDTG, sizeQty("L", 1, 10))
	res := engine.AddToCart(context.Background(), dtg)
	if res.Success || !res.RequiresConfirmation {
		t.Fatalf("expected confirmation request, got %+v", res)
	}
	if res.Error != "" {
		t.Fatalf("a declined confirmation is not an error, got %q", res.Error)
	}
	if len(engine.Items()) != 1 {
		t.Fatal("unconfirmed add must not mutate the cart")
	}

	dtg.Confirmed = true
	if res := engine.AddToCart(context.Background(), dtg); !res.Success {
		t.Fatalf("confirmed add failed: %+v", res)
	}
	if got := len(engine.Items()); got != 2 {
		t.Fatalf("items = %d, want 2", got)
	}
}

func TestSyncRemoteWins(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})
	engine.InitializeCart(context.Background())
	sessionID := engine.SessionID()

	// an item the proxy never accepted, still unsynced locally
	fp.set(func() { fp.failItemCreate = true })
	if add := engine.AddToCart(context.Background(), addInput("G500", "Red", constants.ImprintEmbroidery, sizeQty("S", 1, 8))); !add.Success {
		t.Fatalf("local add failed: %+v", add)
	}
	fp.set(func() { fp.failItemCreate = false })

	fp.seedItem(sessionID, "PC54", "Black", constants.ImprintEmbroidery, "M", 2, 12)
	fp.seedItem(sessionID, "PC61", "White", constants.ImprintDTG, "L", 1, 10)

	res := engine.SyncWithServer(context.Background())
	if !res.Success {
		t.Fatalf("sync failed: %+v", res)
	}
	items := engine.Items()
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2 (remote wins)", len(items))
	}
	for _, item := range items {
		if item.StyleNumber == "G500" {
			t.Fatal("never-pushed local item must be discarded when remote wins")
		}
		if !item.Synced() {
			t.Fatalf("remote item missing server id: %+v", item)
		}
	}
	if engine.LastSync().IsZero() {
		t.Fatal("last sync time should be set")
	}
}

func TestSyncPushesUnsyncedItems(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})
	engine.InitializeCart(context.Background())

	fp.set(func() { fp.failItemCreate = true })
	res := engine.AddToCart(context.Background(), addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 2, 12)))
	if !res.Success {
		t.Fatalf("add must succeed locally when the push fails: %+v", res)
	}
	if engine.Items()[0].Synced() {
		t.Fatal("item should be unsynced after a failed push")
	}

	// proxy still failing: the whole push fails and blocks
	blocked := engine.SyncWithServer(context.Background())
	if blocked.Success {
		t.Fatal("all-fail push must block")
	}

	fp.set(func() { fp.failItemCreate = false })
	ok := engine.SyncWithServer(context.Background())
	if !ok.Success {
		t.Fatalf("retry sync failed: %+v", ok)
	}
	items := engine.Items()
	if len(items) != 1 || !items[0].Synced() {
		t.Fatalf("expected one synced item after retry, got %+v", items)
	}
	if fp.itemCount() != 1 {
		t.Fatalf("proxy item count = %d, want 1", fp.itemCount())
	}
}

func TestSyncOrphanRollbackOnSizeFailure(t *testing.T) {
	fp := newFakeProxy(t)
	fp.set(func() { fp.failSizeCreate = true })
	engine := newTestEngine(t, fp, Options{})
	engine.InitializeCart(context.Background())

	res := engine.AddToCart(context.Background(), addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 2, 12)))
	if res.Success {
		t.Fatal("size-create failure after item create must fail the add")
	}
	if fp.itemCount() != 0 {
		t.Fatal("orphaned server item should have been deleted")
	}
	if len(engine.Items()) != 0 {
		t.Fatal("failed add must not leave a local item")
	}
}

func TestClearCartIsOptimistic(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})
	engine.InitializeCart(context.Background())
	engine.AddToCart(context.Background(), addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 2, 12)))

	fp.set(func() { fp.failItemDelete = true })
	res := engine.ClearCart(context.Background())
	if !res.Success {
		t.Fatalf("clear must succeed even when remote deletes fail: %+v", res)
	}
	if got := engine.Count(); got != 0 {
		t.Fatalf("count = %d, want 0", got)
	}
	if len(engine.Items()) != 0 {
		t.Fatal("local cart should be empty")
	}
}

func TestSaveForLater(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})
	engine.InitializeCart(context.Background())
	engine.AddToCart(context.Background(), addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 2, 12)))

	res := engine.SaveForLater(context.Background())
	if !res.Success {
		t.Fatalf("save for later failed: %+v", res)
	}
	if got := engine.Count(); got != 0 {
		t.Fatalf("active count = %d, want 0", got)
	}
	saved := engine.Items(constants.CartStatusSavedForLater)
	if len(saved) != 1 {
		t.Fatalf("saved items = %d, want 1", len(saved))
	}
}

func TestSubmitQuoteReportsFailedItems(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})
	engine.InitializeCart(context.Background())

	engine.AddToCart(context.Background(), addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 2, 12)))
	engine.AddToCart(context.Background(), addInput("PC61", "White", constants.ImprintEmbroidery, sizeQty("L", 1, 10)))

	items := engine.Items()
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	var failID int64
	for _, item := range items {
		if item.StyleNumber == "PC61" {
			failID = *item.CartItemID
		}
	}
	fp.set(func() { fp.failUpdateItems[failID] = true })

	res := engine.SubmitQuoteRequest(context.Background())
	if res.Success {
		t.Fatal("submit with a failing item must not report success")
	}
	if len(res.FailedItems) != 1 || res.FailedItems[0] != failID {
		t.Fatalf("failed items = %v, want [%d]", res.FailedItems, failID)
	}
	for _, item := range engine.Items() {
		want := constants.CartStatusSubmitted
		if *item.CartItemID == failID {
			want = constants.CartStatusActive
		}
		if item.CartStatus != want {
			t.Fatalf("item %d status = %s, want %s", *item.CartItemID, item.CartStatus, want)
		}
	}
}

func TestSubmitQuoteAllSynced(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})
	engine.InitializeCart(context.Background())
	engine.AddToCart(context.Background(), addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 2, 12)))

	res := engine.SubmitQuoteRequest(context.Background())
	if !res.Success || len(res.FailedItems) != 0 {
		t.Fatalf("submit failed: %+v", res)
	}
	if got := engine.Count(); got != 0 {
		t.Fatalf("submitted items must not count as active, count = %d", got)
	}
}

func TestRemoveItemNotFound(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})
	engine.InitializeCart(context.Background())

	res := engine.RemoveItem(context.Background(), 9999)
	if res.Success || res.Error != ErrItemNotFound.Error() {
		t.Fatalf("expected not-found failure, got %+v", res)
	}
}

func TestRemoveItemDeletesRemote(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})
	engine.InitializeCart(context.Background())
	engine.AddToCart(context.Background(), addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 2, 12)))

	itemID := *engine.Items()[0].CartItemID
	if res := engine.RemoveItem(context.Background(), itemID); !res.Success {
		t.Fatalf("remove failed: %+v", res)
	}
	if len(engine.Items()) != 0 {
		t.Fatal("item should be gone locally")
	}
	if fp.itemCount() != 0 {
		t.Fatal("item should be gone remotely")
	}
}

func TestRecalculatePricesAppliesQuotes(t *testing.T) {
	fp := newFakeProxy(t)
	var active atomic.Bool
	hook := func(ctx context.Context, imprintType string, items []models.CartItem) ([]PriceQuote, error) {
		if !active.Load() {
			return nil, nil
		}
		var quotes []PriceQuote
		for _, item := range items {
			for _, size := range item.Sizes {
				quotes = append(quotes, PriceQuote{
					ItemLocalID: item.LocalID,
					Size:        size.Size,
					UnitPrice:   models.NewMoneyFromFloat(20),
				})
			}
		}
		return quotes, nil
	}
	engine := newTestEngine(t, fp, Options{Pricing: hook})
	engine.InitializeCart(context.Background())
	engine.AddToCart(context.Background(), addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 2, 12)))

	active.Store(true)
	res := engine.RecalculatePrices(context.Background(), constants.ImprintEmbroidery)
	if !res.Success {
		t.Fatalf("recalculate failed: %+v", res)
	}
	if got := engine.Total().String(); got != "40.00" {
		t.Fatalf("total = %s, want 40.00", got)
	}
}

func TestPricingHookFailureIsSwallowed(t *testing.T) {
	fp := newFakeProxy(t)
	hook := func(ctx context.Context, imprintType string, items []models.CartItem) ([]PriceQuote, error) {
		return nil, fmt.Errorf("pricing backend down")
	}
	engine := newTestEngine(t, fp, Options{Pricing: hook})
	engine.InitializeCart(context.Background())

	res := engine.AddToCart(context.Background(), addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 2, 12)))
	if !res.Success {
		t.Fatalf("pricing failure must not fail the add: %+v", res)
	}
	if got := engine.Total().String(); got != "24.00" {
		t.Fatalf("total = %s, want 24.00", got)
	}
}

func TestMirrorSurvivesRestart(t *testing.T) {
	fp := newFakeProxy(t)
	mirror := newTestMirror(t)

	first, err := New(Options{Client: fp.newClient(t), Mirror: mirror})
	if err != nil {
		t.Fatalf("engine init failed: %v", err)
	}
	first.InitializeCart(context.Background())
	first.AddToCart(context.Background(), addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 2, 12)))
	sessionID := first.SessionID()

	second, err := New(Options{Client: fp.newClient(t), Mirror: mirror})
	if err != nil {
		t.Fatalf("engine init failed: %v", err)
	}
	second.InitializeCart(context.Background())
	if second.SessionID() != sessionID {
		t.Fatalf("session id = %q, want %q", second.SessionID(), sessionID)
	}
	if got := second.Count(); got != 2 {
		t.Fatalf("count after restart = %d, want 2", got)
	}
}

func TestCartUpdatedEventFires(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})

	var mu sync.Mutex
	var events []string
	var lastState State
	engine.AddEventListener(constants.EventCartUpdated, func(event string, state State) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event)
		lastState = state
	})

	engine.InitializeCart(context.Background())
	engine.AddToCart(context.Background(), addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 2, 12)))

	mu.Lock()
	defer mu.Unlock()
	if len(events) < 2 {
		t.Fatalf("expected cartUpdated on init and add, got %v", events)
	}
	if !lastState.Initialized || len(lastState.Items) != 1 {
		t.Fatalf("unexpected state snapshot: %+v", lastState)
	}
}

func TestCartUpdatedFiresOnFailedMutation(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})
	engine.InitializeCart(context.Background())

	var mu sync.Mutex
	var states []State
	engine.AddEventListener(constants.EventCartUpdated, func(event string, state State) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, state)
	})

	if res := engine.AddToCart(context.Background(), AddToCartInput{}); res.Success {
		t.Fatal("empty add input must fail")
	}
	if res := engine.UpdateQuantity(context.Background(), 999, "M", 1); res.Success {
		t.Fatal("update of an unknown item must fail")
	}
	if res := engine.RemoveItem(context.Background(), 999); res.Success {
		t.Fatal("remove of an unknown item must fail")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) != 3 {
		t.Fatalf("cartUpdated fired %d times, want one per failed mutation", len(states))
	}
	if states[0].Error == "" {
		t.Fatal("failure snapshot should expose the error message")
	}
}

func TestFindItemPrefersServerID(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})

	serverID := int64(2)
	engine.items = []models.CartItem{
		{LocalID: 2, StyleNumber: "LOCAL"},
		{LocalID: 1, CartItemID: &serverID, StyleNumber: "REMOTE"},
		{LocalID: 5, StyleNumber: "FALLBACK"},
	}

	if got := engine.findItemLocked(2); got == nil || got.StyleNumber != "REMOTE" {
		t.Fatalf("lookup by id 2 = %+v, want the server-id match", got)
	}
	if got := engine.findItemLocked(5); got == nil || got.StyleNumber != "FALLBACK" {
		t.Fatalf("lookup by id 5 = %+v, want the local-id fallback", got)
	}
}

func TestHasImprintType(t *testing.T) {
	fp := newFakeProxy(t)
	engine := newTestEngine(t, fp, Options{})
	engine.InitializeCart(context.Background())
	engine.AddToCart(context.Background(), addInput("PC54", "Black", constants.ImprintEmbroidery, sizeQty("M", 1, 12)))

	if !engine.HasImprintType(constants.ImprintEmbroidery) {
		t.Fatal("expected Embroidery to be present")
	}
	if engine.HasImprintType(constants.ImprintDTG) {
		t.Fatal("DTG should not be present")
	}
}
