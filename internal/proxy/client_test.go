package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("client init failed: %v", err)
	}
	return client
}

func TestNewRejectsEmptyBaseURL(t *testing.T) {
	if _, err := New(Config{}); err != ErrConfigInvalid {
		t.Fatalf("err = %v, want ErrConfigInvalid", err)
	}
}

func TestListItemsNormalizesImageField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"CartItemID":1,"SessionID":"sess_a","StyleNumber":"PC54","imageUrl":"https://cdn/a.jpg"},
			{"CartItemID":2,"SessionID":"sess_a","StyleNumber":"PC61","ImageURL":"https://cdn/b.jpg"}
		]`))
	})

	records, err := client.ListItems(context.Background(), "sess_a")
	if err != nil {
		t.Fatalf("list items failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].ImageURL != "https://cdn/a.jpg" {
		t.Fatalf("lowercase-only image not normalized: %q", records[0].ImageURL)
	}
	if records[1].ImageURLLower != "https://cdn/b.jpg" {
		t.Fatalf("uppercase-only image not normalized: %q", records[1].ImageURLLower)
	}
}

func TestGetSessionReturnsNilWhenAbsent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})

	rec, err := client.GetSession(context.Background(), "sess_missing")
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	if rec != nil {
		t.Fatalf("rec = %+v, want nil", rec)
	}
}

func TestNon2xxIsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.ListItems(context.Background(), "sess_a")
	if err == nil {
		t.Fatal("expected an error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("err type = %T, want *APIError", err)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("status = %d", apiErr.Status)
	}
	if IsNetwork(err) {
		t.Fatal("an API error is not a network error")
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client, err := New(Config{BaseURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("client init failed: %v", err)
	}
	_, err = client.ListItems(context.Background(), "sess_a")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !IsNetwork(err) {
		t.Fatalf("err = %v, want network class", err)
	}
}

func TestAggregateInventorySumsWarehouses(t *testing.T) {
	totals := AggregateInventory([]InventoryRecord{
		{Size: "M", Quantity: 3},
		{Size: "M", Quantity: 4},
		{Size: "L", Quantity: 2},
	})
	if totals["M"] != 7 {
		t.Fatalf("M = %d, want 7", totals["M"])
	}
	if totals["L"] != 2 {
		t.Fatalf("L = %d, want 2", totals["L"])
	}
	if _, ok := totals["XL"]; ok {
		t.Fatal("XL should be absent")
	}
}
