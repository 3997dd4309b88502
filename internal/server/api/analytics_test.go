package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/ayusman/aabharan/internal/store"
)

func seedItem(t *testing.T, db *store.Store, id string) {
	t.Helper()
	item := &store.Item{
		ID:        id,
		Name:      "Gold Jhumka",
		Type:      store.JewelryTypeEarrings,
		ShareCode: "code-" + id,
	}
	if err := db.Jewelry().Create(item); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestAnalyticsHandler_Track(t *testing.T) {
	db := newTestStore(t)
	h := NewAnalyticsHandler(db)
	seedItem(t, db, "item-1")

	body := `{"item_id": "item-1", "event_type": "try_on", "session_id": "sess-1"}`
	rec := doJSON(t, h, http.MethodPost, "/api/analytics", body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp["id"]) != 26 {
		t.Errorf("event id = %q, want 26-character ULID", resp["id"])
	}

	item, err := db.Jewelry().GetByID("item-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if item.TryOns != 1 {
		t.Errorf("TryOns = %d, want 1", item.TryOns)
	}
}

func TestAnalyticsHandler_TrackValidation(t *testing.T) {
	db := newTestStore(t)
	h := NewAnalyticsHandler(db)
	seedItem(t, db, "item-1")

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"unknown event type", `{"item_id": "item-1", "event_type": "hover"}`, http.StatusBadRequest},
		{"missing item id", `{"event_type": "view"}`, http.StatusBadRequest},
		{"unknown item", `{"item_id": "missing", "event_type": "view"}`, http.StatusNotFound},
		{"malformed JSON", `{"item_id": `, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/analytics", tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}
}

func TestAnalyticsHandler_ItemAnalytics(t *testing.T) {
	db := newTestStore(t)
	h := NewAnalyticsHandler(db)
	seedItem(t, db, "item-1")

	for _, typ := range []string{"view", "view", "try_on"} {
		body := `{"item_id": "item-1", "event_type": "` + typ + `"}`
		if rec := doJSON(t, h, http.MethodPost, "/api/analytics", body); rec.Code != http.StatusCreated {
			t.Fatalf("track %s failed: %d", typ, rec.Code)
		}
	}

	rec := doJSON(t, h, http.MethodGet, "/api/analytics/item-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp struct {
		ItemID       string                   `json:"item_id"`
		Views        int                      `json:"views"`
		TryOns       int                      `json:"try_ons"`
		RecentEvents []map[string]interface{} `json:"recent_events"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Views != 2 || resp.TryOns != 1 {
		t.Errorf("views = %d, try_ons = %d, want 2 and 1", resp.Views, resp.TryOns)
	}
	if len(resp.RecentEvents) != 3 {
		t.Errorf("recent events = %d, want 3", len(resp.RecentEvents))
	}
}

func TestAnalyticsHandler_ItemNotFound(t *testing.T) {
	h := NewAnalyticsHandler(newTestStore(t))

	rec := doJSON(t, h, http.MethodGet, "/api/analytics/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestAnalyticsHandler_Overall(t *testing.T) {
	db := newTestStore(t)
	h := NewAnalyticsHandler(db)
	seedItem(t, db, "item-1")
	seedItem(t, db, "item-2")

	for _, ev := range []struct{ item, typ string }{
		{"item-1", "try_on"},
		{"item-1", "try_on"},
		{"item-2", "try_on"},
		{"item-2", "try_on"},
		{"item-1", "purchase"},
	} {
		body := `{"item_id": "` + ev.item + `", "event_type": "` + ev.typ + `"}`
		if rec := doJSON(t, h, http.MethodPost, "/api/analytics", body); rec.Code != http.StatusCreated {
			t.Fatalf("track failed: %d", rec.Code)
		}
	}

	rec := doJSON(t, h, http.MethodGet, "/api/analytics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp struct {
		Summary  *store.Summary           `json:"summary"`
		TopItems []map[string]interface{} `json:"top_items"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Summary.TotalItems != 2 {
		t.Errorf("TotalItems = %d, want 2", resp.Summary.TotalItems)
	}
	if resp.Summary.TotalTryOns != 4 {
		t.Errorf("TotalTryOns = %d, want 4", resp.Summary.TotalTryOns)
	}
	if resp.Summary.ConversionRate != 25 {
		t.Errorf("ConversionRate = %f, want 25", resp.Summary.ConversionRate)
	}
	if len(resp.TopItems) != 2 {
		t.Errorf("top items = %d, want 2", len(resp.TopItems))
	}
}

func TestAnalyticsHandler_MethodNotAllowed(t *testing.T) {
	h := NewAnalyticsHandler(newTestStore(t))

	rec := doJSON(t, h, http.MethodDelete, "/api/analytics", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/analytics/item-1", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
