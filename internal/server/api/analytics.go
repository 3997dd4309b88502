package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/ayusman/aabharan/internal/store"
)

// AnalyticsHandler handles HTTP requests for analytics resources.
type AnalyticsHandler struct {
	store *store.Store
}

// NewAnalyticsHandler creates a new AnalyticsHandler with the given store.
func NewAnalyticsHandler(s *store.Store) *AnalyticsHandler {
	return &AnalyticsHandler{store: s}
}

// ServeHTTP routes analytics requests.
// Expected paths: /api/analytics (POST track, GET overall), /api/analytics/{itemID} (GET).
func (h *AnalyticsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/analytics")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodPost:
			h.track(w, r)
		case http.MethodGet:
			h.overall(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.item(w, r, path)
}

type trackEventRequest struct {
	ItemID    string `json:"item_id" validate:"required"`
	EventType string `json:"event_type" validate:"required,oneof=view try_on share click purchase"`
	SessionID string `json:"session_id"`
}

type eventResponse struct {
	ID        string `json:"id"`
	ItemID    string `json:"item_id"`
	EventType string `json:"event_type"`
	SessionID string `json:"session_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

type itemAnalyticsResponse struct {
	ItemID       string          `json:"item_id"`
	ItemName     string          `json:"item_name"`
	Views        int             `json:"views"`
	TryOns       int             `json:"try_ons"`
	Shares       int             `json:"shares"`
	Conversions  int             `json:"conversions"`
	RecentEvents []eventResponse `json:"recent_events"`
}

type overallAnalyticsResponse struct {
	Summary  *store.Summary    `json:"summary"`
	TopItems []jewelryResponse `json:"top_items"`
}

// track handles POST /api/analytics.
func (h *AnalyticsHandler) track(w http.ResponseWriter, r *http.Request) {
	var req trackEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.store.Jewelry().GetByID(req.ItemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Jewelry item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to look up jewelry item")
		return
	}

	ev := &store.Event{
		ID:        ulid.Make().String(),
		ItemID:    req.ItemID,
		Type:      store.EventType(req.EventType),
		SessionID: req.SessionID,
	}

	if err := h.store.Analytics().Track(ev); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to track event")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": ev.ID})
}

// item handles GET /api/analytics/{itemID}.
func (h *AnalyticsHandler) item(w http.ResponseWriter, r *http.Request, itemID string) {
	item, err := h.store.Jewelry().GetByID(itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Jewelry item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get jewelry item")
		return
	}

	events, err := h.store.Analytics().ListByItem(itemID, 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	resp := itemAnalyticsResponse{
		ItemID:       item.ID,
		ItemName:     item.Name,
		Views:        item.Views,
		TryOns:       item.TryOns,
		Shares:       item.Shares,
		Conversions:  item.Conversions,
		RecentEvents: make([]eventResponse, 0, len(events)),
	}
	for _, ev := range events {
		resp.RecentEvents = append(resp.RecentEvents, eventResponse{
			ID:        ev.ID,
			ItemID:    ev.ItemID,
			EventType: string(ev.Type),
			SessionID: ev.SessionID,
			CreatedAt: ev.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// overall handles GET /api/analytics.
func (h *AnalyticsHandler) overall(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.Analytics().Overall()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to aggregate analytics")
		return
	}

	top, err := h.store.Jewelry().TopByTryOns(5)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list top items")
		return
	}

	resp := overallAnalyticsResponse{
		Summary:  summary,
		TopItems: make([]jewelryResponse, 0, len(top)),
	}
	for _, item := range top {
		resp.TopItems = append(resp.TopItems, toResponse(item))
	}

	writeJSON(w, http.StatusOK, resp)
}
