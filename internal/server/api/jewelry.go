// Package api provides HTTP API handlers for the Aabharan virtual try-on
// system.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/ayusman/aabharan/internal/app"
	"github.com/ayusman/aabharan/internal/store"
	"github.com/ayusman/aabharan/internal/tryon"
)

var validate = validator.New()

// JewelryHandler handles HTTP requests for jewelry catalog resources.
type JewelryHandler struct {
	store *store.Store
	app   *app.App
}

// NewJewelryHandler creates a new JewelryHandler. The app may be nil when
// the server runs without a live pipeline (catalog-only mode).
func NewJewelryHandler(s *store.Store, a *app.App) *JewelryHandler {
	return &JewelryHandler{store: s, app: a}
}

// ServeHTTP implements the http.Handler interface and routes requests to
// appropriate methods.
func (h *JewelryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/jewelry, /api/jewelry/{id}, /api/jewelry/{id}/try-on
	path := strings.TrimPrefix(r.URL.Path, "/api/jewelry")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/try-on"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.tryOn(w, r, id)
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.archive(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type priceRequest struct {
	Amount   float64 `json:"amount" validate:"gte=0"`
	Currency string  `json:"currency"`
	Discount float64 `json:"discount" validate:"gte=0,lte=100"`
}

type createJewelryRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Type        string          `json:"type" validate:"required,oneof=earrings necklace"`
	Description string          `json:"description" validate:"max=1000"`
	Price       priceRequest    `json:"price"`
	Material    string          `json:"material"`
	ARConfig    json.RawMessage `json:"ar_config"`
}

type updateJewelryRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Type        string          `json:"type" validate:"required,oneof=earrings necklace"`
	Description string          `json:"description" validate:"max=1000"`
	Price       priceRequest    `json:"price"`
	Material    string          `json:"material"`
	ARConfig    json.RawMessage `json:"ar_config"`
	Status      string          `json:"status" validate:"omitempty,oneof=draft active archived"`
}

type jewelryResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Price       priceRequest    `json:"price"`
	Material    string          `json:"material"`
	ARConfig    json.RawMessage `json:"ar_config"`
	ShareCode   string          `json:"share_code"`
	ShareURL    string          `json:"share_url"`
	Views       int             `json:"views"`
	TryOns      int             `json:"try_ons"`
	Shares      int             `json:"shares"`
	Conversions int             `json:"conversions"`
	Status      string          `json:"status"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

type listJewelryResponse struct {
	Items      []jewelryResponse `json:"items"`
	Count      int               `json:"count"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalCount int               `json:"total_count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ItemResponse converts a store.Item to its API representation.
func ItemResponse(item *store.Item) any {
	return toResponse(item)
}

func toResponse(item *store.Item) jewelryResponse {
	arConfig := json.RawMessage(item.ARConfig)
	if len(arConfig) == 0 {
		arConfig = json.RawMessage("{}")
	}

	return jewelryResponse{
		ID:          item.ID,
		Name:        item.Name,
		Type:        string(item.Type),
		Description: item.Description,
		Price: priceRequest{
			Amount:   item.PriceAmount,
			Currency: item.Currency,
			Discount: item.Discount,
		},
		Material:    item.Material,
		ARConfig:    arConfig,
		ShareCode:   item.ShareCode,
		ShareURL:    item.ShareURL(),
		Views:       item.Views,
		TryOns:      item.TryOns,
		Shares:      item.Shares,
		Conversions: item.Conversions,
		Status:      string(item.Status),
		CreatedAt:   item.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   item.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// validateARConfig rejects AR configurations the try-on pipeline would
// refuse at session start: bad landmark indices, sizes or physics
// coefficients surface here, at catalog write time.
func validateARConfig(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "{}", nil
	}

	cfg := tryon.DefaultConfig()
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return "", err
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	return string(raw), nil
}

// newShareCode derives a short public code from a ULID's entropy tail.
func newShareCode() string {
	id := ulid.Make().String()
	return strings.ToLower(id[len(id)-8:])
}

// list handles GET /api/jewelry with optional type, status, page and
// page_size query parameters.
func (h *JewelryHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	status := q.Get("status")
	if status == "" {
		status = string(store.StatusActive)
	}

	filter := store.ListFilter{
		Type:   store.JewelryType(q.Get("type")),
		Status: store.Status(status),
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}

	items, err := h.store.Jewelry().List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list jewelry")
		return
	}

	total, err := h.store.Jewelry().Count(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count jewelry")
		return
	}

	resp := listJewelryResponse{
		Items:      make([]jewelryResponse, 0, len(items)),
		Count:      len(items),
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, toResponse(item))
	}

	writeJSON(w, http.StatusOK, resp)
}

// get handles GET /api/jewelry/{id}. Fetching an item counts as a view.
func (h *JewelryHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	item, err := h.store.Jewelry().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Jewelry item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get jewelry item")
		return
	}

	if err := h.store.Jewelry().IncrementCounter(item.ID, string(store.EventView)); err == nil {
		item.Views++
	}

	writeJSON(w, http.StatusOK, toResponse(item))
}

// create handles POST /api/jewelry.
func (h *JewelryHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createJewelryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	arConfig, err := validateARConfig(req.ARConfig)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid AR config: "+err.Error())
		return
	}

	item := &store.Item{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Type:        store.JewelryType(req.Type),
		Description: req.Description,
		PriceAmount: req.Price.Amount,
		Currency:    req.Price.Currency,
		Discount:    req.Price.Discount,
		Material:    req.Material,
		ARConfig:    arConfig,
		ShareCode:   newShareCode(),
		Status:      store.StatusActive,
	}

	if err := h.store.Jewelry().Create(item); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create jewelry item")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(item))
}

// update handles PUT /api/jewelry/{id}.
func (h *JewelryHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var req updateJewelryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.store.Jewelry().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Jewelry item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get jewelry item")
		return
	}

	item.Name = req.Name
	item.Type = store.JewelryType(req.Type)
	item.Description = req.Description
	item.PriceAmount = req.Price.Amount
	if req.Price.Currency != "" {
		item.Currency = req.Price.Currency
	}
	item.Discount = req.Price.Discount
	if req.Material != "" {
		item.Material = req.Material
	}
	if req.Status != "" {
		item.Status = store.Status(req.Status)
	}

	if len(req.ARConfig) > 0 {
		arConfig, err := validateARConfig(req.ARConfig)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid AR config: "+err.Error())
			return
		}
		item.ARConfig = arConfig
	}

	if err := h.store.Jewelry().Update(item); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update jewelry item")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(item))
}

// archive handles DELETE /api/jewelry/{id}; deletion is a soft transition
// to the archived status.
func (h *JewelryHandler) archive(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Jewelry().Archive(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Jewelry item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to archive jewelry item")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "archived"})
}

// tryOn handles POST /api/jewelry/{id}/try-on: activates the item on the
// live pipeline.
func (h *JewelryHandler) tryOn(w http.ResponseWriter, r *http.Request, id string) {
	if h.app == nil {
		writeError(w, http.StatusServiceUnavailable, "Try-on pipeline not running")
		return
	}

	item, err := h.store.Jewelry().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Jewelry item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get jewelry item")
		return
	}

	if err := h.app.UseItem(item); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to activate item: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "active",
		"item":    item.Name,
		"session": h.app.Session().ID(),
	})
}
