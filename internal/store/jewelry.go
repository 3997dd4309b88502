package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// JewelryType represents the kind of jewelry an item is.
type JewelryType string

const (
	// JewelryTypeEarrings anchors at the ear-region landmarks.
	JewelryTypeEarrings JewelryType = "earrings"
	// JewelryTypeNecklace anchors below the chin.
	JewelryTypeNecklace JewelryType = "necklace"
)

// Status represents the lifecycle state of a catalog item. Deletion is a
// soft transition to archived.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Item represents a jewelry catalog item. ARConfig holds the serialized
// try-on configuration (tryon.Config JSON) handed to the pipeline when the
// item is selected.
type Item struct {
	ID          string
	Name        string
	Type        JewelryType
	Description string
	PriceAmount float64
	Currency    string
	Discount    float64
	Material    string
	ARConfig    string
	ShareCode   string
	Views       int
	TryOns      int
	Shares      int
	Conversions int
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ShareURL returns the public try-on link for the item.
func (i *Item) ShareURL() string {
	return "/try-on/" + i.ShareCode
}

// JewelryRepository provides CRUD operations for jewelry items.
type JewelryRepository struct {
	db *sql.DB
}

// Jewelry returns the jewelry repository for this store.
func (s *Store) Jewelry() *JewelryRepository {
	return &JewelryRepository{db: s.db}
}

const itemColumns = `id, name, type, description, price_amount, currency, discount,
	material, ar_config, share_code, views, try_ons, shares, conversions,
	status, created_at, updated_at`

// Create inserts a new jewelry item into the database.
func (r *JewelryRepository) Create(item *Item) error {
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	if item.Currency == "" {
		item.Currency = "NPR"
	}
	if item.Status == "" {
		item.Status = StatusActive
	}
	if item.ARConfig == "" {
		item.ARConfig = "{}"
	}

	_, err := r.db.Exec(
		`INSERT INTO jewelry_items (id, name, type, description, price_amount, currency,
			discount, material, ar_config, share_code, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Name, string(item.Type), item.Description, item.PriceAmount,
		item.Currency, item.Discount, item.Material, item.ARConfig, item.ShareCode,
		string(item.Status), item.CreatedAt, item.UpdatedAt,
	)
	return err
}

func scanItem(row interface{ Scan(...any) error }) (*Item, error) {
	item := &Item{}
	var typ, status string

	err := row.Scan(
		&item.ID, &item.Name, &typ, &item.Description, &item.PriceAmount,
		&item.Currency, &item.Discount, &item.Material, &item.ARConfig,
		&item.ShareCode, &item.Views, &item.TryOns, &item.Shares,
		&item.Conversions, &status, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	item.Type = JewelryType(typ)
	item.Status = Status(status)
	return item, nil
}

// GetByID retrieves a jewelry item by its ID.
func (r *JewelryRepository) GetByID(id string) (*Item, error) {
	row := r.db.QueryRow(`SELECT `+itemColumns+` FROM jewelry_items WHERE id = ?`, id)
	return scanItem(row)
}

// GetByShareCode retrieves a jewelry item by its public share code.
func (r *JewelryRepository) GetByShareCode(code string) (*Item, error) {
	row := r.db.QueryRow(`SELECT `+itemColumns+` FROM jewelry_items WHERE share_code = ?`, code)
	return scanItem(row)
}

// ListFilter narrows List results. Zero values mean "no filter"; Limit 0
// falls back to 20.
type ListFilter struct {
	Type   JewelryType
	Status Status
	Limit  int
	Offset int
}

// List returns jewelry items matching the filter, newest first.
func (r *JewelryRepository) List(filter ListFilter) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM jewelry_items WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Count returns the number of items matching the filter.
func (r *JewelryRepository) Count(filter ListFilter) (int, error) {
	query := `SELECT COUNT(*) FROM jewelry_items WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}

	var n int
	err := r.db.QueryRow(query, args...).Scan(&n)
	return n, err
}

// Update persists changes to name, type, description, pricing, material,
// AR config and status.
func (r *JewelryRepository) Update(item *Item) error {
	item.UpdatedAt = time.Now()

	res, err := r.db.Exec(
		`UPDATE jewelry_items SET name = ?, type = ?, description = ?, price_amount = ?,
			currency = ?, discount = ?, material = ?, ar_config = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		item.Name, string(item.Type), item.Description, item.PriceAmount,
		item.Currency, item.Discount, item.Material, item.ARConfig,
		string(item.Status), item.UpdatedAt, item.ID,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Archive soft-deletes an item by moving it to the archived status.
func (r *JewelryRepository) Archive(id string) error {
	res, err := r.db.Exec(
		`UPDATE jewelry_items SET status = ?, updated_at = ? WHERE id = ?`,
		string(StatusArchived), time.Now(), id,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// counterColumns whitelists the incrementable analytics counters. Event
// types map onto these; anything else is rejected before reaching SQL.
var counterColumns = map[string]string{
	"view":     "views",
	"try_on":   "try_ons",
	"share":    "shares",
	"purchase": "conversions",
}

// IncrementCounter bumps the item's analytics counter for the given event
// type. Unknown event types (e.g. click) increment nothing.
func (r *JewelryRepository) IncrementCounter(id, eventType string) error {
	column, ok := counterColumns[eventType]
	if !ok {
		return nil
	}

	_, err := r.db.Exec(
		`UPDATE jewelry_items SET `+column+` = `+column+` + 1 WHERE id = ?`, id,
	)
	return err
}

// TopByTryOns returns the n active items with the most try-ons.
func (r *JewelryRepository) TopByTryOns(n int) ([]*Item, error) {
	if n <= 0 {
		n = 5
	}

	rows, err := r.db.Query(
		`SELECT `+itemColumns+` FROM jewelry_items WHERE status = ?
		 ORDER BY try_ons DESC LIMIT ?`, string(StatusActive), n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
