package store

import (
	"database/sql"
	"time"
)

// EventType classifies a tracked try-on interaction.
type EventType string

const (
	EventView     EventType = "view"
	EventTryOn    EventType = "try_on"
	EventShare    EventType = "share"
	EventClick    EventType = "click"
	EventPurchase EventType = "purchase"
)

// Event represents one tracked analytics event.
type Event struct {
	ID        string
	ItemID    string
	Type      EventType
	SessionID string
	CreatedAt time.Time
}

// Summary aggregates catalog-wide analytics.
type Summary struct {
	TotalItems       int     `json:"total_items"`
	TotalViews       int     `json:"total_views"`
	TotalTryOns      int     `json:"total_try_ons"`
	TotalShares      int     `json:"total_shares"`
	TotalConversions int     `json:"total_conversions"`
	ConversionRate   float64 `json:"conversion_rate"`
}

// AnalyticsRepository records and aggregates try-on analytics events.
type AnalyticsRepository struct {
	db      *sql.DB
	jewelry *JewelryRepository
}

// Analytics returns the analytics repository for this store.
func (s *Store) Analytics() *AnalyticsRepository {
	return &AnalyticsRepository{
		db:      s.db,
		jewelry: &JewelryRepository{db: s.db},
	}
}

// Track inserts an event and bumps the owning item's counter.
func (r *AnalyticsRepository) Track(ev *Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO analytics_events (id, item_id, event_type, session_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ev.ID, ev.ItemID, string(ev.Type), ev.SessionID, ev.CreatedAt,
	)
	if err != nil {
		return err
	}

	return r.jewelry.IncrementCounter(ev.ItemID, string(ev.Type))
}

// ListByItem returns the most recent events for an item, newest first.
func (r *AnalyticsRepository) ListByItem(itemID string, limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(
		`SELECT id, item_id, event_type, session_id, created_at
		 FROM analytics_events WHERE item_id = ?
		 ORDER BY created_at DESC LIMIT ?`,
		itemID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		ev := &Event{}
		var typ string
		if err := rows.Scan(&ev.ID, &ev.ItemID, &typ, &ev.SessionID, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Type = EventType(typ)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Overall aggregates analytics across all active items.
func (r *AnalyticsRepository) Overall() (*Summary, error) {
	s := &Summary{}

	err := r.db.QueryRow(
		`SELECT COUNT(*),
			COALESCE(SUM(views), 0),
			COALESCE(SUM(try_ons), 0),
			COALESCE(SUM(shares), 0),
			COALESCE(SUM(conversions), 0)
		 FROM jewelry_items WHERE status = ?`,
		string(StatusActive),
	).Scan(&s.TotalItems, &s.TotalViews, &s.TotalTryOns, &s.TotalShares, &s.TotalConversions)
	if err != nil {
		return nil, err
	}

	if s.TotalTryOns > 0 {
		s.ConversionRate = float64(s.TotalConversions) / float64(s.TotalTryOns) * 100
	}

	return s, nil
}
