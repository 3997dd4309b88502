package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Jewelry items table - the catalog
		`CREATE TABLE IF NOT EXISTS jewelry_items (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT NOT NULL CHECK(type IN ('earrings', 'necklace')),
			description TEXT NOT NULL DEFAULT '',
			price_amount REAL NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'NPR',
			discount REAL NOT NULL DEFAULT 0,
			material TEXT NOT NULL DEFAULT 'gold',
			ar_config TEXT NOT NULL DEFAULT '{}',
			share_code TEXT NOT NULL UNIQUE,
			views INTEGER NOT NULL DEFAULT 0,
			try_ons INTEGER NOT NULL DEFAULT 0,
			shares INTEGER NOT NULL DEFAULT 0,
			conversions INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('draft', 'active', 'archived')),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Analytics events table - one row per tracked interaction
		`CREATE TABLE IF NOT EXISTS analytics_events (
			id TEXT PRIMARY KEY,
			item_id TEXT NOT NULL REFERENCES jewelry_items(id) ON DELETE CASCADE,
			event_type TEXT NOT NULL CHECK(event_type IN ('view', 'try_on', 'share', 'click', 'purchase')),
			session_id TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_jewelry_items_share_code ON jewelry_items(share_code)`,
		`CREATE INDEX IF NOT EXISTS idx_jewelry_items_status ON jewelry_items(status)`,
		`CREATE INDEX IF NOT EXISTS idx_analytics_events_item_id ON analytics_events(item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_analytics_events_type ON analytics_events(event_type)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
