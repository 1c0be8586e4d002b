package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// One row per "save drawing"
		`CREATE TABLE IF NOT EXISTS saves (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			segments INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Stroke history at the time of the save, in commit order
		`CREATE TABLE IF NOT EXISTS save_segments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			save_id TEXT NOT NULL REFERENCES saves(id) ON DELETE CASCADE,
			sequence INTEGER NOT NULL,
			x1 INTEGER NOT NULL,
			y1 INTEGER NOT NULL,
			x2 INTEGER NOT NULL,
			y2 INTEGER NOT NULL,
			r INTEGER NOT NULL,
			g INTEGER NOT NULL,
			b INTEGER NOT NULL,
			thickness INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Every recognized phrase, matched or not
		`CREATE TABLE IF NOT EXISTS commands (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			phrase TEXT NOT NULL,
			command TEXT NOT NULL DEFAULT '',
			matched INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_save_segments_save_id ON save_segments(save_id, sequence)`,
		`CREATE INDEX IF NOT EXISTS idx_saves_created_at ON saves(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
