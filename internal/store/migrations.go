package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Snapshots table - exported canvas images
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			format TEXT NOT NULL CHECK(format IN ('png', 'jpeg')),
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			data BLOB NOT NULL,
			thumbnail BLOB,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_snapshots_session_id ON snapshots(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
