package database

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// DB is the global database instance
var DB *sql.DB

// Init opens the activity journal and creates its schema.
// Pass ":memory:" for a journal that lives only as long as the process.
func Init(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	// every pooled connection to :memory: would get its own empty database
	db.SetMaxOpenConns(1)

	if DB != nil {
		_ = DB.Close()
	}
	DB = db

	return EnsureSchema()
}

// EnsureSchema creates all necessary database tables
func EnsureSchema() error {
	_, err := DB.Exec(`
CREATE TABLE IF NOT EXISTS activity_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  timestamp TEXT NOT NULL,
  level TEXT NOT NULL,
  category TEXT NOT NULL,
  identifier TEXT,
  message TEXT NOT NULL,
  details TEXT,
  created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_activity_timestamp ON activity_log(timestamp);
CREATE INDEX IF NOT EXISTS idx_activity_level ON activity_log(level);
CREATE INDEX IF NOT EXISTS idx_activity_category ON activity_log(category);
CREATE INDEX IF NOT EXISTS idx_activity_identifier ON activity_log(identifier);
`)
	return err
}

// Close releases the database handle
func Close() error {
	if DB == nil {
		return nil
	}
	err := DB.Close()
	DB = nil
	return err
}
