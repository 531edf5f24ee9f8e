package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/config"
	_ "modernc.org/sqlite"
)

// FileName is the database file inside the base directory.
const FileName = "timeline.db"

// ExportsDir is the subdirectory of the base directory that import and export always accept.
const ExportsDir = "exports"

// busyTimeoutMS is how long a writer waits on a locked database.
const busyTimeoutMS = 5000

// migration moves the schema from version-1 to version.
type migration struct {
	version int
	stmts   []string
}

// migrations are applied in order, each in its own transaction.
var migrations = []migration{
	{
		version: 1,
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS events (
			  id            TEXT PRIMARY KEY,
			  campaign_raw  TEXT NOT NULL,
			  campaign_norm TEXT NOT NULL,
			  name          TEXT NOT NULL,
			  description   TEXT NOT NULL DEFAULT '',
			  location      TEXT NOT NULL DEFAULT '',
			  tags_json     TEXT,
			  entry_date    TEXT NOT NULL DEFAULT '',
			  entry_time    TEXT NOT NULL DEFAULT '',
			  end_date      TEXT NOT NULL DEFAULT '',
			  end_time      TEXT NOT NULL DEFAULT '',
			  has_end       INTEGER NOT NULL DEFAULT 0,
			  created_at    INTEGER NOT NULL,
			  updated_at    INTEGER NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_events_campaign_date
			  ON events(campaign_norm, entry_date, entry_time)`,
		},
	},
	{
		// search loads a campaign in insertion order
		version: 2,
		stmts: []string{
			`CREATE INDEX IF NOT EXISTS idx_events_campaign_created
			  ON events(campaign_norm, created_at, id)`,
		},
	},
}

// CurrentSchemaVersion is the version reached after all migrations.
var CurrentSchemaVersion = migrations[len(migrations)-1].version

// Init opens (creating if needed) baseDir/timeline.db in WAL mode and brings
// its schema up to date. baseDir and its exports directory are created 0700.
func Init(baseDir string) (*sql.DB, error) {
	for _, dir := range []string{baseDir, filepath.Join(baseDir, ExportsDir)} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
		_ = os.Chmod(dir, 0700)
	}

	dbPath := filepath.Join(baseDir, FileName)
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)
	return db, nil
}

// dsn puts the pragmas in the connection string so every pooled connection gets them.
func dsn(path string) string {
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path, busyTimeoutMS)
}

// ConfigurePool applies the pool limits set in cfg. Zero values keep the sql.DB defaults.
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

func migrate(db *sql.DB) error {
	current, err := GetUserVersion(db)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := apply(db, m); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}
	}
	return nil
}

func apply(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range m.stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	// user_version is transactional in SQLite
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version=%d", m.version)); err != nil {
		return err
	}
	return tx.Commit()
}

func verifyWALMode(db *sql.DB) error {
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if mode != "wal" {
		return fmt.Errorf("expected WAL journal mode, got %s", mode)
	}
	return nil
}

// GetUserVersion returns the schema version stored in the user_version pragma.
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion overwrites the user_version pragma.
func SetUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
