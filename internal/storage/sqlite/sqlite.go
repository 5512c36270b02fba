// Package sqlite opens the SQLite backend of storage.Storage.
//
// SQLite keeps the whole database in one file, so it is the default for
// local development and tests. The driver (mattn/go-sqlite3) registers
// itself as "sqlite3" through the blank import.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aanand-mishra/schools-api/internal/config"
	"github.com/aanand-mishra/schools-api/internal/storage/sqlstore"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
	CREATE TABLE IF NOT EXISTS schools (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		name    TEXT    NOT NULL,
		email   TEXT    NOT NULL,
		address TEXT    NOT NULL,
		city    TEXT    NOT NULL,
		state   TEXT    NOT NULL,
		contact TEXT    NOT NULL,
		image   TEXT
	)
`

// New opens (or creates) the database file at cfg.Storage.Path and makes
// sure the schools table exists.
func New(cfg *config.Config) (*sqlstore.Store, error) {
	return Open(cfg.Storage.Path, cfg.Storage.MaxOpenConns, cfg.Storage.MaxIdleConns)
}

// Open is New without the config indirection.
func Open(path string, maxOpen, maxIdle int) (*sqlstore.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	// _busy_timeout lets concurrent writers wait on the file lock instead
	// of failing immediately with SQLITE_BUSY.
	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}
	sqlstore.ConfigurePool(db, maxOpen, maxIdle)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return sqlstore.New(db), nil
}
