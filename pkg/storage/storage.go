// Package storage opens the SQLite database shared by the cache and roster.
package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DSN builds the connection string for path with WAL and a busy timeout.
func DSN(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Open opens the database at path and verifies the connection.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}
