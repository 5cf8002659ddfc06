// Package sqlite persists creature records in a SQLite-backed cache.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/darkcaves/dragonites/pkg/models"
)

// timeLayout is fixed width so lexical order matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// wellFormedStamp matches a stored last_updated written with timeLayout that
// SQLite can also read as a date. Anything else is overwritten on the next Put.
const wellFormedStamp = `creature_cache.last_updated GLOB
	'[0-9][0-9][0-9][0-9]-[0-9][0-9]-[0-9][0-9]T[0-9][0-9]:[0-9][0-9]:[0-9][0-9].[0-9][0-9][0-9][0-9][0-9][0-9][0-9][0-9][0-9]Z'
	AND julianday(creature_cache.last_updated) IS NOT NULL`

const createCacheTable = `
CREATE TABLE IF NOT EXISTS creature_cache (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	data TEXT NOT NULL,
	last_updated TEXT NOT NULL
);
`

const createCacheIndex = `CREATE INDEX IF NOT EXISTS idx_creature_cache_name ON creature_cache(name)`

// StorageError reports a failed cache read or write.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("cache %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// AsStorageError unwraps err into a StorageError.
func AsStorageError(err error) (*StorageError, bool) {
	var se *StorageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock used for timestamps and freshness checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is a creature cache keyed by id.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates the cache schema on db and returns a Store over it.
// The caller owns db.
func New(db *sql.DB, opts ...Option) (*Store, error) {
	for _, stmt := range []string{createCacheTable, createCacheIndex} {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("migrate cache db: %w", err)
		}
	}
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Put upserts rec. The stored timestamp never moves backwards, except that a
// malformed one is replaced with the current time.
func (s *Store) Put(ctx context.Context, rec models.CreatureRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return &StorageError{Op: "encode", Err: err}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO creature_cache (id, name, data, last_updated) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			data = excluded.data,
			last_updated = CASE WHEN `+wellFormedStamp+`
				THEN MAX(creature_cache.last_updated, excluded.last_updated)
				ELSE excluded.last_updated END`,
		rec.ID, rec.Name, string(data), formatTime(s.now()),
	)
	if err != nil {
		return &StorageError{Op: "put", Err: err}
	}
	return nil
}

// Get returns the cached record for id regardless of age.
// Missing rows, read failures and undecodable blobs all report a miss.
func (s *Store) Get(ctx context.Context, id int) (models.CreatureRecord, bool) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM creature_cache WHERE id = ?`, id).Scan(&data)
	if err != nil {
		return models.CreatureRecord{}, false
	}
	var rec models.CreatureRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return models.CreatureRecord{}, false
	}
	return rec, true
}

// Entry returns the stored row for id with its timestamp, regardless of age.
func (s *Store) Entry(ctx context.Context, id int) (models.CacheEntry, bool) {
	var (
		entry     models.CacheEntry
		data, raw string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, data, last_updated FROM creature_cache WHERE id = ?`, id,
	).Scan(&entry.ID, &entry.Name, &data, &raw)
	if err != nil {
		return models.CacheEntry{}, false
	}
	if err := json.Unmarshal([]byte(data), &entry.Record); err != nil {
		return models.CacheEntry{}, false
	}
	ts, err := parseTime(raw)
	if err != nil {
		return models.CacheEntry{}, false
	}
	entry.LastUpdated = ts
	return entry, true
}

// IsValid reports whether id is cached and younger than maxAge.
func (s *Store) IsValid(ctx context.Context, id int, maxAge time.Duration) bool {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT last_updated FROM creature_cache WHERE id = ?`, id).Scan(&raw)
	if err != nil {
		return false
	}
	return s.fresh(raw, maxAge)
}

// Batch returns cached records in ascending id order.
// Limit <= 0 means no limit. The type filter is applied after paging.
func (s *Store) Batch(ctx context.Context, q models.ListQuery) ([]models.CreatureRecord, error) {
	query := `SELECT data FROM creature_cache`
	var args []any
	query, args = nameFilter(query, args, q.Name)
	query += ` ORDER BY id ASC`
	if q.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Limit, max(0, q.Offset))
	} else if q.Offset > 0 {
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "batch", Err: err}
	}
	defer func() { _ = rows.Close() }()

	out := []models.CreatureRecord{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, &StorageError{Op: "batch", Err: err}
		}
		var rec models.CreatureRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			continue
		}
		if q.Type != "" && !rec.HasType(q.Type) {
			continue
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "batch", Err: err}
	}
	return out, nil
}

// Count returns how many records Batch would yield for q over the full range.
func (s *Store) Count(ctx context.Context, q models.ListQuery) (int64, error) {
	if q.Type != "" {
		recs, err := s.Batch(ctx, models.ListQuery{Type: q.Type, Name: q.Name})
		if err != nil {
			return 0, err
		}
		return int64(len(recs)), nil
	}

	query := `SELECT COUNT(*) FROM creature_cache`
	var args []any
	query, args = nameFilter(query, args, q.Name)

	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return n, nil
}

// ClearAll removes every cached record.
func (s *Store) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM creature_cache`); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	return nil
}

// ClearExpired deletes exactly the records IsValid would reject for maxAge
// and returns how many were removed.
func (s *Store) ClearExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &StorageError{Op: "clear expired", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT id, last_updated FROM creature_cache`)
	if err != nil {
		return 0, &StorageError{Op: "clear expired", Err: err}
	}
	var stale []int
	for rows.Next() {
		var id int
		var raw string
		if err := rows.Scan(&id, &raw); err != nil {
			_ = rows.Close()
			return 0, &StorageError{Op: "clear expired", Err: err}
		}
		if !s.fresh(raw, maxAge) {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, &StorageError{Op: "clear expired", Err: err}
	}
	_ = rows.Close()

	var removed int64
	for _, id := range stale {
		res, err := tx.ExecContext(ctx, `DELETE FROM creature_cache WHERE id = ?`, id)
		if err != nil {
			return 0, &StorageError{Op: "clear expired", Err: err}
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	if err := tx.Commit(); err != nil {
		return 0, &StorageError{Op: "clear expired", Err: err}
	}
	return removed, nil
}

// Stats returns the entry count and the newest timestamp in the cache.
func (s *Store) Stats(ctx context.Context) (models.CacheStats, error) {
	var count int64
	var newest sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), MAX(last_updated) FROM creature_cache`).Scan(&count, &newest)
	if err != nil {
		return models.CacheStats{}, &StorageError{Op: "stats", Err: err}
	}
	stats := models.CacheStats{Entries: count}
	if newest.Valid {
		if ts, err := parseTime(newest.String); err == nil {
			stats.LastUpdated = ts
		}
	}
	return stats, nil
}

func (s *Store) fresh(raw string, maxAge time.Duration) bool {
	ts, err := parseTime(raw)
	if err != nil {
		return false
	}
	return s.now().Sub(ts) < maxAge
}

func nameFilter(query string, args []any, name string) (string, []any) {
	if name == "" {
		return query, args
	}
	query += ` WHERE LOWER(name) LIKE ? ESCAPE '\'`
	args = append(args, "%"+escapeLike(strings.ToLower(name))+"%")
	return query, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, raw)
}
