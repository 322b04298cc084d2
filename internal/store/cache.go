// Package store provides a SQLite-backed cache for upstream API responses.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

const pragmas = "?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)"

// Cache stores raw response bodies with an expiry.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// Stats describes the cache contents.
type Stats struct {
	Entries int   `json:"entries"`
	Expired int   `json:"expired"`
	Bytes   int64 `json:"bytes"`
}

// Open opens or creates the cache database at the given path and brings its
// schema up to date.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	if err := runMigrations(dbPath + pragmas); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+pragmas)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	return &Cache{db: db, now: time.Now}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the body stored under key. Expired rows are reported as a miss.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	var body []byte
	err := c.db.QueryRow(
		"SELECT body FROM responses WHERE cache_key = ? AND expires_at > ?",
		key, c.now().UnixNano(),
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

// Put stores body under key for ttl, replacing any previous row.
func (c *Cache) Put(key, endpoint string, body []byte, ttl time.Duration) error {
	now := c.now()
	_, err := c.db.Exec(`INSERT OR REPLACE INTO responses
		(cache_key, endpoint, body, fetched_at, expires_at)
		VALUES (?, ?, ?, ?, ?)`,
		key, endpoint, body, now.UTC().Format(time.RFC3339), now.Add(ttl).UnixNano(),
	)
	return err
}

// Purge deletes expired rows and returns how many were removed.
func (c *Cache) Purge() (int64, error) {
	res, err := c.db.Exec("DELETE FROM responses WHERE expires_at <= ?", c.now().UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Clear deletes every row.
func (c *Cache) Clear() (int64, error) {
	res, err := c.db.Exec("DELETE FROM responses")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Stats counts live and expired rows and the stored body size.
func (c *Cache) Stats() (Stats, error) {
	var st Stats
	err := c.db.QueryRow(`SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(LENGTH(body)), 0)
		FROM responses`, c.now().UnixNano(),
	).Scan(&st.Entries, &st.Expired, &st.Bytes)
	return st, err
}

// Endpoints counts cached rows per endpoint.
func (c *Cache) Endpoints() (map[string]int, error) {
	rows, err := c.db.Query("SELECT endpoint, COUNT(*) FROM responses GROUP BY endpoint")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]int)
	for rows.Next() {
		var endpoint string
		var n int
		if err := rows.Scan(&endpoint, &n); err != nil {
			return nil, err
		}
		result[endpoint] = n
	}
	return result, rows.Err()
}
