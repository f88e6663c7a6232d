// Package cache stores compiled chunks in a sqlite database keyed by a
// fingerprint of the source text and the options it was compiled with.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	"github.com/zeebo/xxh3"
	_ "modernc.org/sqlite"

	"github.com/chazu/lolcode/pkg/bytecode"
)

// ErrMiss is returned by Get when no usable entry exists for a key.
var ErrMiss = errors.New("cache: miss")

var log = commonlog.GetLogger("lolcode.cache")

// Cache is a sqlite-backed compiled-chunk store. It is safe for
// concurrent use.
type Cache struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Key fingerprints a source text together with the compile options that
// change its output.
func Key(source string, optimize bool) string {
	opt := "0"
	if optimize {
		opt = "1"
	}
	h := xxh3.HashString128(fmt.Sprintf("lolc%d:%s:", bytecode.FormatVersion, opt) + source)
	return fmt.Sprintf("%016x%016x", h.Hi, h.Lo)
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS chunks (
		key     TEXT PRIMARY KEY,
		format  INTEGER NOT NULL,
		data    BLOB NOT NULL,
		created INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	log.Debugf("opened %s", path)
	return &Cache{db: db, path: path}, nil
}

// Path returns the database file the cache was opened at.
func (c *Cache) Path() string { return c.path }

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Get returns the chunk stored under key. Entries written by another
// format version, or that no longer decode, are dropped and reported as
// a miss.
func (c *Cache) Get(key string) (*bytecode.Chunk, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var format int
	var data []byte
	err := c.db.QueryRow("SELECT format, data FROM chunks WHERE key = ?", key).Scan(&format, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("querying chunk: %w", err)
	}

	if format != int(bytecode.FormatVersion) {
		log.Infof("dropping %s: format %d", key, format)
		return nil, c.deleteLocked(key)
	}
	chunk, err := bytecode.Decode(data)
	if err != nil {
		log.Warningf("dropping %s: %v", key, err)
		return nil, c.deleteLocked(key)
	}
	log.Debugf("hit %s", key)
	return chunk, nil
}

func (c *Cache) deleteLocked(key string) error {
	if _, err := c.db.Exec("DELETE FROM chunks WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting chunk: %w", err)
	}
	return ErrMiss
}

// Put stores chunk under key, replacing any previous entry.
func (c *Cache) Put(key string, chunk *bytecode.Chunk) error {
	data, err := chunk.Encode()
	if err != nil {
		return fmt.Errorf("encoding chunk: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO chunks (key, format, data, created) VALUES (?, ?, ?, ?)",
		key, int(bytecode.FormatVersion), data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving chunk: %w", err)
	}
	log.Debugf("stored %s (%d bytes)", key, len(data))
	return nil
}

// Len returns the number of stored entries.
func (c *Cache) Len() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.Exec("DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}
