// Package store persists text embeddings in SQLite so repeated training runs
// and evaluations do not re-encode the same journal entries.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"moodscope/internal/logging"
)

// EmbeddingCache stores encoder output keyed by encoder name and a content
// hash of the normalized text. Vectors from one encoder are never served for
// another.
type EmbeddingCache struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// NewEmbeddingCache initializes the SQLite database at the given path.
func NewEmbeddingCache(path string) (*EmbeddingCache, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	cache := &EmbeddingCache{db: db, path: path}
	if err := cache.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("Embedding cache opened at %s", path)
	return cache, nil
}

// initialize creates the required tables.
func (c *EmbeddingCache) initialize() error {
	table := `
	CREATE TABLE IF NOT EXISTS embeddings (
		encoder TEXT NOT NULL,
		text_hash TEXT NOT NULL,
		dimensions INTEGER NOT NULL,
		vector TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (encoder, text_hash)
	);
	`
	if _, err := c.db.Exec(table); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *EmbeddingCache) Close() error {
	return c.db.Close()
}

// Get returns the cached vector for (encoder, text), or ok=false on a miss.
func (c *EmbeddingCache) Get(encoderName, text string) ([]float32, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var raw string
	err := c.db.QueryRow(
		"SELECT vector FROM embeddings WHERE encoder = ? AND text_hash = ?",
		encoderName, hashText(text),
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup failed: %w", err)
	}

	var vec []float32
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		// A corrupt row is treated as a miss; the caller re-encodes and the
		// fresh vector overwrites it.
		logging.Get(logging.CategoryStore).Warn("Corrupt cached vector for %s, re-encoding", encoderName)
		return nil, false, nil
	}
	return vec, true, nil
}

// Put stores a vector for (encoder, text), replacing any existing row.
func (c *EmbeddingCache) Put(encoderName, text string, vec []float32) error {
	raw, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("failed to marshal vector: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO embeddings (encoder, text_hash, dimensions, vector) VALUES (?, ?, ?, ?)",
		encoderName, hashText(text), len(vec), string(raw),
	)
	if err != nil {
		return fmt.Errorf("cache write failed: %w", err)
	}
	return nil
}

// Count returns the number of cached vectors for the given encoder.
func (c *EmbeddingCache) Count(encoderName string) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var n int
	err := c.db.QueryRow(
		"SELECT COUNT(*) FROM embeddings WHERE encoder = ?", encoderName,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("cache count failed: %w", err)
	}
	return n, nil
}

// Purge removes all vectors stored for the given encoder.
func (c *EmbeddingCache) Purge(encoderName string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.Exec("DELETE FROM embeddings WHERE encoder = ?", encoderName)
	if err != nil {
		return 0, fmt.Errorf("cache purge failed: %w", err)
	}
	n, _ := res.RowsAffected()
	logging.Store("Purged %d cached vectors for encoder %s", n, encoderName)
	return n, nil
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
