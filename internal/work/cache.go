package work

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Cache provides simple key-value storage with expiration, backed by the
// cache database. It holds small operational state (backup metadata,
// dedup markers) rather than anything derived from run results.
type Cache struct {
	db *sql.DB
}

// NewCache creates a new cache instance.
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db}
}

// GetExpiresAt returns the expiration timestamp for a key.
// Returns 0 if key doesn't exist.
// Does not check if expired - callers should compare with time.Now().Unix().
func (c *Cache) GetExpiresAt(key string) int64 {
	var expiresAt int64
	err := c.db.QueryRow("SELECT expires_at FROM cache WHERE key = ?", key).Scan(&expiresAt)
	if err != nil {
		return 0
	}
	return expiresAt
}

// Set stores a key with expiration timestamp.
func (c *Cache) Set(key string, expiresAt int64) error {
	_, err := c.db.Exec(`
		INSERT INTO cache (key, value, expires_at)
		VALUES (?, '', ?)
		ON CONFLICT(key) DO UPDATE SET
			expires_at = excluded.expires_at
	`, key, expiresAt)
	return err
}

// Delete removes a cache entry.
func (c *Cache) Delete(key string) error {
	_, err := c.db.Exec("DELETE FROM cache WHERE key = ?", key)
	return err
}

// DeleteByPrefix removes all cache entries matching a prefix.
func (c *Cache) DeleteByPrefix(prefix string) error {
	_, err := c.db.Exec("DELETE FROM cache WHERE key LIKE ?", prefix+"%")
	return err
}

// PruneExpired removes all entries whose expiration has passed and
// returns how many rows were deleted.
func (c *Cache) PruneExpired() (int64, error) {
	res, err := c.db.Exec("DELETE FROM cache WHERE expires_at <= ?", time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetJSON stores a value as JSON in the cache with expiration timestamp.
func (c *Cache) SetJSON(key string, value interface{}, expiresAt int64) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}

	_, err = c.db.Exec(`
		INSERT INTO cache (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at
	`, key, string(jsonData), expiresAt)
	return err
}

// GetJSON retrieves a JSON value from the cache and unmarshals it into dest.
// Returns error if key doesn't exist, is expired, or JSON unmarshal fails.
func (c *Cache) GetJSON(key string, dest interface{}) error {
	var value string
	var expiresAt int64
	err := c.db.QueryRow("SELECT value, expires_at FROM cache WHERE key = ?", key).Scan(&value, &expiresAt)
	if err != nil {
		return err
	}

	// Check if expired
	if time.Now().Unix() >= expiresAt {
		return sql.ErrNoRows
	}

	return json.Unmarshal([]byte(value), dest)
}
