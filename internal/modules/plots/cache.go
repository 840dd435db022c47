package plots

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Cache stores rendered PNGs in the cache database. Entries are keyed by
// run, plot name, and render options; traces are immutable once a run is
// terminal, so a hit never goes stale. Misses and write failures are
// non-fatal, the image is simply rendered again.
type Cache struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCache creates a plot cache over the cache database connection.
func NewCache(db *sql.DB, log zerolog.Logger) *Cache {
	return &Cache{
		db:  db,
		log: log.With().Str("component", "plot_cache").Logger(),
	}
}

// Get returns the cached PNG for key, or false when absent.
func (c *Cache) Get(key string) ([]byte, bool) {
	var png []byte
	err := c.db.QueryRow(`SELECT png FROM plot_cache WHERE key = ?`, key).Scan(&png)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.log.Warn().Err(err).Str("key", key).Msg("Plot cache read failed")
		}
		return nil, false
	}
	return png, true
}

// Put stores a rendered PNG. Failures are logged and swallowed.
func (c *Cache) Put(key string, png []byte) {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO plot_cache (key, png, created_at) VALUES (?, ?, ?)`,
		key, png, time.Now().Unix(),
	)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Plot cache write failed")
	}
}

// DeleteRun drops every cached plot for one run, called when the run is
// deleted.
func (c *Cache) DeleteRun(runID string) {
	_, err := c.db.Exec(`DELETE FROM plot_cache WHERE key LIKE ?`, runID+"/%")
	if err != nil {
		c.log.Warn().Err(err).Str("run_id", runID).Msg("Plot cache delete failed")
	}
}

// PruneOlderThan deletes cached plots created before cutoff and returns
// how many rows were removed.
func (c *Cache) PruneOlderThan(cutoff time.Time) (int64, error) {
	res, err := c.db.Exec(`DELETE FROM plot_cache WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune plot cache: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		c.log.Info().Int64("deleted", deleted).Msg("Pruned plot cache")
	}
	return deleted, nil
}

// cacheKey builds the storage key for one rendered plot. Options that do
// not apply to the plot are left out so equivalent requests share an entry.
func cacheKey(runID, name string, opts Options) string {
	var b strings.Builder
	b.WriteString(runID)
	b.WriteString("/")
	b.WriteString(name)
	switch name {
	case PlotMatrix:
		fmt.Fprintf(&b, "?which=%s&part=%s", opts.Which, opts.Part)
	case PlotWigner:
		fmt.Fprintf(&b, "?which=%s&points=%d", opts.Which, opts.Points)
	}
	return b.String()
}
