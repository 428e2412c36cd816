// Package candlecache is a file-backed persistent cache for OHLCV ranges
// (§4.3), keyed by (symbol, from, to, interval, source) and bounded by a
// per-interval TTL policy.
package candlecache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/arise-platform/toppicks-engine/internal/quotes"
)

// TTL returns the cache TTL for interval (§4.3 TTL policy table). Entries
// older than this are treated as a miss.
func TTL(interval quotes.Interval) time.Duration {
	switch interval {
	case quotes.Interval1m, quotes.Interval3m, quotes.Interval5m:
		return time.Hour
	case quotes.Interval15m:
		return 2 * time.Hour
	case quotes.Interval30m:
		return 4 * time.Hour
	case quotes.Interval1h:
		return 8 * time.Hour
	case quotes.Interval1d:
		return 24 * time.Hour
	default:
		return time.Hour
	}
}

// entryMeta is the per-entry metadata record stored in metadata.json.
type entryMeta struct {
	Symbol    string    `json:"symbol"`
	Interval  string    `json:"interval"`
	Source    string    `json:"source"`
	CachedAt  time.Time `json:"cached_at"`
	RowCount  int       `json:"row_count"`
	FileSize  int64     `json:"file_size"`
}

// Stats is the cache's running hit/miss/write counters (§4.3 GetStats).
type Stats struct {
	Hits          int
	Misses        int
	Writes        int
	Invalidations int
	TotalEntries  int
	TotalSizeBytes int64
}

// HitRate returns hits / (hits+misses), or 0 when no lookups have occurred.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is the file-backed candle cache rooted at a directory.
type Cache struct {
	dir  string
	mu   sync.Mutex
	meta map[string]entryMeta // key -> metadata
	stats Stats
}

// New builds a Cache rooted at dir, creating it if necessary and loading any
// existing metadata.json.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	c := &Cache{dir: dir, meta: map[string]entryMeta{}}
	c.loadMeta()
	return c, nil
}

func (c *Cache) metaPath() string {
	return filepath.Join(c.dir, "metadata.json")
}

func (c *Cache) loadMeta() {
	data, err := os.ReadFile(c.metaPath())
	if err != nil {
		return
	}
	_ = json.Unmarshal(data, &c.meta)
}

func (c *Cache) saveMetaLocked() error {
	data, err := json.MarshalIndent(c.meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache metadata: %w", err)
	}
	return os.WriteFile(c.metaPath(), data, 0o644)
}

// normalize collapses a timestamp to the granularity the cache key ignores
// below: daily intervals collapse to the calendar date; intraday intervals
// collapse to the minute.
func normalize(t time.Time, interval quotes.Interval) string {
	if interval == quotes.Interval1d {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02_15:04")
}

// key builds the 12-char cache key hash and its file-name prefix.
func key(symbol string, from, to time.Time, interval quotes.Interval, source string) (hash string, filePrefix string) {
	normFrom := normalize(from, interval)
	normTo := normalize(to, interval)
	sum := sha256.Sum256([]byte(strings.Join([]string{normFrom, normTo, source}, "|")))
	hash = hex.EncodeToString(sum[:])[:12]
	filePrefix = fmt.Sprintf("%s_%s_%s", symbol, interval, hash)
	return hash, filePrefix
}

func (c *Cache) dataPath(filePrefix string) string {
	return filepath.Join(c.dir, filePrefix+".msgpack")
}

// Get returns cached rows for the given key tuple, or (nil, false) on a
// miss (absent, malformed, or past TTL).
func (c *Cache) Get(symbol string, from, to time.Time, interval quotes.Interval, source string) ([]quotes.Candle, bool) {
	_, filePrefix := key(symbol, from, to, interval, source)

	c.mu.Lock()
	meta, ok := c.meta[filePrefix]
	c.mu.Unlock()
	if !ok {
		c.recordMiss()
		return nil, false
	}
	if time.Since(meta.CachedAt) > TTL(interval) {
		c.recordMiss()
		return nil, false
	}

	data, err := os.ReadFile(c.dataPath(filePrefix))
	if err != nil {
		c.recordMiss()
		return nil, false
	}
	var rows []quotes.Candle
	if err := msgpack.Unmarshal(data, &rows); err != nil {
		c.recordMiss()
		return nil, false
	}
	c.recordHit()
	return rows, true
}

func (c *Cache) recordHit() {
	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
}

func (c *Cache) recordMiss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
}

// Set writes rows to the cache. A no-op on an empty frame (§4.3).
func (c *Cache) Set(symbol string, from, to time.Time, interval quotes.Interval, source string, rows []quotes.Candle) error {
	if len(rows) == 0 {
		return nil
	}
	_, filePrefix := key(symbol, from, to, interval, source)

	data, err := msgpack.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal candle rows: %w", err)
	}
	if err := os.WriteFile(c.dataPath(filePrefix), data, 0o644); err != nil {
		return fmt.Errorf("write candle cache file: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.meta[filePrefix] = entryMeta{
		Symbol:   symbol,
		Interval: string(interval),
		Source:   source,
		CachedAt: time.Now(),
		RowCount: len(rows),
		FileSize: int64(len(data)),
	}
	c.stats.Writes++
	return c.saveMetaLocked()
}

// Invalidate removes entries matching the given optional filters. An empty
// symbol/interval matches every entry; olderThanHours <= 0 skips the age
// filter. It returns the number of entries removed.
func (c *Cache) Invalidate(symbol string, interval quotes.Interval, olderThanHours int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for prefix, meta := range c.meta {
		if symbol != "" && meta.Symbol != symbol {
			continue
		}
		if interval != "" && meta.Interval != string(interval) {
			continue
		}
		if olderThanHours > 0 && time.Since(meta.CachedAt) < time.Duration(olderThanHours)*time.Hour {
			continue
		}
		_ = os.Remove(c.dataPath(prefix))
		delete(c.meta, prefix)
		removed++
	}
	c.stats.Invalidations += removed
	if err := c.saveMetaLocked(); err != nil {
		return removed, err
	}
	return removed, nil
}

// ClearAll removes every cached entry and resets the metadata file.
func (c *Cache) ClearAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for prefix := range c.meta {
		_ = os.Remove(c.dataPath(prefix))
	}
	c.meta = map[string]entryMeta{}
	c.stats.Invalidations += len(c.meta)
	return c.saveMetaLocked()
}

// GetStats returns current hit/miss/write counters plus a live count of
// entries and total size on disk.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.TotalEntries = len(c.meta)
	var size int64
	for _, m := range c.meta {
		size += m.FileSize
	}
	s.TotalSizeBytes = size
	return s
}
