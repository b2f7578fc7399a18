package analytics

import (
	"sync"
	"time"

	"github.com/erazemk/ewaste/internal/model"
)

// Source is the item store as seen by the cache.
type Source interface {
	Version() uint64
	Items() []model.Item
}

// Cache memoizes Compute per store version and calendar day. The day is
// part of the key because the month flags depend on the current date.
type Cache struct {
	src Source

	mu      sync.Mutex
	version uint64
	day     string
	report  Report
	valid   bool
}

// NewCache returns a cache over src.
func NewCache(src Source) *Cache {
	return &Cache{src: src}
}

// Report returns the report for now, recomputing only when the store has
// changed or the day has rolled over.
func (c *Cache) Report(now time.Time) Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	version := c.src.Version()
	day := now.Format("2006-01-02")
	if c.valid && c.version == version && c.day == day {
		return c.report
	}

	c.report = Compute(c.src.Items(), now)
	c.version = version
	c.day = day
	c.valid = true
	return c.report
}
