package weather

import "time"

// DefaultRefreshInterval is how long an accepted forecast is used before refetching.
const DefaultRefreshInterval = 6 * time.Hour

// Cache holds the most recently accepted forecast. It has a single owner
// (the Controller) and is not safe for concurrent use on its own.
type Cache struct {
	record    *ForecastRecord
	fetchedAt time.Time
	valid     bool
	interval  time.Duration
}

// NewCache creates an empty cache. A non-positive interval uses DefaultRefreshInterval.
func NewCache(interval time.Duration) *Cache {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Cache{interval: interval}
}

// IsStale reports whether a refresh is required at now.
func (c *Cache) IsStale(now time.Time) bool {
	if c.record == nil || !c.valid {
		return true
	}
	return now.Sub(c.fetchedAt) >= c.interval
}

// Store replaces the cached record and marks it valid.
func (c *Cache) Store(record *ForecastRecord, now time.Time) {
	c.record = record
	c.fetchedAt = now.UTC()
	c.valid = true
}

// Invalidate forces a refresh on the next staleness check. The previous
// record is kept but never served again.
func (c *Cache) Invalidate() {
	c.valid = false
}

// Current returns the cached record, or nil when none is valid.
func (c *Cache) Current() *ForecastRecord {
	if !c.valid {
		return nil
	}
	return c.record
}

// FetchedAt returns the time of the last successful store.
func (c *Cache) FetchedAt() time.Time {
	return c.fetchedAt
}

// Valid reports whether the cached record may be served.
func (c *Cache) Valid() bool {
	return c.valid && c.record != nil
}
