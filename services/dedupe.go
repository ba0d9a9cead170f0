package services

import (
	"fmt"
	"sync"
	"time"
)

// DedupeCache collapses webhook retries. The key includes the observed
// available quantity: the same item+location with a different quantity is new
// information, not a retry. Entries live for one TTL and the whole cache is
// process-local and non-durable; reapplying a correction after a restart is
// harmless because set-on-hand is idempotent.
type DedupeCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]time.Time
	now     func() time.Time
}

func NewDedupeCache(ttl time.Duration) *DedupeCache {
	return &DedupeCache{
		ttl:     ttl,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// SetClock overrides the cache's time source. Test use only.
func (c *DedupeCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func dedupeKey(itemID, locationID string, available int) string {
	return fmt.Sprintf("%s|%s|%d", itemID, locationID, available)
}

// IsDuplicate sweeps expired entries, then checks membership.
func (c *DedupeCache) IsDuplicate(itemID, locationID string, available int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked()
	_, ok := c.entries[dedupeKey(itemID, locationID, available)]
	return ok
}

// MarkSeen records the event. The first-seen timestamp is kept on repeats so
// a retry storm cannot extend an entry's life past one TTL.
func (c *DedupeCache) MarkSeen(itemID, locationID string, available int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := dedupeKey(itemID, locationID, available)
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = c.now()
	}
}

// Len reports the current entry count after a sweep.
func (c *DedupeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked()
	return len(c.entries)
}

func (c *DedupeCache) sweepLocked() {
	cutoff := c.now().Add(-c.ttl)
	for key, firstSeen := range c.entries {
		if firstSeen.Before(cutoff) {
			delete(c.entries, key)
		}
	}
}
