package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stock-repair-service/services"
)

func TestDedupeCache_MarkThenDuplicate(t *testing.T) {
	cache := services.NewDedupeCache(5 * time.Minute)

	assert.False(t, cache.IsDuplicate("111", "222", -3))
	cache.MarkSeen("111", "222", -3)
	assert.True(t, cache.IsDuplicate("111", "222", -3))
}

func TestDedupeCache_KeyIncludesAvailable(t *testing.T) {
	cache := services.NewDedupeCache(5 * time.Minute)
	cache.MarkSeen("111", "222", -3)

	// Same item+location with a different quantity is new information.
	assert.False(t, cache.IsDuplicate("111", "222", -4))
	assert.False(t, cache.IsDuplicate("111", "222", 0))
	assert.False(t, cache.IsDuplicate("111", "333", -3))
	assert.False(t, cache.IsDuplicate("999", "222", -3))
}

func TestDedupeCache_EntriesExpire(t *testing.T) {
	cache := services.NewDedupeCache(5 * time.Minute)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.SetClock(func() time.Time { return now })

	cache.MarkSeen("111", "222", -3)
	assert.True(t, cache.IsDuplicate("111", "222", -3))

	now = now.Add(4 * time.Minute)
	assert.True(t, cache.IsDuplicate("111", "222", -3))

	now = now.Add(2 * time.Minute)
	assert.False(t, cache.IsDuplicate("111", "222", -3))
	assert.Equal(t, 0, cache.Len())
}

func TestDedupeCache_RetriesDoNotExtendLife(t *testing.T) {
	cache := services.NewDedupeCache(5 * time.Minute)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.SetClock(func() time.Time { return now })

	cache.MarkSeen("111", "222", -3)

	// A retry storm re-marking the entry keeps the first-seen timestamp.
	now = now.Add(4 * time.Minute)
	cache.MarkSeen("111", "222", -3)

	now = now.Add(2 * time.Minute)
	assert.False(t, cache.IsDuplicate("111", "222", -3))
}

func TestDedupeCache_LenSweeps(t *testing.T) {
	cache := services.NewDedupeCache(time.Minute)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.SetClock(func() time.Time { return now })

	cache.MarkSeen("1", "1", 0)
	cache.MarkSeen("2", "2", 0)
	assert.Equal(t, 2, cache.Len())

	now = now.Add(30 * time.Second)
	cache.MarkSeen("3", "3", 0)
	assert.Equal(t, 3, cache.Len())

	now = now.Add(45 * time.Second)
	assert.Equal(t, 1, cache.Len())
}
