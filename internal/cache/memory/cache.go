package memory

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultCleanupInterval = 5 * time.Minute
	DefaultMaxEntries      = 1000
)

type Config struct {
	// CleanupInterval - как часто вычищать просроченное
	CleanupInterval time.Duration
	// MaxEntries - потолок записей, при переполнении вытесняется та,
	// что истекает раньше всех
	MaxEntries int
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Cache - in-memory кеш ответов источников с TTL и ограничением по размеру
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	maxEntries int

	stopOnce sync.Once
	done     chan struct{}
}

func New() *Cache {
	return NewWithConfig(context.Background(), Config{})
}

// NewWithConfig запускает фоновую чистку, которая живёт до Stop или отмены ctx
func NewWithConfig(ctx context.Context, cfg Config) *Cache {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}

	c := &Cache{
		entries:    make(map[string]entry),
		maxEntries: cfg.MaxEntries,
		done:       make(chan struct{}),
	}
	go c.janitor(ctx, cfg.CleanupInterval)
	return c
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || e.expired(time.Now()) {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	// своя копия: вызывающий может переиспользовать буфер
	buf := make([]byte, len(value))
	copy(buf, value)
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[key] = entry{value: buf, expiresAt: now.Add(ttl)}
}

func (c *Cache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len - число записей, включая ещё не вычищенные просроченные
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// evictLocked освобождает место под новую запись. Сначала выкидывает
// просроченные, если их нет - запись с ближайшим сроком.
func (c *Cache) evictLocked(now time.Time) {
	if c.purgeLocked(now) > 0 {
		return
	}

	var (
		victim string
		soon   time.Time
	)
	for k, e := range c.entries {
		if victim == "" || e.expiresAt.Before(soon) {
			victim, soon = k, e.expiresAt
		}
	}
	delete(c.entries, victim)
}

func (c *Cache) purgeLocked(now time.Time) int {
	removed := 0
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *Cache) purgeExpired() {
	c.mu.Lock()
	c.purgeLocked(time.Now())
	c.mu.Unlock()
}

func (c *Cache) janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			c.purgeExpired()
		}
	}
}
