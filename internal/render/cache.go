package render

import (
	"sync"
	"time"
)

// Cache keeps rendered images for a short TTL. Callers get their own copy of the bytes.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

// maxCacheEntries bounds the cache; the oldest entry goes first when it is full.
const maxCacheEntries = 256

type cacheEntry struct {
	createdAt time.Time
	image     []byte
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, entries: map[string]cacheEntry{}, now: time.Now}
}

func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.createdAt.Add(c.ttl)) {
		delete(c.entries, key)
		return nil, false
	}
	img := make([]byte, len(entry.image))
	copy(img, entry.image)
	return img, true
}

func (c *Cache) Set(key string, img []byte) {
	cp := make([]byte, len(img))
	copy(cp, img)
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.sweep(now)
	if _, ok := c.entries[key]; !ok && len(c.entries) >= maxCacheEntries {
		c.evictOldest()
	}
	c.entries[key] = cacheEntry{createdAt: now, image: cp}
}

// sweep drops expired entries. c.mu must be held.
func (c *Cache) sweep(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.createdAt.Add(c.ttl)) {
			delete(c.entries, k)
		}
	}
}

func (c *Cache) evictOldest() {
	var oldest string
	var at time.Time
	for k, e := range c.entries {
		if oldest == "" || e.createdAt.Before(at) {
			oldest, at = k, e.createdAt
		}
	}
	delete(c.entries, oldest)
}

// GetOrRender returns the cached image for key or renders and stores it.
func (c *Cache) GetOrRender(key string, fn func() ([]byte, error)) ([]byte, error) {
	if img, ok := c.Get(key); ok {
		return img, nil
	}
	img, err := fn()
	if err != nil {
		return nil, err
	}
	c.Set(key, img)
	return img, nil
}
