package s3

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/nexrad-data-etl/internal/observability"
)

// Downloader is the object-fetch surface the cache decorates.
type Downloader interface {
	Download(ctx context.Context, bucket, key string) ([]byte, error)
}

// CachedDownloader wraps a Downloader with an in-memory LRU cache. Chunk
// objects are immutable once uploaded, so cached bodies never go stale;
// the cache only bounds memory when a feed re-reads recent chunks after
// a volume rollover.
type CachedDownloader struct {
	inner   Downloader
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedDownloader creates a cache decorator around a downloader.
func NewCachedDownloader(inner Downloader, maxEntries int, metrics *observability.Metrics) *CachedDownloader {
	return &CachedDownloader{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedDownloader) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	cacheKey := fmt.Sprintf("%s/%s", bucket, key)
	if data, ok := c.cache.get(cacheKey); ok {
		c.metrics.SourceCache.WithLabelValues("hit").Inc()
		return data, nil
	}
	c.metrics.SourceCache.WithLabelValues("miss").Inc()

	data, err := c.inner.Download(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	c.cache.put(cacheKey, data)
	return data, nil
}

// lruCache is a simple thread-safe LRU cache for object bodies.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []byte
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
