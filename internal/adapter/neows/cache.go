package neows

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/neo-approach-service/internal/domain"
	"github.com/couchcryptid/neo-approach-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// CachedRepository wraps a Repository with an in-memory LRU cache whose
// entries expire after a TTL, so refreshed orbit solutions reach later scans.
// Cached objects share their approach slices with callers, which must treat
// them as read-only (domain.Rank does).
type CachedRepository struct {
	inner   domain.Repository
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedRepository creates a cache decorator around a repository. A ttl of
// zero keeps entries until they are evicted.
func NewCachedRepository(inner domain.Repository, maxEntries int, ttl time.Duration, metrics *observability.Metrics) *CachedRepository {
	return &CachedRepository{
		inner:   inner,
		cache:   newLRUCache(maxEntries, ttl, clockwork.NewRealClock()),
		metrics: metrics,
	}
}

func (c *CachedRepository) FetchByID(ctx context.Context, id string) (domain.NearEarthObject, error) {
	if neo, ok := c.cache.get(id); ok {
		c.metrics.FetchCache.WithLabelValues("hit").Inc()
		return neo, nil
	}
	c.metrics.FetchCache.WithLabelValues("miss").Inc()

	neo, err := c.inner.FetchByID(ctx, id)
	if err != nil {
		return neo, err
	}
	// Failures are never cached so the next scan retries them.
	c.cache.put(id, neo)
	return neo, nil
}

// lruCache is a thread-safe LRU cache of objects keyed by NeoWs ID. Entries
// older than ttl are dropped on lookup.
type lruCache struct {
	maxEntries int
	ttl        time.Duration // zero disables expiry
	clock      clockwork.Clock
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key       string
	value     domain.NearEarthObject
	expiresAt time.Time // zero when ttl is disabled
	prev      *entry
	next      *entry
}

func newLRUCache(maxEntries int, ttl time.Duration, clock clockwork.Clock) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.NearEarthObject, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.NearEarthObject{}, false
	}
	if c.expired(e) {
		delete(c.entries, key)
		c.remove(e)
		return domain.NearEarthObject{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.NearEarthObject) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = c.deadline()
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expiresAt: c.deadline()}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) deadline() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return c.clock.Now().Add(c.ttl)
}

func (c *lruCache) expired(e *entry) bool {
	return !e.expiresAt.IsZero() && !c.clock.Now().Before(e.expiresAt)
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
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
