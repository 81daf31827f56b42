package schemacache

import (
	"container/list"
	"sort"
	"sync"
	"time"

	"github.com/tuannguyen/text2sql/internal/config"
	"github.com/tuannguyen/text2sql/internal/logging"
)

// Cache is a TTL plus LRU cache for table schemas. Entries expire lazily
// on read; the least recently used entry is evicted when an insert would
// exceed capacity. Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List
	ttl      time.Duration
	capacity int
	now      func() time.Time
	logger   *logging.Logger
}

type cacheEntry struct {
	key      string
	schema   *TableSchema
	storedAt time.Time
}

// Stats is a point-in-time snapshot of cache contents
type Stats struct {
	Count    int
	Capacity int
	Keys     []string
}

// New creates a cache from configuration
func New(cfg config.SchemaCacheConfig, logger *logging.Logger) *Cache {
	return &Cache{
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		ttl:      cfg.TTL,
		capacity: cfg.Capacity,
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock replaces the cache's time source. Intended for tests.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = now
}

// Get returns the cached schema for a table, or nil on a miss. An expired
// entry is removed and reported as a miss.
func (c *Cache) Get(table string) *TableSchema {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[table]
	if !ok {
		return nil
	}

	entry := elem.Value.(*cacheEntry)

	if c.now().Sub(entry.storedAt) > c.ttl {
		c.order.Remove(elem)
		delete(c.entries, table)

		if c.logger != nil {
			c.logger.WithField("table", table).Debug("schema cache entry expired")
		}

		return nil
	}

	c.order.MoveToFront(elem)

	return entry.schema
}

// GetMultiple returns the cached schemas for the given tables plus the
// names that missed, preserving input order in both results
func (c *Cache) GetMultiple(tables []string) ([]*TableSchema, []string) {
	var (
		hits   []*TableSchema
		misses []string
	)

	for _, table := range tables {
		if schema := c.Get(table); schema != nil {
			hits = append(hits, schema)
		} else {
			misses = append(misses, table)
		}
	}

	return hits, misses
}

// Set stores a schema, refreshing its TTL. Evicts the least recently used
// entry when the cache is full.
func (c *Cache) Set(table string, schema *TableSchema) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[table]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.schema = schema
		entry.storedAt = c.now()
		c.order.MoveToFront(elem)

		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			evicted := oldest.Value.(*cacheEntry)
			c.order.Remove(oldest)
			delete(c.entries, evicted.key)

			if c.logger != nil {
				c.logger.WithField("table", evicted.key).Debug("schema cache evicted entry")
			}
		}
	}

	elem := c.order.PushFront(&cacheEntry{
		key:      table,
		schema:   schema,
		storedAt: c.now(),
	})
	c.entries[table] = elem
}

// Invalidate removes one table's entry. Returns whether it was present.
func (c *Cache) Invalidate(table string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[table]
	if !ok {
		return false
	}

	c.order.Remove(elem)
	delete(c.entries, table)

	return true
}

// Clear removes every entry
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Stats reports current cache contents. Keys are sorted for stable output;
// expired entries still present are counted until a Get removes them.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return Stats{
		Count:    len(c.entries),
		Capacity: c.capacity,
		Keys:     keys,
	}
}
