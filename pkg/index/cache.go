package index

import (
	"sync/atomic"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of memoized prefix queries.
const DefaultCacheSize = 1024

// hit is a record together with the key it was inserted under.
type hit struct {
	key    string
	record *TopicRecord
}

// prefixCache memoizes prefix lookups by lowercased prefix.
// The underlying LRU is safe for concurrent use.
type prefixCache struct {
	lru    *lru.Cache[string, []hit]
	hits   atomic.Uint64
	misses atomic.Uint64
}

func newPrefixCache(size int) *prefixCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	l, err := lru.New[string, []hit](size)
	if err != nil {
		// only reachable with a non-positive size
		log.Errorf("Failed to create prefix cache of size %d: %v", size, err)
		l, _ = lru.New[string, []hit](DefaultCacheSize)
	}
	return &prefixCache{lru: l}
}

func (c *prefixCache) get(prefix string) ([]hit, bool) {
	hits, ok := c.lru.Get(prefix)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return hits, ok
}

func (c *prefixCache) add(prefix string, hits []hit) {
	c.lru.Add(prefix, hits)
}

func (c *prefixCache) purge() {
	c.lru.Purge()
}

func (c *prefixCache) len() int {
	return c.lru.Len()
}
