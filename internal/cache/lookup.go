// Package cache implements the two cache patterns named in spec.md
// §4.6/§4.8: a plain lookup cache backed by an LRU or a non-evicting
// map, and a merge cache that accumulates per-key deltas and flushes
// them against internal/store with a two-phase conditional commit.
//
// Grounded on original_source/backend/merge_lookup_impl.h; the LRU
// variant wraps github.com/hashicorp/golang-lru/v2, the same generic
// LRU the rest of the corpus reaches for whenever it needs a bounded
// in-memory cache in front of a slower backing store.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Lookup is Key -> Value?, populated on miss by fill. It never writes
// back to the store; it exists purely to avoid repeated store round
// trips for the same key within a process.
type Lookup[K comparable, V any] struct {
	fill   func(K) (V, bool)
	lru    *lru.Cache[K, lookupEntry[V]]
	memory map[K]lookupEntry[V] // used when evict=false, the "memory" cache variant
	evict  bool
}

type lookupEntry[V any] struct {
	value V
	found bool
}

// NewLookup builds a Lookup cache. capacity <= 0 selects the
// non-evicting "memory" cache variant named in spec.md §4.6: entries
// are kept until explicitly removed by the scheduler, never by an LRU
// policy, even past nominal capacity.
func NewLookup[K comparable, V any](capacity int, fill func(K) (V, bool)) *Lookup[K, V] {
	if capacity <= 0 {
		return &Lookup[K, V]{fill: fill, memory: make(map[K]lookupEntry[V])}
	}
	l, err := lru.New[K, lookupEntry[V]](capacity)
	if err != nil {
		// Only returned by golang-lru for capacity <= 0, already excluded above.
		panic(err)
	}
	return &Lookup[K, V]{fill: fill, lru: l, evict: true}
}

// Get returns the cached value for key, filling from the backing
// source on miss. found mirrors whether fill located anything at all
// (a negative result is itself cached, so repeated misses don't
// re-hit the store).
func (c *Lookup[K, V]) Get(key K) (value V, found bool) {
	if c.evict {
		if e, ok := c.lru.Get(key); ok {
			return e.value, e.found
		}
	} else {
		if e, ok := c.memory[key]; ok {
			return e.value, e.found
		}
	}
	v, ok := c.fill(key)
	entry := lookupEntry[V]{value: v, found: ok}
	if c.evict {
		c.lru.Add(key, entry)
	} else {
		c.memory[key] = entry
	}
	return v, ok
}

// Remove explicitly evicts key, the only removal path for the
// non-evicting memory variant.
func (c *Lookup[K, V]) Remove(key K) {
	if c.evict {
		c.lru.Remove(key)
	} else {
		delete(c.memory, key)
	}
}

// Len reports the number of cached entries (including cached misses).
func (c *Lookup[K, V]) Len() int {
	if c.evict {
		return c.lru.Len()
	}
	return len(c.memory)
}
