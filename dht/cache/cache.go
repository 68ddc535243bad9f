// Package cache provides the node's reply idempotence cache: a
// bounded mapping from a request's wire frame id to its already-
// computed reply bytes, so a retransmitted request (the transport
// layer retransmits identical bytes on timeout, see dht/transport)
// gets the exact same answer replayed rather than re-executed.
// Grounded on the original's mini_moka-backed response cache
// (original_source's dht/src/server/mod.rs), reimplemented on top of
// the teacher's own patrickmn/go-cache dependency.
package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultTTL is the idle-time window (CACHE_TTL) an entry survives
// without being read again before it is evicted.
const DefaultTTL = 1 * time.Second

// DefaultCacheFraction is CACHE_FRACTION, the share of a node's total
// memory budget set aside for cached replies.
const DefaultCacheFraction = 0.1

// Cache is a byte-weighted, idle-time-evicting store of serialized
// replies keyed by request frame id.
type Cache struct {
	mu       sync.Mutex
	backing  *gocache.Cache
	ttl      time.Duration
	capacity uint64
	used     uint64
}

// New creates a cache holding at most capacityBytes worth of key+value
// weight, evicting entries idle for longer than ttl.
func New(capacityBytes uint64, ttl time.Duration) *Cache {
	c := &Cache{capacity: capacityBytes, ttl: ttl}
	c.backing = gocache.New(ttl, ttl*2)
	c.backing.OnEvicted(func(key string, value interface{}) {
		c.mu.Lock()
		c.used -= weight(key, value.([]byte))
		c.mu.Unlock()
	})
	return c
}

func weight(key string, value []byte) uint64 {
	return uint64(len(key) + len(value))
}

// Get returns the cached reply for id, if present, refreshing its
// idle-expiry on the way out — a hit extends the entry's life by
// another ttl, which is what makes this idle-time eviction rather than
// fixed absolute-time expiry.
func (c *Cache) Get(id []byte) ([]byte, bool) {
	key := string(id)

	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.backing.Get(key)
	if !ok {
		return nil, false
	}
	value := v.([]byte)
	c.backing.Set(key, value, c.ttl)
	return value, true
}

// Put inserts reply under id, unless doing so would exceed either the
// cache's own byte budget or the node's overall memory budget, in
// which case it is a silent no-op: an uncached reply is simply
// recomputed in full on retransmission rather than replayed.
//
// storeUsed is the caller's current store usage and maxMemBytes its
// total memory budget — mirroring original_source's cache_reply, which
// gates insertion on get_current_memory_usage() + reply_size <=
// max_mem rather than trusting the cache's own fraction cap alone.
func (c *Cache) Put(id []byte, reply []byte, storeUsed uint64, maxMemBytes uint64) {
	key := string(id)
	w := weight(key, reply)

	c.mu.Lock()
	defer c.mu.Unlock()

	var existingWeight uint64
	if existing, ok := c.backing.Get(key); ok {
		existingWeight = weight(key, existing.([]byte))
	}

	projectedUsed := c.used - existingWeight + w
	if projectedUsed > c.capacity {
		return
	}
	if storeUsed+projectedUsed > maxMemBytes {
		return
	}

	c.backing.Set(key, reply, c.ttl)
	c.used = projectedUsed
}

// Used reports the cache's current byte weight.
func (c *Cache) Used() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}
