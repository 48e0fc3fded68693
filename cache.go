package sizecache

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

/*
Cache is a thread-safe, in-memory key/value store bounded by the total
byte size of its values, with:

- Pluggable eviction (LRU, LFU, Random)
- Optional value compression through a Codec
- Per-key TTL, enforced lazily and by an optional janitor
- Hit / miss / eviction / expiration statistics

================================================================================
ARCHITECTURAL OVERVIEW
================================================================================

entries -> map[string]*entry[V], O(1) lookup
evict   -> the Eviction Selector for the configured policy; keeps its
           own ordering structure (list, heap or slice) pointing at the
           same entries
size    -> running sum of entry sizes, always equal to the true sum

Values are stored as their JSON encoding, passed through the Codec when
compression is enabled. The cache never keeps a reference to the
caller's value: later changes to a map or slice given to Put do not
reach the stored payload, and Get decodes a fresh copy on every hit. A
value whose encoding does not decode back to an equal value is rejected
with ErrCodec.

================================================================================
CONCURRENCY MODEL
================================================================================

One sync.Mutex guards entries, size, the selector and the stats as a
single unit. Every Get, Put, eviction and sweep runs inside one
critical section, so operations are linearizable and no caller ever
sees a torn size/entry state. Get takes the exclusive lock too because
it updates access bookkeeping.

Encoding and compression in Put happen before the lock is taken; they
only touch the caller's value.

================================================================================
CAPACITY
================================================================================

After a Put returns, SizeBytes() <= Capacity(), with one exception: a
single value larger than the whole capacity is admitted under
AdmitOversize (the default) and the cache holds only that entry. Use
RejectOversize to fail such writes with ErrValueTooLarge instead.
*/
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	evict   evictor[V]
	size    int64
	seq     uint64
	stats   Stats

	capacity   int64
	policy     Policy
	codec      Codec
	oversize   OversizePolicy
	enforceTTL bool
	interval   time.Duration
	logger     *slog.Logger
	now        func() time.Time

	loads singleflight.Group

	stopChan chan struct{}
	stopOnce sync.Once
}

/*
New builds a Cache from the given options.

It fails with ErrInvalidConfig when the capacity is not positive or the
eviction/oversize policy is unknown. If a cleanup interval is set and
TTL enforcement is on, a janitor goroutine is started; call Close to
stop it.
*/
func New[V any](opts ...Option) (*Cache[V], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, o.capacity)
	}
	policy, err := ParsePolicy(string(o.policy))
	if err != nil {
		return nil, err
	}
	switch o.oversize {
	case AdmitOversize, RejectOversize:
	default:
		return nil, fmt.Errorf("%w: unknown oversize policy %q", ErrInvalidConfig, o.oversize)
	}

	var rng *rand.Rand
	if o.seed != nil {
		rng = rand.New(rand.NewPCG(*o.seed, *o.seed))
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	c := &Cache[V]{
		entries:    make(map[string]*entry[V]),
		evict:      newEvictor[V](policy, rng),
		capacity:   o.capacity,
		policy:     policy,
		codec:      o.codec,
		oversize:   o.oversize,
		enforceTTL: o.enforceTTL,
		interval:   o.cleanupInterval,
		logger:     o.logger,
		now:        o.now,
		stopChan:   make(chan struct{}),
	}

	c.startJanitor()

	return c, nil
}

/*
Put inserts or replaces key.

ttl <= 0 stores the value without expiry.

BEHAVIOR:

1. Reject an invalid key (ErrInvalidKey).
2. Encode and, if enabled, compress the value, then check that it
   decodes back to an equal value. Failure returns an error wrapping
   ErrCodec and leaves the cache untouched.
3. Under RejectOversize, a value larger than the capacity fails with
   ErrValueTooLarge.
4. Under the lock: drop the previous entry for key (not an eviction),
   sweep expired entries if still short of room, then evict victims
   until the new value fits or the cache is empty, and insert.
*/
func (c *Cache[V]) Put(key string, value V, ttl time.Duration) error {
	e, err := c.prepare(key, value, ttl)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.insert(e)
	return nil
}

// TryPut is Put that fails with ErrBusy instead of waiting for the lock.
func (c *Cache[V]) TryPut(key string, value V, ttl time.Duration) error {
	e, err := c.prepare(key, value, ttl)
	if err != nil {
		return err
	}

	if !c.mu.TryLock() {
		return ErrBusy
	}
	defer c.mu.Unlock()

	c.insert(e)
	return nil
}

func (c *Cache[V]) prepare(key string, value V, ttl time.Duration) (*entry[V], error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	payload, err := encodeValue(c.codec, value)
	if err != nil {
		return nil, fmt.Errorf("put %q: %w", key, err)
	}

	size := int64(len(payload))
	if size > c.capacity && c.oversize == RejectOversize {
		c.logger.Warn("cache rejected oversize value",
			"key", key,
			"size", size,
			"capacity", c.capacity,
		)
		return nil, fmt.Errorf("%w: %q is %d bytes, capacity %d", ErrValueTooLarge, key, size, c.capacity)
	}

	if ttl < 0 {
		ttl = 0
	}

	return &entry[V]{
		key:        key,
		payload:    payload,
		compressed: c.codec != nil,
		ttl:        ttl,
		size:       size,
		index:      -1,
	}, nil
}

// insert stores a prepared entry. Caller holds c.mu.
func (c *Cache[V]) insert(e *entry[V]) {
	now := c.now()

	if old, found := c.entries[e.key]; found {
		c.removeEntry(old)
	}

	if c.enforceTTL && c.size+e.size > c.capacity {
		c.deleteExpiredLocked(now)
	}

	for c.size+e.size > c.capacity && len(c.entries) > 0 {
		c.evictOne()
	}

	e.createdAt = now
	e.lastAccessedAt = now
	if e.ttl > 0 {
		e.expiresAt = now.Add(e.ttl)
	}
	e.seq = c.nextSeq()

	c.entries[e.key] = e
	c.evict.add(e)
	c.size += e.size
}

/*
Get returns the value stored under key.

RETURNS:
- (value, true)  -> key present and, with TTL enforcement on, not expired
- (zero, false)  -> key absent, expired, or invalid

An absent or expired key counts as a miss; an expired entry is removed
and also counted as an expiration. An invalid key changes nothing and
is left out of the hit/miss totals, so Hits + Misses counts only Get
calls made with a valid key.

A hit increments the entry's access count, refreshes its last access
time and, when compression is enabled, returns a freshly decoded copy.
*/
func (c *Cache[V]) Get(key string) (V, bool) {
	if validateKey(key) != nil {
		var zero V
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.getLocked(key)
}

// TryGet is Get that fails with ErrBusy instead of waiting for the lock.
func (c *Cache[V]) TryGet(key string) (V, bool, error) {
	var zero V
	if err := validateKey(key); err != nil {
		return zero, false, err
	}

	if !c.mu.TryLock() {
		return zero, false, ErrBusy
	}
	defer c.mu.Unlock()

	v, found := c.getLocked(key)
	return v, found, nil
}

func (c *Cache[V]) getLocked(key string) (V, bool) {
	var zero V

	e, found := c.entries[key]
	if !found {
		c.stats.Misses++
		return zero, false
	}

	now := c.now()
	if c.enforceTTL && e.expired(now) {
		c.removeEntry(e)
		c.stats.Expirations++
		c.stats.Misses++
		c.logger.Debug("cache expiry", "key", key, "ttl", e.ttl)
		return zero, false
	}

	v, err := decodeValue[V](c.codec, e.payload)
	if err != nil {
		// The payload is unusable; drop it so size accounting stays exact.
		c.removeEntry(e)
		c.stats.Misses++
		c.logger.Error("cache payload decode failed", "key", key, "error", err)
		return zero, false
	}

	c.stats.Hits++
	e.accessCount++
	e.lastAccessedAt = now
	e.seq = c.nextSeq()
	c.evict.touch(e)

	return v, true
}

// Delete removes key and reports whether it was present.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found {
		return false
	}
	c.removeEntry(e)
	return true
}

// Clear removes every entry. Statistics are kept.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry[V])
	c.evict.reset()
	c.size = 0
}

// Inspect returns key's metadata without counting a hit or changing
// its eviction rank. Expired entries are still reported.
func (c *Cache[V]) Inspect(key string) (EntryInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found {
		return EntryInfo{}, false
	}
	return e.info(), true
}

// Keys returns the stored keys in sorted order.
func (c *Cache[V]) Keys() []string {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.Unlock()

	sort.Strings(keys)
	return keys
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// SizeBytes is the sum of the stored entries' sizes.
func (c *Cache[V]) SizeBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *Cache[V]) Capacity() int64 { return c.capacity }

func (c *Cache[V]) Policy() Policy { return c.policy }

// Compression returns the configured codec, or nil when disabled.
func (c *Cache[V]) Compression() Codec { return c.codec }

func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// DeleteExpired removes every expired entry and returns how many were
// removed. It is a no-op when TTL enforcement is off.
func (c *Cache[V]) DeleteExpired() int {
	if !c.enforceTTL {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.deleteExpiredLocked(c.now())
}

func (c *Cache[V]) deleteExpiredLocked(now time.Time) int {
	removed := 0
	for _, e := range c.entries {
		if e.expired(now) {
			c.removeEntry(e)
			c.stats.Expirations++
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug("cache expired entries removed", "count", removed)
	}
	return removed
}

func (c *Cache[V]) nextSeq() uint64 {
	c.seq++
	return c.seq
}
