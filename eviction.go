package sizecache

import (
	"container/heap"
	"container/list"
	"fmt"
	"math/rand/v2"
	"strings"
)

// Policy selects the eviction victim when a Put needs room.
type Policy string

const (
	// LRU evicts the entry with the oldest access.
	LRU Policy = "lru"
	// LFU evicts the entry with the fewest successful Gets; ties go to
	// the entry accessed longest ago.
	LFU Policy = "lfu"
	// Random evicts a uniformly chosen entry.
	Random Policy = "random"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case LRU, LFU, Random:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown eviction policy %q", ErrInvalidConfig, s)
	}
}

/*
evictor is the Eviction Selector.

The Cache notifies it of every insertion (add), successful Get (touch)
and removal (remove), and asks it for a victim when over capacity.
All calls happen under the Cache lock, so implementations hold no lock
of their own. victim is only called on a non-empty cache and must not
remove the entry itself; the Cache does that through removeEntry.
*/
type evictor[V any] interface {
	add(e *entry[V])
	touch(e *entry[V])
	remove(e *entry[V])
	victim() *entry[V]
	reset()
}

func newEvictor[V any](p Policy, rng *rand.Rand) evictor[V] {
	switch p {
	case LFU:
		return &lfuEvictor[V]{}
	case Random:
		return &randomEvictor[V]{rng: rng}
	default:
		return &lruEvictor[V]{order: list.New()}
	}
}

// lruEvictor keeps entries in access order; front is most recent.
type lruEvictor[V any] struct {
	order *list.List
}

func (l *lruEvictor[V]) add(e *entry[V]) { e.elem = l.order.PushFront(e) }

func (l *lruEvictor[V]) touch(e *entry[V]) { l.order.MoveToFront(e.elem) }

func (l *lruEvictor[V]) remove(e *entry[V]) {
	l.order.Remove(e.elem)
	e.elem = nil
}

func (l *lruEvictor[V]) victim() *entry[V] {
	back := l.order.Back()
	if back == nil {
		return nil
	}
	return back.Value.(*entry[V])
}

func (l *lruEvictor[V]) reset() { l.order.Init() }

// lfuHeap is a min-heap on (accessCount, seq).
type lfuHeap[V any] []*entry[V]

func (h lfuHeap[V]) Len() int { return len(h) }

func (h lfuHeap[V]) Less(i, j int) bool {
	if h[i].accessCount != h[j].accessCount {
		return h[i].accessCount < h[j].accessCount
	}
	return h[i].seq < h[j].seq
}

func (h lfuHeap[V]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *lfuHeap[V]) Push(x any) {
	e := x.(*entry[V])
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *lfuHeap[V]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

type lfuEvictor[V any] struct {
	h lfuHeap[V]
}

func (l *lfuEvictor[V]) add(e *entry[V]) { heap.Push(&l.h, e) }

func (l *lfuEvictor[V]) touch(e *entry[V]) { heap.Fix(&l.h, e.index) }

func (l *lfuEvictor[V]) remove(e *entry[V]) { heap.Remove(&l.h, e.index) }

func (l *lfuEvictor[V]) victim() *entry[V] {
	if len(l.h) == 0 {
		return nil
	}
	return l.h[0]
}

func (l *lfuEvictor[V]) reset() { l.h = nil }

// randomEvictor keeps a dense slice so a victim is one random index.
type randomEvictor[V any] struct {
	slots []*entry[V]
	rng   *rand.Rand
}

func (r *randomEvictor[V]) add(e *entry[V]) {
	e.index = len(r.slots)
	r.slots = append(r.slots, e)
}

func (r *randomEvictor[V]) touch(*entry[V]) {}

func (r *randomEvictor[V]) remove(e *entry[V]) {
	last := len(r.slots) - 1
	moved := r.slots[last]
	r.slots[e.index] = moved
	moved.index = e.index
	r.slots[last] = nil
	r.slots = r.slots[:last]
	e.index = -1
}

func (r *randomEvictor[V]) victim() *entry[V] {
	if len(r.slots) == 0 {
		return nil
	}
	return r.slots[r.rng.IntN(len(r.slots))]
}

func (r *randomEvictor[V]) reset() { r.slots = nil }

// evictOne removes the selector's victim. Caller holds c.mu.
func (c *Cache[V]) evictOne() bool {
	e := c.evict.victim()
	if e == nil {
		return false
	}
	c.removeEntry(e)
	c.stats.Evictions++
	c.logger.Debug("cache eviction",
		"key", e.key,
		"size", e.size,
		"policy", string(c.policy),
	)
	return true
}

// removeEntry drops e from the map, the selector and the size counter.
// Caller holds c.mu.
func (c *Cache[V]) removeEntry(e *entry[V]) {
	c.evict.remove(e)
	delete(c.entries, e.key)
	c.size -= e.size
}
