package sizecache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source for TTL tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestCache[V any](t *testing.T, opts ...Option) *Cache[V] {
	t.Helper()
	c, err := New[V](opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// requireConsistent checks that the size counter equals the true sum of
// entry sizes and that the eviction selector tracks exactly the stored
// entries.
func requireConsistent[V any](t *testing.T, c *Cache[V]) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	var sum int64
	for k, e := range c.entries {
		require.Equal(t, k, e.key)
		sum += e.size
	}
	require.Equal(t, sum, c.size, "size counter drifted from entry sizes")

	switch ev := c.evict.(type) {
	case *lruEvictor[V]:
		require.Equal(t, len(c.entries), ev.order.Len())
	case *lfuEvictor[V]:
		require.Equal(t, len(c.entries), ev.h.Len())
		for i, e := range ev.h {
			require.Equal(t, i, e.index)
		}
	case *randomEvictor[V]:
		require.Equal(t, len(c.entries), len(ev.slots))
		for i, e := range ev.slots {
			require.Equal(t, i, e.index)
		}
	}
}

// jsonSize is the accounted size of an uncompressed string value.
func jsonSize(s string) int64 { return int64(len(s) + 2) }
