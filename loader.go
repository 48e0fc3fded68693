package sizecache

import (
	"context"
	"time"
)

// Loader computes a value on a cache miss.
type Loader[V any] func(ctx context.Context) (V, error)

/*
GetOrLoad returns the cached value for key, or runs load and caches its
result with ttl.

Concurrent misses on the same key share a single call to load; every
caller waits for it or for its own ctx, whichever is first. load runs
under a context detached from the caller's cancellation, so one caller
giving up does not fail the others; values from ctx are still visible. A loaded value that
cannot be cached (codec failure, oversize rejection) is still returned,
since the computation itself succeeded; the Put error is logged.
*/
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load Loader[V]) (V, error) {
	var zero V
	if err := validateKey(key); err != nil {
		return zero, err
	}
	if v, found := c.Get(key); found {
		return v, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.loads.DoChan(key, func() (any, error) {
		v, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if err := c.Put(key, v, ttl); err != nil {
			c.logger.Warn("cache loader result not stored", "key", key, "error", err)
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	}
}
