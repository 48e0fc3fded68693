package sizecache

import "time"

/*
startJanitor launches the background expiry sweep.

================================================================================
ROLE IN CACHE LIFECYCLE
================================================================================

Expired entries are removed in three places:

1. Get       -> an expired hit is removed and counted as a miss.
2. Put       -> expired entries are swept before any live entry is
                evicted for room.
3. Janitor   -> every interval, DeleteExpired() removes the rest, so
                entries that are never read again do not hold capacity.

All three count Expirations, never Evictions.

================================================================================
EXECUTION MODEL
================================================================================

- interval <= 0 or TTL enforcement off -> no goroutine is started.
- otherwise a time.Ticker drives DeleteExpired() until Close().

DeleteExpired() takes the same lock as Get/Put, so a sweep is one more
linearizable operation.
*/
func (c *Cache[V]) startJanitor() {
	if c.interval <= 0 || !c.enforceTTL {
		return
	}

	ticker := time.NewTicker(c.interval)

	go func() {
		for {
			select {
			case <-ticker.C:
				c.DeleteExpired()
			case <-c.stopChan:
				ticker.Stop()
				return
			}
		}
	}()
}

// Close stops the janitor. It is safe to call more than once, and the
// cache stays usable afterwards; only background expiry stops.
func (c *Cache[V]) Close() error {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
	return nil
}
