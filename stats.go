package sizecache

/*
Stats is a snapshot of a Cache's counters.

- Hits        -> Get found a live entry
- Misses      -> Get found nothing, or found an expired entry
- Evictions   -> entries removed to make room for a Put
- Expirations -> entries removed because their TTL elapsed

Counters start at zero in New, are only incremented under the cache
lock and are never reset (Clear keeps them). Hits + Misses equals the
number of Get/TryGet calls made with a valid key.
*/
type Stats struct {
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	Expirations uint64
}

// HitRatio is Hits / (Hits + Misses), or 0 before the first lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
