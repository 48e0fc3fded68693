package sizecache

import (
	"container/list"
	"time"
)

/*
entry is a single cache record owned by a Cache.

STORED REPRESENTATION

payload is an owned copy of the value, never the caller's V:

- compressed == false -> payload is the JSON encoding of V.
- compressed == true  -> payload is the codec output of that encoding.

size is len(payload), the byte size used for capacity accounting. The
payload is never modified after insertion.

EXPIRATION

ttl == 0 means the entry never expires. Otherwise expiresAt is
createdAt + ttl and the entry is expired once now is after expiresAt.

POLICY BOOKKEEPING

Each entry carries the handles used by the eviction selector so that
removal never needs a search:

elem  -> position in the LRU access list
index -> position in the LFU heap, or slot in the RANDOM slice
seq   -> logical access clock, strictly increasing per Cache; it orders
         entries whose wall-clock timestamps are equal
*/
type entry[V any] struct {
	key        string
	payload    []byte
	compressed bool

	createdAt      time.Time
	ttl            time.Duration
	expiresAt      time.Time
	accessCount    uint64
	lastAccessedAt time.Time
	size           int64

	elem  *list.Element
	index int
	seq   uint64
}

func (e *entry[V]) expired(now time.Time) bool {
	if e.ttl <= 0 {
		return false
	}
	return now.After(e.expiresAt)
}

// EntryInfo is a read-only snapshot of an entry's metadata.
type EntryInfo struct {
	Key            string
	CreatedAt      time.Time
	TTL            time.Duration
	ExpiresAt      time.Time // zero when TTL is 0
	AccessCount    uint64
	LastAccessedAt time.Time
	SizeBytes      int64
	Compressed     bool
}

func (e *entry[V]) info() EntryInfo {
	return EntryInfo{
		Key:            e.key,
		CreatedAt:      e.createdAt,
		TTL:            e.ttl,
		ExpiresAt:      e.expiresAt,
		AccessCount:    e.accessCount,
		LastAccessedAt: e.lastAccessedAt,
		SizeBytes:      e.size,
		Compressed:     e.compressed,
	}
}
