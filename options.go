package sizecache

import (
	"log/slog"
	"time"
)

/*
Option configures a Cache at construction time.

Configuration follows the functional options pattern:

    c, err := sizecache.New[Report](
        sizecache.WithCapacity(64 << 20),
        sizecache.WithEvictionPolicy(sizecache.LFU),
        sizecache.WithCompression(codec),
    )

Nothing can be reconfigured after New returns.
*/
type Option func(*options)

// OversizePolicy decides what Put does with a single value larger than
// the whole capacity.
type OversizePolicy string

const (
	// AdmitOversize evicts everything else and stores the value anyway,
	// leaving the cache over capacity by exactly that one entry.
	AdmitOversize OversizePolicy = "admit"
	// RejectOversize fails the Put with ErrValueTooLarge.
	RejectOversize OversizePolicy = "reject"
)

type options struct {
	capacity        int64
	policy          Policy
	codec           Codec
	oversize        OversizePolicy
	enforceTTL      bool
	cleanupInterval time.Duration
	logger          *slog.Logger
	now             func() time.Time
	seed            *uint64
}

func defaultOptions() options {
	return options{
		capacity:   DefaultCapacity,
		policy:     LRU,
		oversize:   AdmitOversize,
		enforceTTL: true,
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
	}
}

// DefaultCapacity is used when WithCapacity is not given.
const DefaultCapacity = 64 << 20

// WithCapacity sets the capacity in bytes. It must be positive.
func WithCapacity(bytes int64) Option {
	return func(o *options) {
		o.capacity = bytes
	}
}

func WithEvictionPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithCompression enables compression through codec. A nil codec
// leaves compression disabled.
func WithCompression(codec Codec) Option {
	return func(o *options) {
		o.codec = codec
	}
}

func WithOversizePolicy(p OversizePolicy) Option {
	return func(o *options) {
		o.oversize = p
	}
}

/*
WithTTLEnforcement toggles TTL enforcement (default on).

When on, Get treats an entry older than its TTL as absent, removes it
and counts a miss plus an expiration; Put sweeps expired entries before
evicting live ones; the janitor may run.

When off, TTLs are recorded and visible through Inspect but never
acted upon.
*/
func WithTTLEnforcement(enabled bool) Option {
	return func(o *options) {
		o.enforceTTL = enabled
	}
}

// WithCleanupInterval starts a background sweep of expired entries every
// d. d <= 0 disables it; expiry then happens lazily on Get and Put.
func WithCleanupInterval(d time.Duration) Option {
	return func(o *options) {
		o.cleanupInterval = d
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRandomSeed makes the Random policy deterministic.
func WithRandomSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = &seed
	}
}
