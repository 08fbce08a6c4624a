// Package cache memoizes computed results under typed keys with a fixed
// TTL. Concurrent misses on the same key share one computation, and a
// value is stored only once it is complete.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"news-hierarchy/metrics"
)

// ErrComputePanicked is returned to every caller of a computation that
// panicked.
var ErrComputePanicked = errors.New("cache compute panicked")

// Key identifies one cached result. It holds the logical query, not the
// resolved time bounds, so requests for the same window share an entry
// until it expires.
type Key struct {
	View           string
	CategoryID     uint
	HasCategory    bool
	SubcategoryID  uint
	HasSubcategory bool
	TimeFilter     string
	HidePaywall    bool
}

// String is the canonical encoding used by shared stores and the
// single-flight group.
func (k Key) String() string {
	return fmt.Sprintf("%s|c=%s|s=%s|t=%s|p=%t",
		k.View, optID(k.CategoryID, k.HasCategory), optID(k.SubcategoryID, k.HasSubcategory),
		k.TimeFilter, k.HidePaywall)
}

func optID(id uint, ok bool) string {
	if !ok {
		return "-"
	}
	return strconv.FormatUint(uint64(id), 10)
}

// Store persists values with an expiry. Get reports a miss for absent or
// expired keys.
type Store[V any] interface {
	Get(ctx context.Context, key Key) (V, bool, error)
	Set(ctx context.Context, key Key, value V, ttl time.Duration) error
}

// Cache wraps a Store with single-flight computation.
type Cache[V any] struct {
	store Store[V]
	ttl   time.Duration
	group singleflight.Group
	log   zerolog.Logger
}

// New creates a cache whose entries live for ttl.
func New[V any](store Store[V], ttl time.Duration, log zerolog.Logger) *Cache[V] {
	return &Cache[V]{store: store, ttl: ttl, log: log}
}

// TTL returns the entry lifetime.
func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}

// GetOrCompute returns the stored value for key, or runs compute once for
// all concurrent callers of the same key and stores its result. Errors
// are returned to every waiting caller and never stored.
//
// compute runs detached from the caller's cancellation, since other
// callers may be waiting on it; it should bound itself with a timeout.
// A caller whose ctx ends stops waiting without aborting the computation.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key Key, compute func(context.Context) (V, error)) (V, error) {
	if v, ok := c.get(ctx, key); ok {
		metrics.CacheLookups.WithLabelValues(key.View, "hit").Inc()
		return v, nil
	}
	metrics.CacheLookups.WithLabelValues(key.View, "miss").Inc()

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key.String(), func() (val interface{}, err error) {
		// singleflight re-panics on its own goroutine, out of reach of any
		// HTTP recovery, so a panicking compute becomes an error here
		defer func() {
			if r := recover(); r != nil {
				metrics.CacheComputes.WithLabelValues(key.View, "panic").Inc()
				c.log.Error().Interface("panic", r).Str("key", key.String()).Msg("cache compute panicked")
				val, err = nil, fmt.Errorf("%w: %v", ErrComputePanicked, r)
			}
		}()

		// a flight that finished between our miss and this call already stored it
		if v, ok := c.get(detached, key); ok {
			return v, nil
		}

		v, err := compute(detached)
		if err != nil {
			metrics.CacheComputes.WithLabelValues(key.View, "error").Inc()
			return nil, err
		}
		metrics.CacheComputes.WithLabelValues(key.View, "ok").Inc()

		if err := c.store.Set(detached, key, v, c.ttl); err != nil {
			c.log.Warn().Err(err).Str("key", key.String()).Msg("cache store failed")
		}
		return v, nil
	})

	var zero V
	select {
	case res := <-ch:
		if res.Shared {
			metrics.CacheShared.WithLabelValues(key.View).Inc()
		}
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// get treats store failures as misses; the cache is never authoritative.
func (c *Cache[V]) get(ctx context.Context, key Key) (V, bool) {
	v, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key.String()).Msg("cache lookup failed")
		var zero V
		return zero, false
	}
	return v, ok
}
