package icons

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/glowsign/display-app/internal/metrics"
)

// ErrUnavailable is returned when the upstream registry cannot be reached
// and no usable snapshot exists anywhere. Callers map it to their
// server-error path, not to a validation failure.
var ErrUnavailable = errors.New("icons: registry unavailable and no cached snapshot")

// Fetcher retrieves the raw icon list from the upstream source.
type Fetcher interface {
	Fetch(ctx context.Context) ([]string, error)
}

// RegistryConfig holds tunable parameters for the icon registry.
type RegistryConfig struct {
	// Freshness is how long a snapshot is served without a refresh.
	Freshness time.Duration
}

// DefaultRegistryConfig returns sensible production defaults.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		Freshness: 5 * time.Minute,
	}
}

// Registry caches the upstream icon list as an atomically swapped snapshot.
// Reads are lock-free; only a refresh takes the mutex, and concurrent
// readers keep seeing the previous snapshot until the swap.
type Registry struct {
	fetcher Fetcher
	cache   *Cache // optional Redis mirror, may be nil
	config  RegistryConfig

	snap      atomic.Pointer[Snapshot]
	refreshMu sync.Mutex // serializes refreshes, never held by readers
}

// NewRegistry creates a registry around the given fetcher. cache may be nil
// to disable the Redis mirror.
func NewRegistry(fetcher Fetcher, cache *Cache, config RegistryConfig) *Registry {
	return &Registry{fetcher: fetcher, cache: cache, config: config}
}

// Current returns a snapshot suitable for validating one message.
//
// A fresh snapshot is returned directly. A stale snapshot triggers a
// refresh; if the refresh fails the stale snapshot is still returned with
// degraded=true so validation proceeds on the last known-good list. Current
// fails with ErrUnavailable only when neither memory, upstream, nor the
// Redis mirror can produce a snapshot.
func (r *Registry) Current(ctx context.Context) (snap *Snapshot, degraded bool, err error) {
	if s := r.snap.Load(); s != nil && s.Age() < r.config.Freshness {
		return s, false, nil
	}

	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	// Another caller may have refreshed while we waited on the mutex.
	if s := r.snap.Load(); s != nil && s.Age() < r.config.Freshness {
		return s, false, nil
	}

	if s, err := r.refresh(ctx); err == nil {
		return s, false, nil
	} else {
		log.Printf("[icons] refresh failed: %v", err)
	}

	// Refresh failed: fall back to the last known-good snapshot.
	if s := r.snap.Load(); s != nil {
		metrics.RegistryFallbacks.Inc()
		return s, true, nil
	}

	// No snapshot yet. Try the Redis mirror before giving up.
	if r.cache != nil {
		codes, fetchedAt, cerr := r.cache.Load(ctx)
		if cerr != nil {
			log.Printf("[icons] warm cache load failed: %v", cerr)
		} else if codes != nil {
			s := NewSnapshot(codes, fetchedAt)
			r.snap.Store(s)
			metrics.RegistryFallbacks.Inc()
			log.Printf("[icons] serving %d codes from warm cache (fetched %s ago)",
				s.Len(), s.Age().Round(time.Second))
			return s, true, nil
		}
	}

	return nil, false, ErrUnavailable
}

// Refresh forces an upstream fetch regardless of snapshot age.
func (r *Registry) Refresh(ctx context.Context) error {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()
	_, err := r.refresh(ctx)
	return err
}

// refresh fetches from upstream and swaps the snapshot. Caller must hold
// refreshMu.
func (r *Registry) refresh(ctx context.Context) (*Snapshot, error) {
	codes, err := r.fetcher.Fetch(ctx)
	if err != nil {
		metrics.RegistryRefreshes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("icons: refresh: %w", err)
	}

	s := NewSnapshot(codes, time.Now())
	r.snap.Store(s)

	metrics.RegistryRefreshes.WithLabelValues("ok").Inc()
	metrics.SnapshotSize.Set(float64(s.Len()))

	if r.cache != nil {
		// Best effort: a mirror failure must not fail the refresh.
		if cerr := r.cache.Store(ctx, codes, s.FetchedAt()); cerr != nil {
			log.Printf("[icons] warm cache store failed: %v", cerr)
		}
	}

	return s, nil
}
