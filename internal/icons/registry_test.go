package icons

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeFetcher struct {
	mu      sync.Mutex
	codes   []string
	err     error
	fetches int
}

func (f *fakeFetcher) Fetch(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.codes, nil
}

func (f *fakeFetcher) set(codes []string, err error) {
	f.mu.Lock()
	f.codes, f.err = codes, err
	f.mu.Unlock()
}

func (f *fakeFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func TestCurrent_FreshSnapshotServedWithoutRefetch(t *testing.T) {
	fetcher := &fakeFetcher{codes: []string{":sun:", ":heart:"}}
	r := NewRegistry(fetcher, nil, RegistryConfig{Freshness: time.Hour})

	for i := 0; i < 3; i++ {
		snap, degraded, err := r.Current(context.Background())
		if err != nil {
			t.Fatalf("Current returned error: %v", err)
		}
		if degraded {
			t.Error("degraded = true with healthy fetcher")
		}
		if !snap.Has("sun") || !snap.Has("heart") || snap.Has("moon") {
			t.Errorf("snapshot contents wrong: %v", snap.Codes())
		}
	}

	if got := fetcher.fetchCount(); got != 1 {
		t.Errorf("fetches = %d, want 1 (fresh snapshot served from memory)", got)
	}
}

func TestCurrent_StaleTriggersRefresh(t *testing.T) {
	fetcher := &fakeFetcher{codes: []string{":sun:"}}
	r := NewRegistry(fetcher, nil, RegistryConfig{Freshness: 0})

	if _, _, err := r.Current(context.Background()); err != nil {
		t.Fatalf("first Current: %v", err)
	}

	fetcher.set([]string{":sun:", ":moon:"}, nil)
	snap, degraded, err := r.Current(context.Background())
	if err != nil {
		t.Fatalf("second Current: %v", err)
	}
	if degraded {
		t.Error("degraded = true after successful refresh")
	}
	if !snap.Has("moon") {
		t.Error("refresh did not pick up new codes")
	}
}

func TestCurrent_FallsBackToLastKnownGood(t *testing.T) {
	fetcher := &fakeFetcher{codes: []string{":sun:"}}
	r := NewRegistry(fetcher, nil, RegistryConfig{Freshness: 0})

	if _, _, err := r.Current(context.Background()); err != nil {
		t.Fatalf("warmup Current: %v", err)
	}

	fetcher.set(nil, errors.New("upstream down"))
	snap, degraded, err := r.Current(context.Background())
	if err != nil {
		t.Fatalf("Current = error %v, want stale fallback", err)
	}
	if !degraded {
		t.Error("degraded = false while serving a stale snapshot")
	}
	if !snap.Has("sun") {
		t.Error("stale snapshot lost its codes")
	}
}

func TestCurrent_UnavailableWithoutAnySnapshot(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("upstream down")}
	r := NewRegistry(fetcher, nil, RegistryConfig{Freshness: time.Hour})

	_, _, err := r.Current(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestCurrent_CancelledContext(t *testing.T) {
	fetcher := &fakeFetcher{codes: []string{":sun:"}}
	r := NewRegistry(fetcher, nil, RegistryConfig{Freshness: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := r.Current(ctx); err == nil {
		t.Fatal("Current succeeded with a cancelled context and no snapshot")
	}
}

func TestCurrent_ConcurrentReadersSeeConsistentSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{codes: []string{":sun:", ":heart:"}}
	r := NewRegistry(fetcher, nil, RegistryConfig{Freshness: time.Hour})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, _, err := r.Current(context.Background())
			if err != nil {
				t.Errorf("Current: %v", err)
				return
			}
			// A torn snapshot would have one code but not the other.
			if snap.Has("sun") != snap.Has("heart") {
				t.Error("observed partially populated snapshot")
			}
		}()
	}
	wg.Wait()
}

func TestRefresh_SwapsAtomically(t *testing.T) {
	fetcher := &fakeFetcher{codes: []string{":a:"}}
	r := NewRegistry(fetcher, nil, RegistryConfig{Freshness: time.Hour})

	before, _, err := r.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}

	fetcher.set([]string{":b:"}, nil)
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// The old snapshot value is unchanged; new reads see the new one.
	if !before.Has("a") || before.Has("b") {
		t.Error("refresh mutated an already-handed-out snapshot")
	}
	after, _, _ := r.Current(context.Background())
	if !after.Has("b") || after.Has("a") {
		t.Errorf("post-refresh snapshot = %v", after.Codes())
	}
}

func TestSnapshotNormalization(t *testing.T) {
	snap := NewSnapshot([]string{":Sun:", "heart", "  :ball:  ", "", ":::"}, time.Now())

	tests := []struct {
		code string
		want bool
	}{
		{"sun", true},
		{"SUN", true},
		{"heart", true},
		{"ball", true},
		{"", false},
		{"moon", false},
	}
	for _, tt := range tests {
		if got := snap.Has(tt.code); got != tt.want {
			t.Errorf("Has(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}

	if snap.Len() != 3 {
		t.Errorf("Len() = %d, want 3 (empty and blank codes dropped)", snap.Len())
	}
}

func TestCurrent_WarmCacheFallback(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	fetchedAt := time.Now().Add(-10 * time.Minute).Truncate(time.Second)
	if err := cache.Store(ctx, []string{"sun", "heart"}, fetchedAt); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	// A fresh process with the upstream down: no in-memory snapshot, the
	// registry must rebuild from the mirror.
	fetcher := &fakeFetcher{err: errors.New("registry down")}
	r := NewRegistry(fetcher, cache, RegistryConfig{Freshness: time.Hour})

	snap, degraded, err := r.Current(ctx)
	if err != nil {
		t.Fatalf("Current failed with a warm cache: %v", err)
	}
	if !degraded {
		t.Error("degraded = false for a snapshot rebuilt from the cache")
	}
	if !snap.Has("sun") || !snap.Has("heart") || snap.Len() != 2 {
		t.Errorf("snapshot contents wrong: %v", snap.Codes())
	}
	if !snap.FetchedAt().Equal(fetchedAt) {
		t.Errorf("FetchedAt = %v, want cache fetch time %v", snap.FetchedAt(), fetchedAt)
	}

	// The rebuilt snapshot is kept in memory: a read inside the freshness
	// window serves it without another upstream attempt.
	before := fetcher.fetchCount()
	if _, _, err := r.Current(ctx); err != nil {
		t.Fatalf("second Current: %v", err)
	}
	if got := fetcher.fetchCount(); got != before {
		t.Errorf("fetches = %d after warm-cache load, want %d", got, before)
	}
}
