package display

import "sync"

// DefaultRecentSize is the number of displayed messages retained in memory.
const DefaultRecentSize = 10

// RecentEntry is one displayed message kept in the renderer's history ring.
type RecentEntry struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Source string `json:"source"`
	Ts     int64  `json:"ts"`
}

// Recent stores the last N displayed messages in memory. It is
// goroutine-safe and uses a ring buffer internally.
type Recent struct {
	mu    sync.RWMutex
	items []RecentEntry
	pos   int
	count int
}

// NewRecent creates an empty history ring with the given capacity. A
// non-positive capacity falls back to DefaultRecentSize.
func NewRecent(capacity int) *Recent {
	if capacity <= 0 {
		capacity = DefaultRecentSize
	}
	return &Recent{items: make([]RecentEntry, capacity)}
}

// Add appends an entry. If the ring is full, the oldest entry is
// overwritten.
func (r *Recent) Add(entry RecentEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.pos] = entry
	r.pos = (r.pos + 1) % len(r.items)
	if r.count < len(r.items) {
		r.count++
	}
}

// All returns the retained entries in chronological order (oldest first).
func (r *Recent) All() []RecentEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]RecentEntry, r.count)
	// The oldest entry is at position (pos - count) mod capacity.
	start := (r.pos - r.count + len(r.items)) % len(r.items)
	for i := 0; i < r.count; i++ {
		result[i] = r.items[(start+i)%len(r.items)]
	}
	return result
}
