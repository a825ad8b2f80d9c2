// Package icons maintains the set of icon codes accepted inside display
// messages. The authoritative source is the upstream registry endpoint;
// this package caches its response as an immutable snapshot that many
// validations can read concurrently while a refresh swaps in a replacement.
package icons

import (
	"sort"
	"strings"
	"time"
)

// Snapshot is an immutable point-in-time copy of the registry contents.
// A Snapshot is never mutated after construction; the Registry replaces the
// whole value on refresh so readers cannot observe a partial set.
type Snapshot struct {
	codes     map[string]bool
	fetchedAt time.Time
}

// NewSnapshot builds a snapshot from raw registry codes. Codes may carry the
// upstream token delimiters (":sun:") or be bare ("sun"); both normalize to
// the bare lowercase form.
func NewSnapshot(codes []string, fetchedAt time.Time) *Snapshot {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		c = strings.ToLower(strings.Trim(strings.TrimSpace(c), ":"))
		if c == "" {
			continue
		}
		set[c] = true
	}
	return &Snapshot{codes: set, fetchedAt: fetchedAt}
}

// Has reports whether the bare icon code is present in the snapshot.
func (s *Snapshot) Has(code string) bool {
	return s.codes[strings.ToLower(code)]
}

// Codes returns the bare icon codes in sorted order.
func (s *Snapshot) Codes() []string {
	out := make([]string, 0, len(s.codes))
	for c := range s.codes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of icon codes in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.codes)
}

// FetchedAt returns when the snapshot was fetched from the upstream source.
func (s *Snapshot) FetchedAt() time.Time {
	return s.fetchedAt
}

// Age returns how old the snapshot is.
func (s *Snapshot) Age() time.Duration {
	return time.Since(s.fetchedAt)
}
