// Package reactions keeps the reactions shown on the canvas during one
// session, in the order they arrived.
package reactions

import (
	"time"

	"github.com/jai2010/CollabCanvas/internal/domain"
)

type Options struct {
	// Capacity bounds the number of kept entries, oldest evicted first.
	// Zero means unbounded.
	Capacity int

	// Window drops entries older than this on Prune. Zero keeps them all.
	Window time.Duration
}

// Entry is a reaction together with the local time it was appended.
type Entry struct {
	domain.Reaction
	Arrived time.Time
}

// List is append-only from the caller's point of view: entries are never
// reordered or deduplicated, only evicted from the front.
// It is not safe for concurrent use.
type List struct {
	opts    Options
	entries []Entry
}

func New(opts Options) *List {
	return &List{opts: opts}
}

func (l *List) Append(r domain.Reaction, arrived time.Time) {
	l.entries = append(l.entries, Entry{Reaction: r, Arrived: arrived})

	if l.opts.Capacity > 0 && len(l.entries) > l.opts.Capacity {
		l.evict(len(l.entries) - l.opts.Capacity)
	}
}

// Prune drops entries that arrived more than Window before now and returns
// how many were removed.
func (l *List) Prune(now time.Time) int {
	if l.opts.Window <= 0 {
		return 0
	}

	cutoff := now.Add(-l.opts.Window)

	n := 0
	for n < len(l.entries) && l.entries[n].Arrived.Before(cutoff) {
		n++
	}
	l.evict(n)

	return n
}

func (l *List) evict(n int) {
	if n <= 0 {
		return
	}

	// copy down so the backing array does not grow without bound
	k := copy(l.entries, l.entries[n:])
	clear(l.entries[k:])
	l.entries = l.entries[:k]
}

func (l *List) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)

	return out
}

func (l *List) Len() int {
	return len(l.entries)
}

func (l *List) Reset() {
	l.entries = nil
}
