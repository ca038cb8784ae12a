package formsession

import (
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-console/internal/search"
)

const maxSequencers = 4096

type seqEntry struct {
	seq  *search.Sequencer
	used time.Time
}

// sequencers holds one search sequencer per resource and client. Entries idle
// for longer than idle are swept, and the table never exceeds limit: the
// least recently used entry makes room for a new one.
type sequencers struct {
	mu    sync.Mutex
	idle  time.Duration
	limit int
	now   func() time.Time
	items map[string]*seqEntry
}

func newSequencers(idle time.Duration, limit int, now func() time.Time) *sequencers {
	if now == nil {
		now = time.Now
	}
	if limit <= 0 {
		limit = maxSequencers
	}
	return &sequencers{idle: idle, limit: limit, now: now, items: make(map[string]*seqEntry)}
}

func (t *sequencers) get(key string) *search.Sequencer {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if e, ok := t.items[key]; ok {
		e.used = now
		return e.seq
	}
	if len(t.items) >= t.limit {
		t.evictOldest()
	}
	e := &seqEntry{seq: &search.Sequencer{}, used: now}
	t.items[key] = e
	return e.seq
}

func (t *sequencers) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for key, e := range t.items {
		if !found || e.used.Before(oldest) {
			oldestKey, oldest, found = key, e.used, true
		}
	}
	if found {
		delete(t.items, oldestKey)
	}
}

// sweep drops idle entries and returns how many were removed.
func (t *sequencers) sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.idle <= 0 {
		return 0
	}
	cutoff := t.now().Add(-t.idle)
	dropped := 0
	for key, e := range t.items {
		if e.used.Before(cutoff) {
			delete(t.items, key)
			dropped++
		}
	}
	return dropped
}

func (t *sequencers) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}
