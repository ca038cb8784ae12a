// Package search keeps search-as-you-type consistent: keystrokes are
// debounced and only the newest query may publish its result.
package search

import (
	"context"
	"errors"
	"sync"
)

// ErrStale is returned when a newer query superseded the one being answered.
var ErrStale = errors.New("search: superseded by a newer query")

// Sequencer tags outgoing queries with increasing numbers and tells callers
// whether a response still belongs to the latest one.
type Sequencer struct {
	mu        sync.Mutex
	latest    uint64
	cancel    context.CancelFunc
	cancelSeq uint64
}

// Begin issues the next sequence number. The returned context is cancelled
// as soon as a newer query begins, or by Finish.
func (s *Sequencer) Begin(ctx context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.latest++
	s.cancel = cancel
	s.cancelSeq = s.latest
	return ctx, s.latest
}

// Finish releases the context issued by Begin for seq once its query has
// returned. Finishing an already superseded seq is a no-op.
func (s *Sequencer) Finish(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil && s.cancelSeq == seq {
		s.cancel()
		s.cancel = nil
	}
}

// Admit registers a sequence number issued by a remote caller. It reports
// false when a higher number was already seen.
func (s *Sequencer) Admit(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.latest {
		return false
	}
	s.latest = seq
	return true
}

// Latest reports whether seq is still the newest query.
func (s *Sequencer) Latest(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq == s.latest
}

// Accept runs apply only when seq is still the newest query. The check and
// the apply happen under one lock so a newer result cannot interleave.
func (s *Sequencer) Accept(seq uint64, apply func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.latest {
		return false
	}
	if apply != nil {
		apply()
	}
	return true
}
