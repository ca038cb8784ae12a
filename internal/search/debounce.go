package search

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay is the pause after the last keystroke before a query fires.
const DefaultDelay = 450 * time.Millisecond

// Debouncer delays a call until Trigger has not been invoked for the delay.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

// NewDebouncer returns a Debouncer; non-positive delays fall back to DefaultDelay.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay}
}

// Trigger cancels any pending call and schedules fn.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels the pending call. It reports whether one was pending.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	d.timer = nil
	return stopped
}

// QueryFunc runs a search against the backend.
type QueryFunc[T any] func(ctx context.Context, query string) (T, error)

// Searcher debounces keystrokes and publishes only the newest query's
// outcome. Responses overtaken by a newer query are dropped.
type Searcher[T any] struct {
	ctx      context.Context
	debounce *Debouncer
	seq      Sequencer
	query    QueryFunc[T]
	publish  func(query string, result T, err error)
}

// NewSearcher wires query and publish behind a debouncer. ctx bounds every
// query issued by the searcher.
func NewSearcher[T any](ctx context.Context, delay time.Duration, query QueryFunc[T], publish func(string, T, error)) *Searcher[T] {
	return &Searcher[T]{
		ctx:      ctx,
		debounce: NewDebouncer(delay),
		query:    query,
		publish:  publish,
	}
}

// Type records a keystroke; the query runs once typing pauses.
func (s *Searcher[T]) Type(query string) {
	s.debounce.Trigger(func() {
		s.run(query)
	})
}

// Stop drops any pending keystroke.
func (s *Searcher[T]) Stop() {
	s.debounce.Stop()
}

func (s *Searcher[T]) run(query string) {
	ctx, seq := s.seq.Begin(s.ctx)
	defer s.seq.Finish(seq)
	result, err := s.query(ctx, query)
	s.seq.Accept(seq, func() {
		s.publish(query, result, err)
	})
}
