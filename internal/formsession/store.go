// Package formsession serves line-item forms over JSON. Each open form is a
// session holding its own pricing engine and lookup lists.
package formsession

import (
	"context"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-console/internal/documents"
	"github.com/odyssey-erp/odyssey-console/internal/lineitems"
)

// Session is one open order or invoice form.
type Session struct {
	ID     string
	Kind   documents.Kind
	Engine *lineitems.Engine

	mu       sync.Mutex
	docID    lineitems.ID
	header   documents.Header
	failures []lineitems.LookupError
}

// Header returns the last header submitted or loaded for the form.
func (s *Session) Header() documents.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.header
}

func (s *Session) setHeader(h documents.Header) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.header = h
}

// LookupFailures returns the lookups that failed on the last load.
func (s *Session) LookupFailures() []lineitems.LookupError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]lineitems.LookupError(nil), s.failures...)
}

func (s *Session) setFailures(f []lineitems.LookupError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = f
}

// DocumentID is the backend id once the form was loaded or submitted.
func (s *Session) DocumentID() lineitems.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docID
}

func (s *Session) setDocumentID(id lineitems.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docID = id
}

type entry struct {
	session *Session
	expires time.Time
}

// Store keeps sessions in memory. A session expires after ttl without use.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
	observe  func(int)
	onSweep  []func()
}

// NewStore creates an empty store.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithNow overrides the store clock for testing.
func (s *Store) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// OnChange registers fn to receive the session count after every change.
func (s *Store) OnChange(fn func(int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observe = fn
}

// OnSweep registers fn to run after every Sweep, so related caches expire
// on the same janitor.
func (s *Store) OnSweep(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSweep = append(s.onSweep, fn)
}

// TTL returns the idle lifetime of a session.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) clock() time.Time {
	return s.now()
}

// Put adds or replaces a session.
func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = &entry{session: sess, expires: s.now().Add(s.ttl)}
	s.changed()
}

// Get returns a live session and extends its lifetime.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if !now.Before(e.expires) {
		delete(s.sessions, id)
		s.changed()
		return nil, false
	}
	e.expires = now.Add(s.ttl)
	return e.session, true
}

// Delete discards a session. It reports whether one existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	s.changed()
	return true
}

// Len returns the number of stored sessions, expired ones included until swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *Store) Sweep() int {
	dropped, hooks := s.sweep()
	for _, fn := range hooks {
		fn()
	}
	return dropped
}

func (s *Store) sweep() (int, []func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	dropped := 0
	for id, e := range s.sessions {
		if !now.Before(e.expires) {
			delete(s.sessions, id)
			dropped++
		}
	}
	if dropped > 0 {
		s.changed()
	}
	return dropped, append([]func(){}, s.onSweep...)
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Store) changed() {
	if s.observe != nil {
		s.observe(len(s.sessions))
	}
}
