package search

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencerOnlyLatestIsAccepted(t *testing.T) {
	var s Sequencer
	ctx1, first := s.Begin(context.Background())
	_, second := s.Begin(context.Background())

	assert.Greater(t, second, first)
	assert.ErrorIs(t, ctx1.Err(), context.Canceled)
	assert.False(t, s.Latest(first))
	assert.True(t, s.Latest(second))

	applied := false
	assert.False(t, s.Accept(first, func() { applied = true }))
	assert.False(t, applied)
	assert.True(t, s.Accept(second, func() { applied = true }))
	assert.True(t, applied)
}

func TestSequencerAdmitRejectsOlderNumbers(t *testing.T) {
	var s Sequencer
	assert.True(t, s.Admit(5))
	assert.True(t, s.Admit(5))
	assert.False(t, s.Admit(4))
	assert.True(t, s.Admit(9))
	assert.False(t, s.Latest(5))
}

func TestDebouncerRunsOnlyLastTrigger(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32
	var last atomic.Value
	done := make(chan struct{}, 1)

	for _, q := range []string{"a", "ab", "abc"} {
		q := q
		d.Trigger(func() {
			calls.Add(1)
			last.Store(q)
			done <- struct{}{}
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced call never fired")
	}
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "abc", last.Load())
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(time.Hour)
	assert.False(t, d.Stop())
	d.Trigger(func() {})
	assert.True(t, d.Stop())
}

func TestSearcherDropsStaleResponses(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var published []string
	publishedOnce := make(chan struct{}, 4)

	query := func(ctx context.Context, q string) (string, error) {
		if q == "slow" {
			<-release
		}
		return "result:" + q, nil
	}
	s := NewSearcher(context.Background(), 5*time.Millisecond, query, func(q, result string, err error) {
		mu.Lock()
		published = append(published, result)
		mu.Unlock()
		publishedOnce <- struct{}{}
	})

	s.Type("slow")
	time.Sleep(30 * time.Millisecond)
	s.Type("fast")

	select {
	case <-publishedOnce:
	case <-time.After(time.Second):
		t.Fatal("fast query never published")
	}
	close(release)
	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"result:fast"}, published)
}

func TestSequencerFinishReleasesContext(t *testing.T) {
	var s Sequencer
	ctx1, first := s.Begin(context.Background())
	ctx2, second := s.Begin(context.Background())

	s.Finish(first)
	require.NoError(t, ctx2.Err())
	assert.ErrorIs(t, ctx1.Err(), context.Canceled)

	s.Finish(second)
	assert.ErrorIs(t, ctx2.Err(), context.Canceled)
	assert.True(t, s.Latest(second))
	s.Finish(second)
}

func TestSearcherReleasesQueryContext(t *testing.T) {
	queried := make(chan context.Context, 1)
	done := make(chan struct{}, 1)
	s := NewSearcher(context.Background(), time.Millisecond, func(ctx context.Context, q string) (string, error) {
		queried <- ctx
		return q, nil
	}, func(string, string, error) { done <- struct{}{} })

	s.Type("widget")
	var ctx context.Context
	select {
	case ctx = <-queried:
	case <-time.After(time.Second):
		t.Fatal("query never ran")
	}
	<-done
	assert.Eventually(t, func() bool { return ctx.Err() != nil }, time.Second, 5*time.Millisecond)
}
