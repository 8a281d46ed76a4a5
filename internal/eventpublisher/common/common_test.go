package common

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-firestore-estate/internal/eventpublisher/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestSequence(t *testing.T) {
	var s Sequence
	assert.Equal(t, uint64(0), s.Current())

	first := s.Next()
	assert.True(t, s.IsCurrent(first))

	second := s.Next()
	assert.False(t, s.IsCurrent(first))
	assert.True(t, s.IsCurrent(second))
	assert.Greater(t, second, first)
}

func TestSequence_Concurrent(t *testing.T) {
	var s Sequence
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Next()
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(50), s.Current())
}

func TestSubManager_UnsubscribeClosesOnce(t *testing.T) {
	m := NewSubManager()
	ch := make(chan event.Event, 1)

	m.Subscribe(ch)
	m.Subscribe(ch)
	assert.Equal(t, 1, m.Len())

	m.Unsubscribe(ch)
	m.Unsubscribe(ch)
	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestPublisher_ThresholdAndReset(t *testing.T) {
	p := NewPublisherWithFailureThreshold(10*time.Millisecond, 2)
	ch := make(chan event.Event)
	ctx := context.Background()

	assert.NoError(t, p.Publish(ctx, ch, event.Event{}))
	assert.ErrorIs(t, p.Publish(ctx, ch, event.Event{}), ErrWriteFailure)

	buffered := make(chan event.Event, 1)
	assert.NoError(t, p.Publish(ctx, buffered, event.Event{}))
	assert.NoError(t, p.Publish(ctx, make(chan event.Event), event.Event{}))
}

func TestPublisher_ClosedSubscriber(t *testing.T) {
	p := NewPublisherWithFailureThreshold(time.Second, 3)
	ch := make(chan event.Event)
	close(ch)
	assert.ErrorIs(t, p.Publish(context.Background(), ch, event.Event{}), ErrWriteFailure)
}

func TestBroadcaster_OrderAndSlowSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	b := NewBroadcaster("test")
	fast := make(chan event.Event, 10)
	slow := make(chan event.Event)
	b.Subscribe(fast)
	b.Subscribe(slow)

	// the unread subscriber is dropped once it misses two writes
	b.publisher = NewPublisherWithFailureThreshold(5*time.Millisecond, 2)
	for i := uint64(1); i <= 3; i++ {
		b.Publish(context.Background(), event.Event{Seq: i})
	}

	assert.Equal(t, 1, b.Subscribers())
	_, ok := <-slow
	assert.False(t, ok, "slow subscriber must be closed")

	for i := uint64(1); i <= 3; i++ {
		e := <-fast
		require.Equal(t, i, e.Seq)
	}

	b.Close()
	_, ok = <-fast
	assert.False(t, ok)
}
