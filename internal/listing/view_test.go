package listing

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go-firestore-estate/internal/database"
	ierr "go-firestore-estate/internal/errors"
	"go-firestore-estate/internal/eventpublisher/event"
	propertySource "go-firestore-estate/internal/eventpublisher/property"
	"go-firestore-estate/internal/model"
	"go-firestore-estate/internal/normalize"
	propertyRepo "go-firestore-estate/internal/repository/property"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const waitFor = 2 * time.Second

func newView(t *testing.T) (*View, *database.MemoryStore) {
	t.Helper()
	db := database.NewMemoryStore()
	repo := propertyRepo.New(db, normalize.New(""))
	return New("test", propertySource.PropertySourceFactory(repo).OnAll()), db
}

func put(t *testing.T, db *database.MemoryStore, id string, fields map[string]interface{}) {
	t.Helper()
	require.NoError(t, db.SetDoc(context.Background(), "properties/"+id, fields))
}

func count(v *View, n int) func() bool {
	return func() bool {
		s := v.Snapshot()
		return !s.Loading && s.Err == nil && len(s.Properties) == n
	}
}

func TestView_FollowsSnapshots(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	v, db := newView(t)
	put(t, db, "a", map[string]interface{}{"title": "A"})

	require.NoError(t, v.Start(context.Background()))
	require.NoError(t, v.Start(context.Background()), "start is idempotent")
	defer v.Close()

	require.Eventually(t, count(v, 1), waitFor, time.Millisecond)
	first := v.Snapshot().Seq

	put(t, db, "b", map[string]interface{}{"title": "B"})
	put(t, db, "c", map[string]interface{}{"title": 3, "images": "bad"})
	require.Eventually(t, func() bool {
		s := v.Snapshot()
		return len(s.Properties) == 2 && len(s.Rejected) == 1
	}, waitFor, time.Millisecond)

	s := v.Snapshot()
	assert.Greater(t, s.Seq, first)
	assert.Equal(t, "c", s.Rejected[0].Id)

	p, ok := v.Find("b")
	assert.True(t, ok)
	assert.Equal(t, "B", p.Title)
	_, ok = v.Find("c")
	assert.False(t, ok)
}

func TestView_ErrorClearsDataAndIsTerminal(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	v, db := newView(t)
	put(t, db, "a", map[string]interface{}{"title": "A"})
	require.NoError(t, v.Start(context.Background()))
	defer v.Close()
	require.Eventually(t, count(v, 1), waitFor, time.Millisecond)

	db.Fail("properties", status.Error(codes.PermissionDenied, "missing or insufficient permissions"))
	require.Eventually(t, func() bool { return v.Snapshot().Err != nil }, waitFor, time.Millisecond)

	s := v.Snapshot()
	assert.Empty(t, s.Properties)
	assert.Equal(t, ierr.CodePermissionDenied, s.Code)
	assert.NotEmpty(t, s.ErrMessage)

	// denied is never retried on its own
	assert.False(t, v.NotifyOnline())

	put(t, db, "b", map[string]interface{}{"title": "B"})
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, s.Seq, v.Snapshot().Seq, "no deliveries after a terminal error")

	require.NoError(t, v.Retry())
	require.Eventually(t, count(v, 2), waitFor, time.Millisecond)
}

func TestView_NotifyOnlineRecoversConnectivity(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	v, db := newView(t)
	put(t, db, "a", map[string]interface{}{"title": "A"})
	require.NoError(t, v.Start(context.Background()))
	defer v.Close()
	require.Eventually(t, count(v, 1), waitFor, time.Millisecond)

	db.Fail("properties", status.Error(codes.Unavailable, "offline"))
	require.Eventually(t, func() bool { return v.Snapshot().Code == ierr.CodeUnavailable }, waitFor, time.Millisecond)

	assert.True(t, v.NotifyOnline())
	require.Eventually(t, count(v, 1), waitFor, time.Millisecond)
	assert.False(t, v.NotifyOnline(), "nothing to recover once healthy")
}

func TestView_StopEndsDeliveries(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	v, db := newView(t)
	require.NoError(t, v.Start(context.Background()))
	require.Eventually(t, count(v, 0), waitFor, time.Millisecond)

	v.Stop()
	v.Stop()
	assert.Equal(t, 0, db.Subscribers())

	seq := v.Snapshot().Seq
	put(t, db, "a", map[string]interface{}{"title": "A"})
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, seq, v.Snapshot().Seq)

	v.Close()
}

func TestView_RetryBeforeStart(t *testing.T) {
	v, _ := newView(t)
	assert.Error(t, v.Retry())
}

func TestView_SubscribersSeeOrderedStates(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	v, db := newView(t)
	ch := make(chan event.Event, 64)
	v.Subscribe(ch)

	require.NoError(t, v.Start(context.Background()))
	for _, id := range []string{"a", "b", "c"} {
		put(t, db, id, map[string]interface{}{"title": id})
	}
	require.Eventually(t, count(v, 3), waitFor, time.Millisecond)
	v.Close()

	var last uint64
	var final Snapshot
	for e := range ch {
		assert.Greater(t, e.Seq, last)
		last = e.Seq
		final = e.Message.(Snapshot)
	}
	assert.Len(t, final.Properties, 3)
}

func TestView_UnreadSubscribersDoNotHideLaterWrites(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	v, db := newView(t)
	for i := 0; i < 2; i++ {
		v.Subscribe(make(chan event.Event))
	}
	put(t, db, "a", map[string]interface{}{"title": "A"})

	require.NoError(t, v.Start(context.Background()))
	defer v.Close()

	time.Sleep(200 * time.Millisecond)
	put(t, db, "b", map[string]interface{}{"title": "B"})

	// every publish stalls on the unread subscribers until they are dropped
	require.Eventually(t, count(v, 2), 15*time.Second, 10*time.Millisecond)
	assert.Nil(t, v.Snapshot().Err)
}

func TestView_SourceClosedWithoutErrorIsUnavailable(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	var opens atomic.Int32
	source := func(ctx context.Context) <-chan propertyRepo.PropertyEvent {
		opens.Add(1)
		ch := make(chan propertyRepo.PropertyEvent, 1)
		ch <- propertyRepo.PropertyEvent{Properties: []model.Property{{Id: "a", Title: "A"}}}
		close(ch)
		return ch
	}

	v := New("closing", source)
	require.NoError(t, v.Start(context.Background()))
	defer v.Close()

	require.Eventually(t, func() bool { return v.Snapshot().Err != nil }, waitFor, time.Millisecond)
	s := v.Snapshot()
	assert.ErrorIs(t, s.Err, ierr.ErrSubscriptionClosed)
	assert.Equal(t, ierr.CodeUnavailable, s.Code)
	assert.Empty(t, s.Properties)

	assert.True(t, v.NotifyOnline())
	require.Eventually(t, func() bool { return opens.Load() == 2 }, waitFor, time.Millisecond)
}
