package visitors

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-firestore-estate/internal/database"
	ierr "go-firestore-estate/internal/errors"
	"go-firestore-estate/internal/model"
	statsRepo "go-firestore-estate/internal/repository/visitorstats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const waitFor = 2 * time.Second

// gatedRepo holds back daily reads until released.
type gatedRepo struct {
	statsRepo.VisitorStatsRepository
	mu   sync.Mutex
	gate chan struct{}
}

func (g *gatedRepo) ListDaily(ctx context.Context) ([]model.DailyStats, error) {
	g.mu.Lock()
	gate := g.gate
	g.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.VisitorStatsRepository.ListDaily(ctx)
}

func TestStatsView_JoinsDailyStats(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	ctx := context.Background()
	db := database.NewMemoryStore()
	repo := statsRepo.New(db)
	require.NoError(t, repo.SetDaily(ctx, []model.DailyStats{
		{Date: "2024-05-08", UniqueVisitors: 1, PageViews: 1},
		{Date: "2024-05-09", UniqueVisitors: 2, PageViews: 2},
		{Date: "2024-05-10", UniqueVisitors: 3, PageViews: 3},
	}, fixedNow))
	require.NoError(t, repo.SetGlobal(ctx, model.VisitorStats{UniqueVisitors: 6, PageViews: 6}, fixedNow))

	v := NewStatsView(repo, 2)
	require.NoError(t, v.Start(ctx))
	defer v.Stop()

	require.Eventually(t, func() bool {
		s := v.Snapshot()
		return s.Exists && !s.DailyLoading
	}, waitFor, time.Millisecond)

	s := v.Snapshot()
	assert.Equal(t, int64(6), s.Stats.UniqueVisitors)
	require.Len(t, s.Stats.DailyStats, 2)
	assert.Equal(t, "2024-05-10", s.Stats.DailyStats[0].Date)
	assert.Equal(t, "2024-05-09", s.Stats.DailyStats[1].Date)
}

func TestStatsView_StaleJoinIsDiscarded(t *testing.T) {
	ctx := context.Background()
	repo := statsRepo.New(database.NewMemoryStore())
	require.NoError(t, repo.SetDaily(ctx, []model.DailyStats{{Date: "2024-05-10", UniqueVisitors: 4, PageViews: 4}}, fixedNow))

	v := NewStatsView(repo, 7)
	stale := v.update(ctx, func(s *StatsSnapshot) { s.Stats = model.VisitorStats{UniqueVisitors: 1} })
	current := v.update(ctx, func(s *StatsSnapshot) { s.Stats = model.VisitorStats{UniqueVisitors: 2} })

	v.join(ctx, current, model.VisitorStats{UniqueVisitors: 2})
	v.join(ctx, stale, model.VisitorStats{UniqueVisitors: 1})

	s := v.Snapshot()
	assert.Equal(t, current, s.Seq)
	assert.Equal(t, int64(2), s.Stats.UniqueVisitors)
	assert.Len(t, s.Stats.DailyStats, 1)
}

func TestStatsView_LateJoinAfterNewSnapshot(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	ctx := context.Background()
	db := database.NewMemoryStore()
	repo := &gatedRepo{VisitorStatsRepository: statsRepo.New(db), gate: make(chan struct{})}

	v := NewStatsView(repo, 7)
	require.NoError(t, v.Start(ctx))

	// first snapshot: no global record yet, its join is held back
	require.Eventually(t, func() bool {
		s := v.Snapshot()
		return !s.Loading && s.DailyLoading && !s.Exists
	}, waitFor, time.Millisecond)
	firstSeq := v.Snapshot().Seq

	require.NoError(t, repo.RecordVisit(ctx, "2024-05-10", true, fixedNow))
	require.Eventually(t, func() bool { return v.Snapshot().Exists }, waitFor, time.Millisecond)
	assert.Greater(t, v.Snapshot().Seq, firstSeq)

	repo.mu.Lock()
	close(repo.gate)
	repo.gate = nil
	repo.mu.Unlock()

	require.Eventually(t, func() bool { return !v.Snapshot().DailyLoading }, waitFor, time.Millisecond)
	v.Stop()

	s := v.Snapshot()
	assert.True(t, s.Exists)
	assert.Equal(t, int64(1), s.Stats.PageViews, "the late join of the empty snapshot must not win")
	require.Len(t, s.Stats.DailyStats, 1)
}

func TestStatsView_ErrorAndRetry(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	ctx := context.Background()
	db := database.NewMemoryStore()
	v := NewStatsView(statsRepo.New(db), 7)
	assert.Error(t, v.Retry())

	require.NoError(t, v.Start(ctx))
	defer v.Stop()
	require.Eventually(t, func() bool { return !v.Snapshot().Loading }, waitFor, time.Millisecond)

	db.Fail("visitorStats/global", status.Error(codes.Unavailable, "offline"))
	require.Eventually(t, func() bool { return v.Snapshot().Err != nil }, waitFor, time.Millisecond)
	assert.Equal(t, ierr.CodeUnavailable, v.Snapshot().Code)

	require.NoError(t, v.Retry())
	require.Eventually(t, func() bool {
		s := v.Snapshot()
		return s.Err == nil && !s.Loading && !s.DailyLoading
	}, waitFor, time.Millisecond)
}
