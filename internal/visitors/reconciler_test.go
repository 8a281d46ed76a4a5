package visitors

import (
	"context"
	"testing"
	"time"

	"go-firestore-estate/internal/database"
	"go-firestore-estate/internal/model"
	statsRepo "go-firestore-estate/internal/repository/visitorstats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestReconciler_Disabled(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	r := NewReconciler(NewMigrator(statsRepo.New(database.NewMemoryStore()), false), 0)
	assert.NoError(t, r.Start(ctx))
}

func TestReconciler_FixesDrift(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	ctx, cancel := context.WithCancel(context.Background())
	repo := statsRepo.New(database.NewMemoryStore())
	require.NoError(t, repo.SetGlobal(ctx, model.VisitorStats{UniqueVisitors: 50, PageViews: 50}, fixedNow))
	require.NoError(t, repo.SetDaily(ctx, []model.DailyStats{{Date: "2024-05-10", UniqueVisitors: 2, PageViews: 3}}, fixedNow))

	r := NewReconciler(NewMigrator(repo, false), 5*time.Millisecond)
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	require.Eventually(t, func() bool {
		g, err := repo.Global(ctx)
		return err == nil && g.UniqueVisitors == 2 && g.PageViews == 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
