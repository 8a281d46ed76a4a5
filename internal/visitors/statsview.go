package visitors

import (
	"context"
	"fmt"
	"sync"

	ierr "go-firestore-estate/internal/errors"
	"go-firestore-estate/internal/eventpublisher/common"
	"go-firestore-estate/internal/model"
	"go-firestore-estate/internal/normalize"
	statsRepo "go-firestore-estate/internal/repository/visitorstats"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type StatsSnapshot struct {
	Seq          uint64             `json:"seq"`
	Loading      bool               `json:"loading"`
	Exists       bool               `json:"exists"`
	Stats        model.VisitorStats `json:"stats"`
	DailyLoading bool               `json:"dailyLoading"`
	DailyError   string             `json:"dailyError,omitempty"`
	Err          error              `json:"-"`
	Code         ierr.Code          `json:"code,omitempty"`
	ErrMessage   string             `json:"error,omitempty"`
}

// StatsView follows visitorStats/global and joins every snapshot with the latest daily records.
// A join started for an older snapshot is discarded when it finishes late.
type StatsView struct {
	repo  statsRepo.IRepository
	limit int
	seq   common.Sequence

	stateMu sync.RWMutex
	state   StatsSnapshot

	runMu  sync.Mutex
	base   context.Context
	cancel context.CancelFunc
	joins  *errgroup.Group
	done   chan struct{}
}

func NewStatsView(repo statsRepo.IRepository, dailyLimit int) *StatsView {
	return &StatsView{
		repo:  repo,
		limit: dailyLimit,
		state: StatsSnapshot{Loading: true, Stats: model.VisitorStats{DailyStats: []model.DailyStats{}}},
	}
}

func (v *StatsView) Start(ctx context.Context) error {
	v.runMu.Lock()
	defer v.runMu.Unlock()

	if v.cancel != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	v.base = ctx
	v.startLocked()
	return nil
}

func (v *StatsView) startLocked() {
	ctx, cancel := context.WithCancel(v.base)
	v.cancel = cancel
	v.joins = &errgroup.Group{}
	v.done = make(chan struct{})

	v.update(ctx, func(s *StatsSnapshot) {
		*s = StatsSnapshot{Loading: true, Stats: model.VisitorStats{DailyStats: []model.DailyStats{}}}
	})

	go v.run(ctx, v.joins, v.done)
}

func (v *StatsView) run(ctx context.Context, joins *errgroup.Group, done chan struct{}) {
	defer close(done)

	for e := range v.repo.NotifyOnGlobal(ctx) {
		if e.Err != nil {
			log.Error().Err(e.Err).Msg("stats view: subscription failed")
			v.update(ctx, func(s *StatsSnapshot) {
				*s = StatsSnapshot{
					Stats:      model.VisitorStats{DailyStats: []model.DailyStats{}},
					Err:        e.Err,
					Code:       ierr.Classify(e.Err),
					ErrMessage: ierr.Message(e.Err),
				}
			})
			return
		}

		global := e.Stats
		exists := e.Exists
		seq := v.update(ctx, func(s *StatsSnapshot) {
			global.DailyStats = s.Stats.DailyStats
			*s = StatsSnapshot{Exists: exists, Stats: global, DailyLoading: true}
		})
		if seq == 0 {
			return
		}

		joins.Go(func() error {
			v.join(ctx, seq, global)
			return nil
		})
	}
}

func (v *StatsView) join(ctx context.Context, seq uint64, global model.VisitorStats) {
	days, err := v.repo.ListDaily(ctx)

	v.stateMu.Lock()
	defer v.stateMu.Unlock()

	if ctx.Err() != nil || !v.seq.IsCurrent(seq) {
		log.Debug().Msgf("stats view: dropping daily stats of snapshot %d", seq)
		return
	}

	v.state.DailyLoading = false
	if err != nil {
		log.Error().Err(err).Msg("stats view: failed to read daily stats")
		v.state.DailyError = ierr.Message(err)
		return
	}
	v.state.Stats = normalize.VisitorStats(global, days, v.limit)
}

// update applies fn to the state as a new snapshot and returns its sequence number, or 0 when the
// subscription was stopped.
func (v *StatsView) update(ctx context.Context, fn func(*StatsSnapshot)) uint64 {
	v.stateMu.Lock()
	defer v.stateMu.Unlock()

	if ctx.Err() != nil {
		return 0
	}
	fn(&v.state)
	v.state.Seq = v.seq.Next()
	return v.state.Seq
}

func (v *StatsView) Stop() {
	v.runMu.Lock()
	defer v.runMu.Unlock()
	v.stopLocked()
}

func (v *StatsView) stopLocked() {
	if v.cancel == nil {
		return
	}

	v.stateMu.Lock()
	v.cancel()
	v.stateMu.Unlock()

	<-v.done
	v.joins.Wait()
	v.cancel = nil
}

func (v *StatsView) Retry() error {
	v.runMu.Lock()
	defer v.runMu.Unlock()

	if v.base == nil {
		return fmt.Errorf("stats view: retry before start")
	}
	if err := v.base.Err(); err != nil {
		return err
	}

	v.stopLocked()
	v.startLocked()
	return nil
}

func (v *StatsView) Snapshot() StatsSnapshot {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()
	return v.state
}
