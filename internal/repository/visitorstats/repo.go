package visitorstats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-firestore-estate/internal/database"
	ierr "go-firestore-estate/internal/errors"
	"go-firestore-estate/internal/model"
	"go-firestore-estate/internal/normalize"
	"go-firestore-estate/internal/repository/helper"

	"github.com/rs/zerolog/log"
)

type VisitorStatsRepository struct {
	db database.Client
}

var _ IRepository = VisitorStatsRepository{}

func New(db database.Client) VisitorStatsRepository {
	return VisitorStatsRepository{
		db: db,
	}
}

func dailyPath(date string) string {
	return database.Join(dailyStatsNode, date)
}

func (r VisitorStatsRepository) Legacy(ctx context.Context) (*model.LegacyCounter, error) {
	doc, err := r.db.GetDoc(ctx, legacyCounterPath)
	if err != nil {
		if errors.Is(err, ierr.NotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get legacy counter: %w", err)
	}

	counter, ok := normalize.LegacyCounter(doc.Data)
	if !ok {
		return nil, nil
	}
	return &counter, nil
}

func (r VisitorStatsRepository) DeleteLegacy(ctx context.Context) error {
	if err := r.db.DeleteDoc(ctx, legacyCounterPath); err != nil {
		return fmt.Errorf("delete legacy counter: %w", err)
	}
	return nil
}

func (r VisitorStatsRepository) Global(ctx context.Context) (*model.VisitorStats, error) {
	doc, err := r.db.GetDoc(ctx, globalStatsPath)
	if err != nil {
		if errors.Is(err, ierr.NotFound) {
			return nil, ierr.NotFound
		}
		return nil, fmt.Errorf("get global stats: %w", err)
	}

	stats := normalize.GlobalStats(doc.Data)
	return &stats, nil
}

// SetGlobal overwrites the whole global record.
func (r VisitorStatsRepository) SetGlobal(ctx context.Context, stats model.VisitorStats, now time.Time) error {
	data := map[string]interface{}{
		UniqueVisitorsFieldPath: stats.UniqueVisitors,
		PageViewsFieldPath:      stats.PageViews,
		LastUpdateFieldPath:     now,
	}
	if stats.LastVisit != nil {
		data[LastVisitFieldPath] = *stats.LastVisit
	}

	if err := r.db.SetDoc(ctx, globalStatsPath, data); err != nil {
		return fmt.Errorf("set global stats: %w", err)
	}
	return nil
}

// SetGlobalCounts replaces both counters and leaves lastVisit untouched.
func (r VisitorStatsRepository) SetGlobalCounts(ctx context.Context, uniqueVisitors, pageViews int64, now time.Time) error {
	data := map[string]interface{}{
		UniqueVisitorsFieldPath: uniqueVisitors,
		PageViewsFieldPath:      pageViews,
		LastUpdateFieldPath:     now,
	}

	if err := r.db.MergeDoc(ctx, globalStatsPath, data); err != nil {
		return fmt.Errorf("set global counts: %w", err)
	}
	return nil
}

func (r VisitorStatsRepository) Daily(ctx context.Context, date string) (*model.DailyStats, error) {
	doc, err := r.db.GetDoc(ctx, dailyPath(date))
	if err != nil {
		if errors.Is(err, ierr.NotFound) {
			return nil, ierr.NotFound
		}
		return nil, fmt.Errorf("get daily stats: %w, date: %s", err, date)
	}

	daily := normalize.DailyStats(doc.ID, doc.Data)
	return &daily, nil
}

func (r VisitorStatsRepository) ListDaily(ctx context.Context) ([]model.DailyStats, error) {
	docs, err := r.db.ListDocs(ctx, dailyStatsNode)
	if err != nil {
		return nil, fmt.Errorf("list daily stats: %w", err)
	}

	days := make([]model.DailyStats, 0, len(docs))
	for _, doc := range docs {
		days = append(days, normalize.DailyStats(doc.ID, doc.Data))
	}
	return days, nil
}

// SetDaily overwrites the given daily records in one batch.
func (r VisitorStatsRepository) SetDaily(ctx context.Context, days []model.DailyStats, now time.Time) error {
	batch := make([]database.DataBatch, 0, len(days))
	for _, d := range days {
		batch = append(batch, database.DataBatch{
			Path: dailyPath(d.Date),
			Data: map[string]interface{}{
				DateFieldPath:           d.Date,
				UniqueVisitorsFieldPath: d.UniqueVisitors,
				PageViewsFieldPath:      d.PageViews,
				LastUpdateFieldPath:     now,
			},
		})
	}

	if err := r.db.SetDocs(ctx, batch); err != nil {
		return fmt.Errorf("set daily stats: %w", err)
	}
	return nil
}

// RecordVisit adds one page view to the global and the daily record, and one unique visitor
// when firstVisit is set. Both writes use the store's atomic increment; they are not atomic
// with each other.
func (r VisitorStatsRepository) RecordVisit(ctx context.Context, date string, firstVisit bool, now time.Time) error {
	var unique int64
	if firstVisit {
		unique = 1
	}

	global := map[string]interface{}{
		PageViewsFieldPath:      database.Increment{N: 1},
		UniqueVisitorsFieldPath: database.Increment{N: unique},
		LastVisitFieldPath:      now,
		LastUpdateFieldPath:     now,
	}
	if err := r.db.MergeDoc(ctx, globalStatsPath, global); err != nil {
		return fmt.Errorf("record visit: %w", err)
	}

	daily := map[string]interface{}{
		DateFieldPath:           date,
		PageViewsFieldPath:      database.Increment{N: 1},
		UniqueVisitorsFieldPath: database.Increment{N: unique},
		LastUpdateFieldPath:     now,
	}
	if err := r.db.MergeDoc(ctx, dailyPath(date), daily); err != nil {
		return fmt.Errorf("record visit: %w, date: %s", err, date)
	}
	return nil
}

func (r VisitorStatsRepository) NotifyOnGlobal(ctx context.Context) <-chan GlobalEvent {
	ch := make(chan GlobalEvent)

	go func() {
		defer close(ch)

		helper.NotifyOnSnapshots(ctx, r.db, globalStatsPath, nil, func(e database.SnapshotEvent) error {
			if e.Err != nil {
				log.Error().Err(e.Err).Msg("visitor stats repo: failed to read global stats")
				helper.BlockingWrite(ctx, ch, GlobalEvent{Err: e.Err})
				return e.Err
			}

			ge := GlobalEvent{Stats: normalize.GlobalStats(nil)}
			if len(e.Docs) > 0 {
				ge.Stats = normalize.GlobalStats(e.Docs[0].Data)
				ge.Exists = true
			}
			return helper.BlockingWrite(ctx, ch, ge)
		})
	}()

	return ch
}
