// Package visitors maintains the visitor counters: the global record, the per-day records and
// the legacy single counter they replace.
//
// The global counters are a best-effort estimate. They are kept by separate increments next to
// the daily ones and can drift from the daily sum; Reconcile recomputes them from the days.
package visitors

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	ierr "go-firestore-estate/internal/errors"
	"go-firestore-estate/internal/model"
	statsRepo "go-firestore-estate/internal/repository/visitorstats"
	"go-firestore-estate/internal/utils"

	"github.com/rs/zerolog/log"
)

const (
	// LegacyPageViewFactor estimates page views from the legacy unique count. The legacy record
	// never counted page views, so the migrated value is not a measurement.
	LegacyPageViewFactor = 1.5

	DemoDays         = 7
	demoMinVisitors  = 20
	demoMaxVisitors  = 70
	demoTodayPercent = 70
)

type MigrationResult struct {
	FromLegacy bool               `json:"fromLegacy"`
	Global     model.VisitorStats `json:"global"`
	Today      model.DailyStats   `json:"today"`
}

type Migrator struct {
	repo         statsRepo.IRepository
	allowCleanup bool
	now          func() time.Time
}

func NewMigrator(repo statsRepo.IRepository, allowCleanup bool) *Migrator {
	return &Migrator{
		repo:         repo,
		allowCleanup: allowCleanup,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func LegacyPageViews(count int64) int64 {
	return int64(math.Floor(float64(count) * LegacyPageViewFactor))
}

// Migrate moves from the legacy counter to the global + daily scheme. With a legacy record the
// global counters are overwritten with the legacy values, even when visits were recorded under
// the new scheme since a previous run. Those visits are lost; run it once.
// Today's daily record is reset to zero in both cases.
func (m *Migrator) Migrate(ctx context.Context) (MigrationResult, error) {
	legacy, err := m.repo.Legacy(ctx)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("migrate visitor stats: %w", err)
	}

	now := m.now()
	result := MigrationResult{
		Global: model.VisitorStats{DailyStats: []model.DailyStats{}},
		Today:  model.DailyStats{Date: model.DateKey(now)},
	}

	if legacy != nil {
		result.FromLegacy = true
		result.Global.UniqueVisitors = legacy.Count
		result.Global.PageViews = LegacyPageViews(legacy.Count)
		result.Global.LastVisit = legacy.LastVisit
	}

	if err := m.repo.SetGlobal(ctx, result.Global, now); err != nil {
		return MigrationResult{}, fmt.Errorf("migrate visitor stats: %w", err)
	}

	if err := m.repo.SetDaily(ctx, []model.DailyStats{result.Today}, now); err != nil {
		return MigrationResult{}, fmt.Errorf("migrate visitor stats: %w", err)
	}

	log.Info().Msgf("visitor stats migrated, legacy: %t, uniqueVisitors: %d, pageViews: %d",
		result.FromLegacy, result.Global.UniqueVisitors, result.Global.PageViews)
	return result, nil
}

// InitDemoData writes DemoDays synthetic daily records ending today and then sets the global
// counters to the sum over every stored daily record, demo or not.
func (m *Migrator) InitDemoData(ctx context.Context, rnd *rand.Rand) (model.VisitorStats, error) {
	now := m.now()

	days := make([]model.DailyStats, 0, DemoDays)
	for i := 0; i < DemoDays; i++ {
		unique := int64(demoMinVisitors + rnd.Intn(demoMaxVisitors-demoMinVisitors+1))
		views := unique + int64(rnd.Int63n(unique+1))
		if i == 0 {
			unique = unique * demoTodayPercent / 100
			views = views * demoTodayPercent / 100
		}

		days = append(days, model.DailyStats{
			Date:           model.DateKey(now.AddDate(0, 0, -i)),
			UniqueVisitors: unique,
			PageViews:      views,
		})
	}

	if err := m.repo.SetDaily(ctx, days, now); err != nil {
		return model.VisitorStats{}, fmt.Errorf("init demo data: %w", err)
	}

	stats, err := m.sumDaily(ctx)
	if err != nil {
		return model.VisitorStats{}, fmt.Errorf("init demo data: %w", err)
	}
	stats.LastVisit = utils.TimeToPointer(now)

	if err := m.repo.SetGlobal(ctx, stats, now); err != nil {
		return model.VisitorStats{}, fmt.Errorf("init demo data: %w", err)
	}
	return stats, nil
}

// Reconcile replaces the global counters with the sum over all daily records. lastVisit is kept.
func (m *Migrator) Reconcile(ctx context.Context) (model.VisitorStats, error) {
	stats, err := m.sumDaily(ctx)
	if err != nil {
		return model.VisitorStats{}, fmt.Errorf("reconcile visitor stats: %w", err)
	}

	if err := m.repo.SetGlobalCounts(ctx, stats.UniqueVisitors, stats.PageViews, m.now()); err != nil {
		return model.VisitorStats{}, fmt.Errorf("reconcile visitor stats: %w", err)
	}
	return stats, nil
}

// CleanupLegacy deletes the legacy counter without keeping a copy. It refuses to run unless the
// migrator was built with cleanup allowed.
func (m *Migrator) CleanupLegacy(ctx context.Context) error {
	if !m.allowCleanup {
		return ierr.ErrCleanupDisabled
	}

	if err := m.repo.DeleteLegacy(ctx); err != nil {
		return fmt.Errorf("cleanup legacy visitor stats: %w", err)
	}

	log.Warn().Msg("legacy visitor counter deleted")
	return nil
}

func (m *Migrator) sumDaily(ctx context.Context) (model.VisitorStats, error) {
	days, err := m.repo.ListDaily(ctx)
	if err != nil {
		return model.VisitorStats{}, err
	}

	stats := model.VisitorStats{DailyStats: days}
	for _, d := range days {
		stats.UniqueVisitors += d.UniqueVisitors
		stats.PageViews += d.PageViews
	}
	return stats, nil
}
