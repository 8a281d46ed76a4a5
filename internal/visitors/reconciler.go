package visitors

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Reconciler runs Reconcile on a fixed interval.
type Reconciler struct {
	migrator *Migrator
	interval time.Duration
}

func NewReconciler(migrator *Migrator, interval time.Duration) *Reconciler {
	return &Reconciler{
		migrator: migrator,
		interval: interval,
	}
}

// Start blocks until ctx is done. A failed run is logged and retried on the next tick. A
// non-positive interval disables the job.
func (r *Reconciler) Start(ctx context.Context) error {
	if r.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("visitor stats reconciler stopped")
			return nil
		case <-ticker.C:
			stats, err := r.migrator.Reconcile(ctx)
			if err != nil {
				log.Error().Err(err).Msg("visitor stats reconciler: run failed")
				continue
			}
			log.Debug().Msgf("visitor stats reconciled, uniqueVisitors: %d, pageViews: %d", stats.UniqueVisitors, stats.PageViews)
		}
	}
}
