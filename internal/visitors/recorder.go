package visitors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-firestore-estate/internal/model"
	statsRepo "go-firestore-estate/internal/repository/visitorstats"

	"github.com/rs/zerolog/log"
)

// Recorder counts page views. The first visit of a visitor on a day also counts as a unique
// visitor, on both the global and the daily record.
type Recorder struct {
	repo     statsRepo.IRepository
	registry Registry
	now      func() time.Time
}

func NewRecorder(repo statsRepo.IRepository, registry Registry) *Recorder {
	return &Recorder{
		repo:     repo,
		registry: registry,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RecordVisit reports whether the visit was the visitor's first of the day. When the counters
// cannot be written the visitor is not kept as seen, so a retry still counts as first.
func (r *Recorder) RecordVisit(ctx context.Context, visitorID string) (bool, error) {
	if visitorID == "" {
		return false, fmt.Errorf("record visit: empty visitor id")
	}

	now := r.now()
	day := model.DateKey(now)

	first, err := r.registry.FirstVisit(ctx, day, visitorID)
	if err != nil {
		return false, fmt.Errorf("record visit: %w", err)
	}

	if err := r.repo.RecordVisit(ctx, day, first, now); err != nil {
		if first {
			if ferr := r.registry.Forget(context.WithoutCancel(ctx), day, visitorID); ferr != nil {
				log.Error().Err(ferr).Msg("record visit: failed to forget visitor after a failed write")
				return false, errors.Join(err, ferr)
			}
		}
		return false, err
	}
	return first, nil
}
