package visitorstats

import (
	"context"
	"time"

	"go-firestore-estate/internal/model"
)

// GlobalEvent is one snapshot of visitorStats/global. Exists is false while the document is absent.
type GlobalEvent struct {
	Stats  model.VisitorStats
	Exists bool
	Err    error
}

type IRepository interface {
	// Legacy returns nil when stats/visitorCount is absent or has no count.
	Legacy(ctx context.Context) (*model.LegacyCounter, error)
	DeleteLegacy(ctx context.Context) error

	Global(ctx context.Context) (*model.VisitorStats, error)
	SetGlobal(ctx context.Context, stats model.VisitorStats, now time.Time) error
	SetGlobalCounts(ctx context.Context, uniqueVisitors, pageViews int64, now time.Time) error

	Daily(ctx context.Context, date string) (*model.DailyStats, error)
	ListDaily(ctx context.Context) ([]model.DailyStats, error)
	SetDaily(ctx context.Context, days []model.DailyStats, now time.Time) error

	RecordVisit(ctx context.Context, date string, firstVisit bool, now time.Time) error
	NotifyOnGlobal(ctx context.Context) <-chan GlobalEvent
}
