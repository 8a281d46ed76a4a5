package normalize

import (
	"math"
	"sort"
	"time"

	"go-firestore-estate/internal/model"
)

// Count reads a stored counter. Absent, non-numeric and negative values read as zero;
// fractional values are floored.
func Count(v interface{}) int64 {
	var n int64
	switch t := v.(type) {
	case int64:
		n = t
	case int:
		n = int64(t)
	case int32:
		n = int64(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		n = int64(math.Floor(t))
	}

	if n < 0 {
		return 0
	}
	return n
}

func optionalTime(v interface{}) *time.Time {
	t, ok := asTime(v)
	if !ok || t.IsZero() {
		return nil
	}
	return &t
}

// GlobalStats reads visitorStats/global. DailyStats is left empty.
func GlobalStats(raw map[string]interface{}) model.VisitorStats {
	return model.VisitorStats{
		UniqueVisitors: Count(raw["uniqueVisitors"]),
		PageViews:      Count(raw["pageViews"]),
		LastVisit:      optionalTime(raw["lastVisit"]),
		LastUpdate:     optionalTime(raw["lastUpdate"]),
		DailyStats:     []model.DailyStats{},
	}
}

// DailyStats reads dailyVisitorStats/{key}. The key wins when the stored date is missing.
func DailyStats(key string, raw map[string]interface{}) model.DailyStats {
	date, _ := raw["date"].(string)
	if date == "" {
		date = key
	}

	return model.DailyStats{
		Date:           date,
		UniqueVisitors: Count(raw["uniqueVisitors"]),
		PageViews:      Count(raw["pageViews"]),
		LastUpdate:     optionalTime(raw["lastUpdate"]),
	}
}

// LegacyCounter reads stats/visitorCount. ok is false when the record carries no count.
func LegacyCounter(raw map[string]interface{}) (model.LegacyCounter, bool) {
	v, ok := raw["count"]
	if !ok || v == nil {
		return model.LegacyCounter{}, false
	}

	return model.LegacyCounter{
		Count:     Count(v),
		LastVisit: optionalTime(raw["lastVisit"]),
	}, true
}

// VisitorStats joins the global record with per-day records, newest first, keeping at most limit
// days. A limit <= 0 keeps every day.
func VisitorStats(global model.VisitorStats, daily []model.DailyStats, limit int) model.VisitorStats {
	days := make([]model.DailyStats, len(daily))
	copy(days, daily)
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date > days[j].Date })

	if limit > 0 && len(days) > limit {
		days = days[:limit]
	}

	global.DailyStats = days
	return global
}
