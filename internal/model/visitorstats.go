package model

import "time"

// DateLayout is the key format of dailyVisitorStats documents.
const DateLayout = "2006-01-02"

type VisitorStats struct {
	UniqueVisitors int64        `json:"uniqueVisitors"`
	PageViews      int64        `json:"pageViews"`
	LastVisit      *time.Time   `json:"lastVisit,omitempty"`
	LastUpdate     *time.Time   `json:"lastUpdate,omitempty"`
	DailyStats     []DailyStats `json:"dailyStats"`
}

type DailyStats struct {
	Date           string     `json:"date"`
	UniqueVisitors int64      `json:"uniqueVisitors"`
	PageViews      int64      `json:"pageViews"`
	LastUpdate     *time.Time `json:"lastUpdate,omitempty"`
}

// LegacyCounter is the single pre-migration record at stats/visitorCount.
type LegacyCounter struct {
	Count     int64      `json:"count"`
	LastVisit *time.Time `json:"lastVisit,omitempty"`
}

func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}
