package normalize

import (
	"math"
	"testing"
	"time"

	"go-firestore-estate/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCount(t *testing.T) {
	assert.Equal(t, int64(0), Count(nil))
	assert.Equal(t, int64(0), Count("12"))
	assert.Equal(t, int64(0), Count(int64(-3)))
	assert.Equal(t, int64(0), Count(math.NaN()))
	assert.Equal(t, int64(7), Count(7.9))
	assert.Equal(t, int64(12), Count(12))
}

func TestGlobalStats(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s := GlobalStats(map[string]interface{}{"uniqueVisitors": int64(5), "pageViews": 9.0, "lastVisit": ts})

	assert.Equal(t, int64(5), s.UniqueVisitors)
	assert.Equal(t, int64(9), s.PageViews)
	require.NotNil(t, s.LastVisit)
	assert.True(t, ts.Equal(*s.LastVisit))
	assert.Nil(t, s.LastUpdate)
	assert.Empty(t, s.DailyStats)
}

func TestDailyStats_DateFallsBackToKey(t *testing.T) {
	d := DailyStats("2024-03-01", map[string]interface{}{"pageViews": int64(4)})
	assert.Equal(t, "2024-03-01", d.Date)
	assert.Equal(t, int64(4), d.PageViews)
}

func TestLegacyCounter(t *testing.T) {
	_, ok := LegacyCounter(map[string]interface{}{"lastVisit": time.Now()})
	assert.False(t, ok)

	c, ok := LegacyCounter(map[string]interface{}{"count": int64(10)})
	assert.True(t, ok)
	assert.Equal(t, int64(10), c.Count)
	assert.Nil(t, c.LastVisit)
}

func TestVisitorStats_NewestFirstWithLimit(t *testing.T) {
	daily := []model.DailyStats{
		{Date: "2024-03-01"}, {Date: "2024-03-03"}, {Date: "2024-03-02"},
	}
	s := VisitorStats(model.VisitorStats{UniqueVisitors: 1}, daily, 2)

	require.Len(t, s.DailyStats, 2)
	assert.Equal(t, "2024-03-03", s.DailyStats[0].Date)
	assert.Equal(t, "2024-03-02", s.DailyStats[1].Date)
	assert.Equal(t, "2024-03-01", daily[0].Date, "input must not be reordered")
}
