package visitorstats

const (
	// collection and document paths
	legacyCounterPath string = "stats/visitorCount"
	globalStatsPath   string = "visitorStats/global"
	dailyStatsNode    string = "dailyVisitorStats"

	// Fields' name and path
	CountFieldPath          string = "count"
	DateFieldPath           string = "date"
	UniqueVisitorsFieldPath string = "uniqueVisitors"
	PageViewsFieldPath      string = "pageViews"
	LastVisitFieldPath      string = "lastVisit"
	LastUpdateFieldPath     string = "lastUpdate"
)
