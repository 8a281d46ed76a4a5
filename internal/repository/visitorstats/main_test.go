package visitorstats

import (
	"testing"

	"go.uber.org/goleak"
)

// the opencensus view worker is started by an init in the firestore client dependencies
var ignoreOpenCensus = goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start")

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, ignoreOpenCensus)
}
