package covid

import (
	"time"
)

// RefreshInterval is how long a RefreshPlan stays valid after it was produced.
const RefreshInterval = 24 * time.Hour

// Record is the normalized global summary.
// Total is always Confirmed + Deaths + Recovered and is never read from the feed.
type Record struct {
	Confirmed int64 `json:"confirmed"`
	Deaths    int64 `json:"deaths"`
	Recovered int64 `json:"recovered"`
	Total     int64 `json:"total"`
}

// FallbackRecord is substituted whenever live data cannot be fetched or parsed.
// Total is 1 so the rendered bar is empty rather than undefined.
func FallbackRecord() Record {
	return Record{Confirmed: 0, Deaths: 0, Recovered: 0, Total: 1}
}

// Proportions holds each counter's share of Record.Total, in [0,1].
type Proportions struct {
	Confirmed float64 `json:"confirmed"`
	Deaths    float64 `json:"deaths"`
	Recovered float64 `json:"recovered"`
}

// Snapshot is a time-stamped record handed to the presentation layer.
type Snapshot struct {
	CapturedAt time.Time `json:"capturedAt"` // always UTC
	Record     Record    `json:"record"`
}

// RefreshPlan pairs a snapshot with the instant after which a new one should be requested.
type RefreshPlan struct {
	Snapshot   Snapshot  `json:"snapshot"`
	ValidUntil time.Time `json:"validUntil"`
}

// Expired reports whether a new plan should be requested at now.
func (p RefreshPlan) Expired(now time.Time) bool {
	return !now.Before(p.ValidUntil)
}
