package covid

import "time"

// Build wraps a fetch outcome into a Snapshot captured at now.
// When err is non-nil the record is ignored and FallbackRecord is used instead;
// no error leaves this function.
func Build(now time.Time, rec Record, err error) Snapshot {
	if err != nil {
		rec = FallbackRecord()
	}
	return Snapshot{
		CapturedAt: now.UTC(),
		Record:     rec,
	}
}
