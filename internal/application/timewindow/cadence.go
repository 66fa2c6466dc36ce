package timewindow

import "time"

// DefaultTickInterval is the cadence of local reclassification.
const DefaultTickInterval = 60 * time.Second

// IsRefetchDue reports whether the tick at reference should also reload the
// schedule from the API: only at the top of the hour.
func IsRefetchDue(reference time.Time) bool {
	return reference.Minute() == 0
}
