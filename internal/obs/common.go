package obs

import "time"

// durationOf converts a nanosecond count observed as a plain int64 (as
// stage code computes it from two timestamps) into a time.Duration.
func durationOf(nanos int64) time.Duration {
	return time.Duration(nanos)
}
