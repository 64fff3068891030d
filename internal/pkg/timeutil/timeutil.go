package timeutil

import "time"

// NowMilli is the timestamp unit used across the app. Milliseconds keep
// note ordering stable when several saves land within the same second.
func NowMilli() int64 {
	return time.Now().UnixMilli()
}
