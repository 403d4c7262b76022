package services

import "time"

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}
