// internal/util/clock.go
package util

import "time"

// Clock supplies the current time. Services take a Clock so tests can pin "today".
type Clock interface {
	NowUTC() time.Time
}

type systemClock struct{}

// NewSystemClock returns a Clock backed by time.Now.
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) NowUTC() time.Time {
	return time.Now().UTC()
}

// FixedClock always reports the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) NowUTC() time.Time {
	return c.At.UTC()
}
