package core

import "time"

// Clock supplies wall-clock time. Scan handling never calls time.Now
// directly so tests can drive the cooldown and expiry windows.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func SystemClock() Clock {
	return systemClock{}
}
