package pijaz

import "time"

// Clock supplies the current time. Tests substitute a controllable clock to
// exercise token expiry without waiting.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}
