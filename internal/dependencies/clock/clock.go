package clock

import "time"

// Clock is the time source for session and room timestamps
type Clock interface {
	Now() time.Time
}

// System reads the wall clock. Times are UTC so stored records compare and
// serialise the same regardless of the host zone.
type System struct{}

// New creates a system clock
func New() System {
	return System{}
}

// Now returns the current UTC time
func (System) Now() time.Time {
	return time.Now().UTC()
}
