package ocfl

import "time"

// Clock returns the current time. Repository operations take a Clock
// instead of calling time.Now directly so tests can supply a fixed time.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
