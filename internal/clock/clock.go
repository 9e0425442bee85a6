// Package clock supplies monotonically non-decreasing millisecond timestamps
// for request signing.
package clock

import (
	"sync"
	"time"
)

// Guard returns wall-clock milliseconds that never decrease within the
// process, even if the system clock steps backwards. It makes no attempt at
// NTP correction; the exchange's skew window absorbs minor drift.
type Guard struct {
	mu   sync.Mutex
	last int64
}

// New returns a Guard.
func New() *Guard {
	return &Guard{}
}

// NowMs returns the current timestamp in milliseconds. Consecutive calls
// never go backwards.
func (g *Guard) NowMs() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()
	if now < g.last {
		return g.last
	}
	g.last = now
	return now
}
