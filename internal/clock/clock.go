package clock

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

var (
	mu      sync.RWMutex
	current clockwork.Clock = clockwork.NewRealClock()
)

// Now returns the current time of the process clock.
func Now() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return current.Now()
}

// Set swaps the process clock; tests pass a clockwork.FakeClock.
func Set(c clockwork.Clock) {
	mu.Lock()
	current = c
	mu.Unlock()
}

// Reset restores the real clock.
func Reset() {
	Set(clockwork.NewRealClock())
}
