package timeline

import (
	"sync"
	"time"
)

// Clock supplies the current time. Injecting it keeps the timeline
// computation deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock implementation of Clock
type SystemClock struct{}

// Now returns the current wall-clock time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// DefaultTickInterval is the refresh cadence of the live timeline. Task
// status buckets and displayed times are minute-grained, so sub-minute
// precision buys nothing.
const DefaultTickInterval = time.Minute

// Ticker drives periodic timeline recomputation. It must be stopped when
// the consuming view goes away so no orphaned timer keeps firing.
type Ticker struct {
	clock    Clock
	interval time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	running bool
}

// NewTicker creates a ticker that fires at the given interval using the
// given clock for timestamps
func NewTicker(clock Clock, interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Ticker{clock: clock, interval: interval}
}

// Start begins ticking, invoking fn with the current time on every tick.
// Starting an already-running ticker is a no-op.
func (t *Ticker) Start(fn func(now time.Time)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.running = true
	t.stop = make(chan struct{})

	go func(stop chan struct{}) {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn(t.clock.Now())
			case <-stop:
				return
			}
		}
	}(t.stop)
}

// Stop cancels the ticker. Safe to call multiple times and safe to call
// on a ticker that was never started; the ticker may be started again
// afterwards.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	close(t.stop)
}

// IsRunning reports whether the ticker is currently active
func (t *Ticker) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
