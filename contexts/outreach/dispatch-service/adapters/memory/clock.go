package memory

import (
	"context"
	"sync"
	"time"
)

// Clock is a settable clock for tests.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Sleeper advances a fake clock instead of blocking, recording every sleep
// duration. Dispatch loops run instantly under it while the clock still
// moves the way real pacing would.
type Sleeper struct {
	clock *Clock

	mu    sync.Mutex
	slept []time.Duration
}

func NewSleeper(clock *Clock) *Sleeper {
	return &Sleeper{clock: clock}
}

func (s *Sleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.clock.Advance(d)
	s.mu.Lock()
	s.slept = append(s.slept, d)
	s.mu.Unlock()
	return nil
}

func (s *Sleeper) Slept() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.slept))
	copy(out, s.slept)
	return out
}

func (s *Sleeper) LongestSleep() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var longest time.Duration
	for _, d := range s.slept {
		if d > longest {
			longest = d
		}
	}
	return longest
}
