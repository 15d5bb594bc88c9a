package testutil

import (
	"context"
	"time"

	"impactx/pkg/requestcontext"
)

// Clock pins the operation time seen through requestcontext.Now and moves it
// forward on demand, so deadline behaviour is deterministic in tests.
type Clock struct {
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start.UTC()}
}

func (c *Clock) Now() time.Time { return c.now }

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// Set jumps the clock to t.
func (c *Clock) Set(t time.Time) {
	c.now = t.UTC()
}

// Ctx returns ctx carrying the current clock time.
func (c *Clock) Ctx(ctx context.Context) context.Context {
	return requestcontext.WithTime(ctx, c.now)
}
