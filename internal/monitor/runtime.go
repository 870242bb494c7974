package monitor

import (
	"time"

	"tmux-monitor/internal/cancel"
)

// defaultMaxRuntime caps one monitoring run.
const defaultMaxRuntime = 4 * time.Hour

// RuntimeTracker enforces the scheduled start and the runtime cap. When a
// start is scheduled, the cap counts from that instant, not from process
// launch.
type RuntimeTracker struct {
	startedAt      time.Time
	scheduledStart *time.Time
	maxRuntime     time.Duration
	now            func() time.Time
}

// NewRuntimeTracker creates a tracker. Non-positive maxRuntime takes the
// default cap.
func NewRuntimeTracker(scheduledStart *time.Time, maxRuntime time.Duration) *RuntimeTracker {
	if maxRuntime <= 0 {
		maxRuntime = defaultMaxRuntime
	}
	return &RuntimeTracker{
		startedAt:      time.Now(),
		scheduledStart: scheduledStart,
		maxRuntime:     maxRuntime,
		now:            time.Now,
	}
}

// origin is the instant the cap counts from.
func (t *RuntimeTracker) origin() time.Time {
	if t.scheduledStart != nil && t.scheduledStart.After(t.startedAt) {
		return *t.scheduledStart
	}
	return t.startedAt
}

// Deadline returns the instant the run must stop.
func (t *RuntimeTracker) Deadline() time.Time {
	return t.origin().Add(t.maxRuntime)
}

// HasExceededLimit reports whether the cap has been reached.
func (t *RuntimeTracker) HasExceededLimit() bool {
	return !t.now().Before(t.Deadline())
}

// Elapsed returns how long the run has been active.
func (t *RuntimeTracker) Elapsed() time.Duration {
	e := t.now().Sub(t.origin())
	if e < 0 {
		return 0
	}
	return e
}

// WaitForStart blocks until the scheduled start, preemptible through the
// token. Returns true when interrupted by cancellation.
func (t *RuntimeTracker) WaitForStart(tok *cancel.Token) (interrupted bool) {
	if t.scheduledStart == nil {
		return false
	}
	return tok.SleepUntil(*t.scheduledStart)
}
