// Package cancel provides the cooperative cancellation token used by every
// long-running monitor operation. The token is a one-way latch: the first
// Cancel wins, later calls are ignored, and all pending sleeps wake
// immediately.
package cancel

import (
	"sync"
	"time"
)

// Token is a process-wide cancellation signal with a reason and timestamp.
// Many readers, one effective writer.
type Token struct {
	mu        sync.Mutex
	done      chan struct{}
	cancelled bool
	reason    string
	at        time.Time
}

// NewToken creates a fresh, uncancelled token.
func NewToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancel flips the token. Idempotent: only the first reason and timestamp
// are retained.
func (t *Token) Cancel(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled {
		return
	}
	t.cancelled = true
	t.reason = reason
	t.at = time.Now()
	close(t.done)
}

// IsCancelled reports whether the token has been cancelled.
func (t *Token) IsCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Reason returns the first cancellation reason, or "" if not cancelled.
func (t *Token) Reason() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

// CancelledAt returns when the token was first cancelled (zero if not).
func (t *Token) CancelledAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.at
}

// Done returns a channel closed on cancellation, for select loops.
func (t *Token) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// Sleep waits for d, returning true immediately if cancellation is observed
// before the duration elapses. A non-positive duration returns at once.
func (t *Token) Sleep(d time.Duration) (interrupted bool) {
	if t.IsCancelled() {
		return true
	}
	if d <= 0 {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-t.Done():
		return true
	case <-timer.C:
		return false
	}
}

// SleepUntil waits until the given instant, returning true if interrupted.
func (t *Token) SleepUntil(instant time.Time) (interrupted bool) {
	return t.Sleep(time.Until(instant))
}

// Reset re-arms the token. Tests only; production code never resets.
func (t *Token) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled = false
	t.reason = ""
	t.at = time.Time{}
	t.done = make(chan struct{})
}
