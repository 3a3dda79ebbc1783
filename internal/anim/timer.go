// Package anim provides time-sampled animation timers.
//
// Timers own no goroutine and fire no callbacks. Progress is a pure function
// of (now - start) / duration clamped to [0,1], so a late or skipped frame
// only changes what the next sample sees, never the outcome.
package anim

import "time"

// Fixed animation timings.
const (
	LungeDuration       = 300 * time.Millisecond
	HitDuration         = 400 * time.Millisecond
	FlashInterval       = 100 * time.Millisecond
	TransitionDuration  = 500 * time.Millisecond
	WinnerDuration      = 2000 * time.Millisecond
	WinnerFlashInterval = 300 * time.Millisecond

	// The defender's hit flash starts once the lunge reaches this progress.
	HitWindowStart = 0.4
)

// Progress returns (now-start)/d clamped to [0,1]. A non-positive duration is
// always complete.
func Progress(now, start time.Time, d time.Duration) float64 {
	if d <= 0 {
		return 1
	}
	p := float64(now.Sub(start)) / float64(d)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Lerp interpolates linearly from a to b. p is clamped and p=1 returns b exactly.
func Lerp(a, b, p float64) float64 {
	if p <= 0 {
		return a
	}
	if p >= 1 {
		return b
	}
	return a + (b-a)*p
}

// Timer is a started-or-not countdown over a fixed duration.
type Timer struct {
	Start    time.Time
	Duration time.Duration
	running  bool
}

// NewTimer creates a stopped timer.
func NewTimer(d time.Duration) Timer {
	return Timer{Duration: d}
}

// Begin (re)starts the timer at now.
func (t *Timer) Begin(now time.Time) {
	t.Start = now
	t.running = true
}

// Stop returns the timer to its neutral state.
func (t *Timer) Stop() {
	t.running = false
	t.Start = time.Time{}
}

// Running reports whether the timer has been started and not stopped.
// A running timer may already be past its duration.
func (t Timer) Running() bool {
	return t.running
}

// Elapsed returns time since start clamped to [0, Duration]; zero when stopped.
func (t Timer) Elapsed(now time.Time) time.Duration {
	if !t.running {
		return 0
	}
	e := now.Sub(t.Start)
	if e < 0 {
		return 0
	}
	if e > t.Duration {
		return t.Duration
	}
	return e
}

// Progress returns the clamped progress; zero when stopped.
func (t Timer) Progress(now time.Time) float64 {
	if !t.running {
		return 0
	}
	return Progress(now, t.Start, t.Duration)
}

// Active reports whether the timer is running and not yet expired.
func (t Timer) Active(now time.Time) bool {
	return t.running && now.Sub(t.Start) < t.Duration
}

// Done reports whether the timer is running and has expired.
func (t Timer) Done(now time.Time) bool {
	return t.running && now.Sub(t.Start) >= t.Duration
}
