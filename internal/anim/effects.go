package anim

import (
	"math"
	"time"
)

// Lunge is the attacker's half-sine forward jab.
type Lunge struct {
	Timer
	Peak     float64 // Maximum displacement in canvas pixels
	hitFired bool
}

// NewLunge creates a stopped lunge with the given peak displacement.
func NewLunge(peak float64) Lunge {
	return Lunge{Timer: NewTimer(LungeDuration), Peak: peak}
}

// Begin starts a new attack; the hit coupling is re-armed.
func (l *Lunge) Begin(now time.Time) {
	l.Timer.Begin(now)
	l.hitFired = false
}

// Stop ends the attack.
func (l *Lunge) Stop() {
	l.Timer.Stop()
	l.hitFired = false
}

// Offset returns the displacement away from the resting position. It is 0
// at both ends of the animation and Peak halfway through.
func (l Lunge) Offset(now time.Time) float64 {
	if !l.Active(now) {
		return 0
	}
	return math.Sin(l.Progress(now)*math.Pi) * l.Peak
}

// HitDue reports, exactly once per attack, that the lunge has reached the hit
// window. The first sample at or past HitWindowStart claims it.
func (l *Lunge) HitDue(now time.Time) bool {
	if !l.Running() || l.hitFired {
		return false
	}
	if l.Progress(now) >= HitWindowStart {
		l.hitFired = true
		return true
	}
	return false
}

// HitFlash blinks the defender while it is active.
type HitFlash struct {
	Timer
}

// NewHitFlash creates a stopped hit flash.
func NewHitFlash() HitFlash {
	return HitFlash{Timer: NewTimer(HitDuration)}
}

// Visible reports whether the defender is drawn at now: shown for the first
// FlashInterval of every 2*FlashInterval cycle, always shown when inactive.
func (h HitFlash) Visible(now time.Time) bool {
	if !h.Active(now) {
		return true
	}
	return now.Sub(h.Start)%(2*FlashInterval) < FlashInterval
}

// WinnerDisplay is the post-battle announcement window.
type WinnerDisplay struct {
	Timer
	From float64 // Winner health at the moment of victory
}

// NewWinnerDisplay creates a stopped winner display.
func NewWinnerDisplay() WinnerDisplay {
	return WinnerDisplay{Timer: NewTimer(WinnerDuration)}
}

// BeginAt opens the window at now, recovering from health.
func (w *WinnerDisplay) BeginAt(now time.Time, health float64) {
	w.Timer.Begin(now)
	w.From = health
}

// FlashOn reports whether the banner is lit: on for the first
// WinnerFlashInterval of every 2*WinnerFlashInterval cycle.
func (w WinnerDisplay) FlashOn(now time.Time) bool {
	if !w.Active(now) {
		return false
	}
	return now.Sub(w.Start)%(2*WinnerFlashInterval) < WinnerFlashInterval
}

// Health returns the cosmetic winner health: From at the start of the
// window, rising linearly to 1 at its end.
func (w WinnerDisplay) Health(now time.Time) float64 {
	return Lerp(w.From, 1, w.Progress(now))
}
