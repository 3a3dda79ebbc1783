package anim

import "time"

// Phase is the lifecycle of a sprite slide.
type Phase int

const (
	// PhaseIdle - sprite at its resting position
	PhaseIdle Phase = iota
	// PhaseExiting - sliding from rest to off-screen
	PhaseExiting
	// PhaseEntering - sliding from off-screen back to rest
	PhaseEntering
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseExiting:
		return "exiting"
	case PhaseEntering:
		return "entering"
	default:
		return "unknown"
	}
}

// Transition slides one side's sprite between rest and off-screen along a
// single axis.
type Transition struct {
	Timer
	Phase     Phase
	Rest      float64
	Offscreen float64
}

// NewTransition creates an idle transition between the two coordinates.
func NewTransition(rest, offscreen float64) Transition {
	return Transition{Timer: NewTimer(TransitionDuration), Rest: rest, Offscreen: offscreen}
}

// Exit starts sliding out at now.
func (t *Transition) Exit(now time.Time) {
	t.Phase = PhaseExiting
	t.Begin(now)
}

// Enter starts sliding in at now.
func (t *Transition) Enter(now time.Time) {
	t.Phase = PhaseEntering
	t.Begin(now)
}

// Settle snaps to idle at rest.
func (t *Transition) Settle() {
	t.Phase = PhaseIdle
	t.Stop()
}

// Position returns the coordinate along the slide axis at now.
func (t Transition) Position(now time.Time) float64 {
	switch t.Phase {
	case PhaseExiting:
		return Lerp(t.Rest, t.Offscreen, t.Progress(now))
	case PhaseEntering:
		return Lerp(t.Offscreen, t.Rest, t.Progress(now))
	default:
		return t.Rest
	}
}

// Gone reports whether the sprite has finished exiting and waits off-screen.
func (t Transition) Gone(now time.Time) bool {
	return t.Phase == PhaseExiting && t.Done(now)
}

// Update reverts a finished entry to idle. It returns true on the sample that
// completes the entry.
func (t *Transition) Update(now time.Time) bool {
	if t.Phase == PhaseEntering && t.Done(now) {
		t.Settle()
		return true
	}
	return false
}
