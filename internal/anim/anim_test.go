package anim

import (
	"math"
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func TestProgressClamps(t *testing.T) {
	tests := []struct {
		ms   int
		want float64
	}{
		{-100, 0},
		{0, 0},
		{250, 0.5},
		{500, 1},
		{9000, 1},
	}

	for _, tt := range tests {
		if got := Progress(at(tt.ms), t0, 500*time.Millisecond); got != tt.want {
			t.Errorf("Progress(%dms) = %f, want %f", tt.ms, got, tt.want)
		}
	}

	if got := Progress(t0, t0, 0); got != 1 {
		t.Errorf("Progress with zero duration = %f, want 1", got)
	}
}

func TestTimerLifecycle(t *testing.T) {
	tm := NewTimer(300 * time.Millisecond)

	if tm.Running() || tm.Active(t0) || tm.Done(t0) || tm.Progress(t0) != 0 {
		t.Fatal("new timer should be stopped and neutral")
	}

	tm.Begin(t0)
	if !tm.Active(at(299)) {
		t.Error("timer should be active before its duration")
	}
	if tm.Active(at(300)) || !tm.Done(at(300)) {
		t.Error("timer should be done at exactly its duration")
	}
	if tm.Elapsed(at(1000)) != 300*time.Millisecond {
		t.Errorf("Elapsed() = %v, want clamped to 300ms", tm.Elapsed(at(1000)))
	}

	tm.Stop()
	if tm.Running() || tm.Elapsed(at(100)) != 0 {
		t.Error("Stop() should return the timer to neutral")
	}
}

func TestLungeOffsetHalfSine(t *testing.T) {
	l := NewLunge(10)
	l.Begin(t0)

	if got := l.Offset(t0); got != 0 {
		t.Errorf("Offset at start = %f, want 0", got)
	}
	if got := l.Offset(at(150)); math.Abs(got-10) > 1e-9 {
		t.Errorf("Offset at midpoint = %f, want 10", got)
	}
	if got := l.Offset(at(75)); math.Abs(got-10*math.Sin(math.Pi/4)) > 1e-9 {
		t.Errorf("Offset at quarter = %f, want %f", got, 10*math.Sin(math.Pi/4))
	}
	if got := l.Offset(at(300)); got != 0 {
		t.Errorf("Offset at expiry = %f, want 0", got)
	}
}

func TestLungeHitDueExactlyOnce(t *testing.T) {
	l := NewLunge(10)
	l.Begin(t0)

	if l.HitDue(at(100)) {
		t.Error("hit should not fire before the window")
	}
	if !l.HitDue(at(130)) {
		t.Fatal("hit should fire once progress enters the window")
	}
	for _, ms := range []int{140, 170, 180, 250, 400} {
		if l.HitDue(at(ms)) {
			t.Errorf("hit fired again at %dms", ms)
		}
	}

	// Begin re-arms the hit coupling.
	l.Begin(at(1000))
	if !l.HitDue(at(1120)) {
		t.Error("second attack should fire its own hit")
	}
}

func TestLungeHitDueAfterMissedFrames(t *testing.T) {
	l := NewLunge(10)
	l.Begin(t0)

	// First sample after the whole window was skipped still claims the hit.
	if !l.HitDue(at(250)) {
		t.Error("hit should fire on the first sample past the window start")
	}
}

func TestLungeStoppedNeverHits(t *testing.T) {
	l := NewLunge(10)
	if l.HitDue(at(150)) {
		t.Error("a lunge that never began should not fire a hit")
	}
}

func TestHitFlashCadence(t *testing.T) {
	h := NewHitFlash()

	if !h.Visible(t0) {
		t.Error("inactive flash should be visible")
	}

	h.Begin(t0)
	tests := []struct {
		ms      int
		visible bool
	}{
		{0, true},
		{99, true},
		{100, false},
		{199, false},
		{200, true},
		{300, false},
		{399, false},
		{400, true}, // expired
	}
	for _, tt := range tests {
		if got := h.Visible(at(tt.ms)); got != tt.visible {
			t.Errorf("Visible(%dms) = %v, want %v", tt.ms, got, tt.visible)
		}
	}
}

func TestTransitionExitReachesOffscreenAtExpiry(t *testing.T) {
	tr := NewTransition(-15, -100)
	tr.Exit(t0)

	if got := tr.Position(t0); got != -15 {
		t.Errorf("exit start = %f, want -15", got)
	}
	if got := tr.Position(at(250)); got != -57.5 {
		t.Errorf("exit midpoint = %f, want -57.5", got)
	}
	if tr.Gone(at(499)) {
		t.Error("should not be gone before expiry")
	}
	if got := tr.Position(at(500)); got != -100 {
		t.Errorf("exit expiry = %f, want -100", got)
	}
	if !tr.Gone(at(500)) {
		t.Error("should be gone at expiry")
	}
	if tr.Update(at(800)) {
		t.Error("Update() should not settle an exit")
	}
	if tr.Phase != PhaseExiting || tr.Position(at(5000)) != -100 {
		t.Error("exit should hold off-screen until an entry begins")
	}
}

func TestTransitionEnterReachesRestAtExpiry(t *testing.T) {
	tr := NewTransition(0, -90)
	tr.Enter(t0)

	if got := tr.Position(t0); got != -90 {
		t.Errorf("enter start = %f, want -90", got)
	}
	if got := tr.Position(at(500)); got != 0 {
		t.Errorf("enter expiry = %f, want 0", got)
	}
	if tr.Update(at(499)) {
		t.Error("Update() should not settle before expiry")
	}
	if !tr.Update(at(500)) {
		t.Error("Update() should settle at expiry")
	}
	if tr.Phase != PhaseIdle || tr.Position(at(600)) != 0 {
		t.Error("settled transition should rest idle")
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase    Phase
		expected string
	}{
		{PhaseIdle, "idle"},
		{PhaseExiting, "exiting"},
		{PhaseEntering, "entering"},
		{Phase(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.expected {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.expected)
		}
	}
}

func TestWinnerDisplayWindow(t *testing.T) {
	w := NewWinnerDisplay()
	w.BeginAt(t0, 0.35)

	if !w.Active(at(1999)) || w.Active(at(2000)) {
		t.Error("winner window should be exactly 2000ms")
	}
	if got := w.Health(t0); got != 0.35 {
		t.Errorf("Health(0) = %f, want 0.35", got)
	}
	if got := w.Health(at(2000)); got != 1 {
		t.Errorf("Health(2000) = %f, want 1", got)
	}

	prev := w.Health(t0)
	for ms := 10; ms <= 2500; ms += 10 {
		h := w.Health(at(ms))
		if h < prev {
			t.Fatalf("Health decreased at %dms: %f < %f", ms, h, prev)
		}
		prev = h
	}
}

func TestWinnerDisplayFlash(t *testing.T) {
	w := NewWinnerDisplay()
	w.BeginAt(t0, 0.5)

	tests := []struct {
		ms int
		on bool
	}{
		{0, true},
		{299, true},
		{300, false},
		{599, false},
		{600, true},
		{2000, false}, // window closed
	}
	for _, tt := range tests {
		if got := w.FlashOn(at(tt.ms)); got != tt.on {
			t.Errorf("FlashOn(%dms) = %v, want %v", tt.ms, got, tt.on)
		}
	}
}

func TestLerpExactEnds(t *testing.T) {
	if Lerp(0.1, 1, 1) != 1 || Lerp(0.1, 1, 0) != 0.1 {
		t.Error("Lerp should hit its endpoints exactly")
	}
}
