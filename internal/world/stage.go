// Package world describes the fixed logical canvas the battle is laid out on.
package world

import "github.com/samdwyer/battleclock/internal/combat"

const (
	// Logical canvas dimensions. Everything is laid out in these pixels and
	// scaled to the output at draw time.
	CanvasWidth  = 160
	CanvasHeight = 144

	// Attack lunge peak displacement.
	LungeOffset = 10
)

// Axis is the direction a slot slides along during a transition.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

// Slot describes where one side's sprite lives on the canvas.
type Slot struct {
	Size      Rect    // Sprite box at its resting position
	Axis      Axis    // Transition slide axis
	Offscreen float64 // Coordinate along Axis when fully off-screen
	LungeDir  float64 // +1 or -1 along X during an attack
}

// Rest returns the resting coordinate along the slot's transition axis.
func (s Slot) Rest() float64 {
	if s.Axis == AxisY {
		return float64(s.Size.Y)
	}
	return float64(s.Size.X)
}

// At returns the sprite's top-left corner with the transition coordinate
// replaced by coord.
func (s Slot) At(coord float64) Point {
	p := Point{X: float64(s.Size.X), Y: float64(s.Size.Y)}
	if s.Axis == AxisY {
		p.Y = coord
	} else {
		p.X = coord
	}
	return p
}

// NameBox is a single-line label region. Left-aligned boxes start at X;
// right-aligned boxes end at X+Width.
type NameBox struct {
	Rect
	RightAligned bool
}

// Stage holds the complete layout of every screen.
type Stage struct {
	Canvas    Rect
	Slots     [2]Slot
	HPBars    [2]Rect
	NameBoxes [2]NameBox

	Clock            Point // Centre of the clock readout
	Winner           Point // Centre of the first winner line
	WinnerLineHeight int

	DayBox      Rect
	DetailTitle Point
	DetailBody  Rect // Wrapped entry text region
	DetailNote  Point
}

// DefaultStage returns the layout used on the 160x144 canvas.
func DefaultStage() Stage {
	var s Stage
	s.Canvas = Rect{Width: CanvasWidth, Height: CanvasHeight}

	s.Slots[combat.Front] = Slot{
		Size:      Rect{X: 77, Y: -15, Width: 90, Height: 90},
		Axis:      AxisY,
		Offscreen: -90 - 10,
		LungeDir:  -1,
	}
	s.Slots[combat.Back] = Slot{
		Size:      Rect{X: 0, Y: 35, Width: 80, Height: 80},
		Axis:      AxisX,
		Offscreen: -80 - 10,
		LungeDir:  1,
	}

	s.HPBars[combat.Front] = Rect{X: 30, Y: 17, Width: 50, Height: 5}
	s.HPBars[combat.Back] = Rect{X: 93, Y: 83, Width: 50, Height: 5}

	s.NameBoxes[combat.Front] = NameBox{Rect: Rect{X: 11, Y: 7, Width: 80 - 11, Height: 8}}
	s.NameBoxes[combat.Back] = NameBox{Rect: Rect{X: 80, Y: 72, Width: 149 - 80, Height: 8}, RightAligned: true}

	s.Clock = Point{X: 82, Y: 117}
	s.Winner = Point{X: 82, Y: 112}
	s.WinnerLineHeight = 12

	s.DayBox = Rect{X: (CanvasWidth - 120) / 2, Y: (CanvasHeight-30)/2 - 10, Width: 120, Height: 30}
	s.DetailTitle = Point{X: 80, Y: 20}
	s.DetailBody = Rect{X: 10, Y: 40, Width: 140, Height: 64}
	s.DetailNote = Point{X: 80, Y: 72}
	return s
}

// SlotPosition returns where a side's sprite is drawn given its transition
// coordinate and the current lunge displacement.
func (s Stage) SlotPosition(side combat.Side, coord, lunge float64) Point {
	slot := s.Slots[side]
	return slot.At(coord).Add(slot.LungeDir*lunge, 0)
}
