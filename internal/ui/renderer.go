package ui

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/battleclock/internal/combat"
	"github.com/samdwyer/battleclock/internal/gamedata"
	"github.com/samdwyer/battleclock/internal/world"
)

// Mode selects which screen a frame shows.
type Mode int

const (
	ModeBattle Mode = iota
	ModeDay
	ModeDetail
)

// Fighter is one side as it should appear in a frame.
type Fighter struct {
	Name   string
	Health float64
	Sprite *image.NRGBA
	Drawn  bool
	Pos    world.Point // Sprite top-left on the canvas
}

// Frame is everything needed to draw one tick.
type Frame struct {
	Mode      Mode
	Now       time.Time
	ShowClock bool

	Fighters [2]Fighter
	Winner   string // Empty when no banner is shown
	BannerOn bool

	Loading    bool
	DetailText string
}

// Fixed screen texts.
const (
	DetailTitle = "POKEDEX ENTRY"
	LoadingText = "LOADING..."
	DayLabel    = "DAY:"
	WinsLabel   = "WINS!"
)

// viewport maps the logical canvas onto terminal cells. Each cell shows two
// vertically stacked pixels.
type viewport struct {
	scale      float64
	width      int // Scaled canvas width in pixels (= cells)
	height     int // Scaled canvas height in pixels (= 2 * rows)
	offX, offY int
}

func fitViewport(cols, rows int, canvas world.Rect) viewport {
	scale := math.Min(float64(cols)/float64(canvas.Width), float64(rows*2)/float64(canvas.Height))
	vp := viewport{
		scale:  scale,
		width:  int(float64(canvas.Width) * scale),
		height: int(float64(canvas.Height)*scale) &^ 1,
	}
	vp.offX = (cols - vp.width) / 2
	vp.offY = (rows - vp.height/2) / 2
	return vp
}

// cell returns the terminal cell showing canvas point (x, y).
func (vp viewport) cell(x, y float64) (int, int) {
	return vp.offX + int(x*vp.scale), vp.offY + int(y*vp.scale/2)
}

// Renderer handles drawing the game to the screen.
type Renderer struct {
	screen  *Screen
	stage   world.Stage
	palette gamedata.Palette
}

// NewRenderer creates a new renderer for the given screen.
func NewRenderer(screen *Screen, stage world.Stage, palette gamedata.Palette) *Renderer {
	return &Renderer{screen: screen, stage: stage, palette: palette}
}

// Render draws a frame to the screen.
func (r *Renderer) Render(f Frame) {
	r.screen.Clear()

	cols, rows := r.screen.Size()
	vp := fitViewport(cols, rows, r.stage.Canvas)
	if vp.width <= 0 || vp.height <= 0 {
		r.screen.Show()
		return
	}

	canvas := r.Compose(f)
	scaled := imaging.Resize(canvas, vp.width, vp.height, imaging.NearestNeighbor)
	for cy := 0; cy < vp.height/2; cy++ {
		for cx := 0; cx < vp.width; cx++ {
			top := scaled.NRGBAAt(cx, cy*2)
			bottom := scaled.NRGBAAt(cx, cy*2+1)
			style := tcell.StyleDefault.Foreground(cellColor(top)).Background(cellColor(bottom))
			r.screen.SetContent(vp.offX+cx, vp.offY+cy, '▀', style)
		}
	}

	r.drawText(f, vp)
	r.screen.Show()
}

// Compose paints the pixel layer of a frame on a fresh canvas.
func (r *Renderer) Compose(f Frame) *image.NRGBA {
	canvas := imaging.New(r.stage.Canvas.Width, r.stage.Canvas.Height, r.palette.Background)

	switch f.Mode {
	case ModeBattle:
		for _, side := range combat.Sides {
			fighter := f.Fighters[side]
			if !fighter.Drawn || fighter.Sprite == nil {
				continue
			}
			pos := image.Pt(int(math.Round(fighter.Pos.X)), int(math.Round(fighter.Pos.Y)))
			canvas = imaging.Overlay(canvas, fighter.Sprite, pos, 1.0)
		}
		for _, side := range combat.Sides {
			canvas = r.drawHPBar(canvas, r.stage.HPBars[side], f.Fighters[side].Health)
		}
	case ModeDay:
		canvas = outline(canvas, r.stage.DayBox, 2, r.palette.Text)
	}
	return canvas
}

// drawHPBar fills the bar in proportion to health and outlines it.
func (r *Renderer) drawHPBar(canvas *image.NRGBA, bar world.Rect, health float64) *image.NRGBA {
	health = combat.Clamp01(health)
	canvas = fill(canvas, bar, r.palette.HPTrack)
	if w := int(math.Round(health * float64(bar.Width))); w > 0 {
		canvas = fill(canvas, world.Rect{X: bar.X, Y: bar.Y, Width: w, Height: bar.Height}, r.palette.HealthColor(health))
	}
	return outline(canvas, bar, 1, r.palette.Text)
}

func (r *Renderer) drawText(f Frame, vp viewport) {
	style := tcell.StyleDefault.
		Foreground(gamedata.TCellColor(r.palette.Text)).
		Background(gamedata.TCellColor(r.palette.Background))

	switch f.Mode {
	case ModeBattle:
		r.drawNames(f, vp, style)
		if f.Winner != "" && f.BannerOn {
			r.centered(vp, r.stage.Winner, Upper(f.Winner), style.Bold(true))
			below := r.stage.Winner.Add(0, float64(r.stage.WinnerLineHeight))
			r.centered(vp, below, WinsLabel, style.Bold(true))
		}
	case ModeDay:
		box := r.stage.DayBox
		cx := float64(box.X) + float64(box.Width)/2
		r.centered(vp, world.Point{X: cx, Y: float64(box.Y) + 6}, DayLabel, style)
		day := Upper(f.Now.Weekday().String())
		r.centered(vp, world.Point{X: cx, Y: float64(box.Y+box.Height) - 8}, day, style.Bold(true))
	case ModeDetail:
		r.centered(vp, r.stage.DetailTitle, DetailTitle, style.Bold(true))
		if f.Loading {
			r.centered(vp, r.stage.DetailNote, LoadingText, style)
		} else {
			body := r.stage.DetailBody
			x, y := vp.cell(float64(body.X), float64(body.Y))
			width := int(float64(body.Width) * vp.scale)
			for i, line := range Wrap(f.DetailText, width) {
				r.screen.PutString(x, y+i, line, style)
			}
		}
	}

	if f.ShowClock {
		clock := fmt.Sprintf("%02d:%02d", f.Now.Hour(), f.Now.Minute())
		r.centered(vp, r.stage.Clock, clock, style.Bold(true))
	}
}

func (r *Renderer) drawNames(f Frame, vp viewport, style tcell.Style) {
	for _, side := range combat.Sides {
		box := r.stage.NameBoxes[side]
		width := int(float64(box.Width) * vp.scale)
		name := Truncate(f.Fighters[side].Name, width)
		if box.RightAligned {
			x, y := vp.cell(float64(box.X+box.Width), float64(box.Y))
			r.screen.PutString(x-Width(name), y, name, style)
			continue
		}
		x, y := vp.cell(float64(box.X), float64(box.Y))
		r.screen.PutString(x, y, name, style)
	}
}

// centered draws s centred on canvas point p.
func (r *Renderer) centered(vp viewport, p world.Point, s string, style tcell.Style) {
	x, y := vp.cell(p.X, p.Y)
	r.screen.PutString(x-Width(s)/2, y, s, style)
}

func fill(canvas *image.NRGBA, rect world.Rect, c color.Color) *image.NRGBA {
	if rect.Width <= 0 || rect.Height <= 0 {
		return canvas
	}
	return imaging.Paste(canvas, imaging.New(rect.Width, rect.Height, c), image.Pt(rect.X, rect.Y))
}

// outline draws a border of the given thickness inside rect.
func outline(canvas *image.NRGBA, rect world.Rect, thickness int, c color.Color) *image.NRGBA {
	canvas = fill(canvas, world.Rect{X: rect.X, Y: rect.Y, Width: rect.Width, Height: thickness}, c)
	canvas = fill(canvas, world.Rect{X: rect.X, Y: rect.Y + rect.Height - thickness, Width: rect.Width, Height: thickness}, c)
	canvas = fill(canvas, world.Rect{X: rect.X, Y: rect.Y, Width: thickness, Height: rect.Height}, c)
	return fill(canvas, world.Rect{X: rect.X + rect.Width - thickness, Y: rect.Y, Width: thickness, Height: rect.Height}, c)
}

func cellColor(c color.NRGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
