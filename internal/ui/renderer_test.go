package ui

import (
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/battleclock/internal/combat"
	"github.com/samdwyer/battleclock/internal/gamedata"
	"github.com/samdwyer/battleclock/internal/world"
)

// Monday.
var frameTime = time.Date(2025, 6, 2, 9, 41, 0, 0, time.UTC)

func newTestRenderer(t *testing.T) (*Renderer, tcell.SimulationScreen) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	scr, err := NewScreenFrom(sim)
	if err != nil {
		t.Fatalf("NewScreenFrom() error = %v", err)
	}
	t.Cleanup(scr.Close)
	sim.SetSize(world.CanvasWidth, world.CanvasHeight/2)
	return NewRenderer(scr, world.DefaultStage(), gamedata.DefaultPalette()), sim
}

func screenText(sim tcell.SimulationScreen) string {
	w, h := sim.Size()
	var b strings.Builder
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, _, _, _ := sim.GetContent(x, y)
			b.WriteRune(r)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func nrgba(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

func battleFrame() Frame {
	f := Frame{Mode: ModeBattle, Now: frameTime, ShowClock: true}
	f.Fighters[combat.Front] = Fighter{Name: "Charmander", Health: 1}
	f.Fighters[combat.Back] = Fighter{Name: "Squirtle", Health: 1}
	return f
}

func TestFitViewport(t *testing.T) {
	canvas := world.Rect{Width: 160, Height: 144}
	tests := []struct {
		cols, rows int
		want       viewport
	}{
		{160, 72, viewport{scale: 1, width: 160, height: 144}},
		{80, 100, viewport{scale: 0.5, width: 80, height: 72, offX: 0, offY: 32}},
		{320, 72, viewport{scale: 1, width: 160, height: 144, offX: 80}},
	}
	for _, tt := range tests {
		if got := fitViewport(tt.cols, tt.rows, canvas); got != tt.want {
			t.Errorf("fitViewport(%d, %d) = %+v, want %+v", tt.cols, tt.rows, got, tt.want)
		}
	}
}

func TestComposeSpritesAndVisibility(t *testing.T) {
	r, _ := newTestRenderer(t)
	red := color.NRGBA{R: 255, A: 255}

	f := battleFrame()
	f.Fighters[combat.Back].Sprite = imaging.New(4, 4, red)
	f.Fighters[combat.Back].Pos = world.Point{X: 10.4, Y: 100.6}
	f.Fighters[combat.Back].Drawn = true

	img := r.Compose(f)
	if got := img.NRGBAAt(10, 101); got != red {
		t.Errorf("sprite pixel = %v, want %v", got, red)
	}

	f.Fighters[combat.Back].Drawn = false
	img = r.Compose(f)
	if got, bg := img.NRGBAAt(10, 101), nrgba(r.palette.Background); got != bg {
		t.Errorf("hidden sprite pixel = %v, want background %v", got, bg)
	}
}

func TestComposeHPBars(t *testing.T) {
	r, _ := newTestRenderer(t)
	bar := r.stage.HPBars[combat.Front]
	track := nrgba(r.palette.HPTrack)

	f := battleFrame()
	f.Fighters[combat.Front].Health = 0
	img := r.Compose(f)
	if got := img.NRGBAAt(bar.X+2, bar.Y+2); got != track {
		t.Errorf("empty bar interior = %v, want track %v", got, track)
	}
	if got, edge := img.NRGBAAt(bar.X, bar.Y), nrgba(r.palette.Text); got != edge {
		t.Errorf("bar outline = %v, want %v", got, edge)
	}

	f.Fighters[combat.Front].Health = 0.5
	img = r.Compose(f)
	if got := img.NRGBAAt(bar.X+2, bar.Y+2); got == track {
		t.Error("left half of a half-full bar should be filled")
	}
	if got := img.NRGBAAt(bar.X+bar.Width-3, bar.Y+2); got != track {
		t.Errorf("right half of a half-full bar = %v, want track", got)
	}
}

func TestRenderBattleText(t *testing.T) {
	r, sim := newTestRenderer(t)

	r.Render(battleFrame())
	text := screenText(sim)
	for _, want := range []string{"Charmander", "Squirtle", "09:41"} {
		if !strings.Contains(text, want) {
			t.Errorf("battle screen missing %q", want)
		}
	}

	// The back name is right-aligned to its box.
	box := r.stage.NameBoxes[combat.Back]
	end := box.X + box.Width
	row := strings.Split(text, "\n")[box.Y/2]
	if got := string([]rune(row)[end-len("Squirtle") : end]); got != "Squirtle" {
		t.Errorf("back name cells = %q, want right-aligned", got)
	}
}

func TestRenderWinnerBanner(t *testing.T) {
	r, sim := newTestRenderer(t)

	f := battleFrame()
	f.ShowClock = false
	f.Winner = "Squirtle"
	f.BannerOn = true
	r.Render(f)
	text := screenText(sim)
	if !strings.Contains(text, "SQUIRTLE") || !strings.Contains(text, WinsLabel) {
		t.Error("banner should show the upper-cased winner and WINS!")
	}
	if strings.Contains(text, "09:41") {
		t.Error("clock should be hidden")
	}

	f.BannerOn = false
	r.Render(f)
	if strings.Contains(screenText(sim), WinsLabel) {
		t.Error("banner should be dark during the off phase")
	}
}

func TestRenderDayScreen(t *testing.T) {
	r, sim := newTestRenderer(t)

	r.Render(Frame{Mode: ModeDay, Now: frameTime, ShowClock: true})
	text := screenText(sim)
	for _, want := range []string{DayLabel, "MONDAY", "09:41"} {
		if !strings.Contains(text, want) {
			t.Errorf("day screen missing %q", want)
		}
	}
	if strings.Contains(text, "Charmander") {
		t.Error("day screen should not draw names")
	}

	img := r.Compose(Frame{Mode: ModeDay})
	box := r.stage.DayBox
	if got, want := img.NRGBAAt(box.X, box.Y), nrgba(r.palette.Text); got != want {
		t.Errorf("day box border = %v, want %v", got, want)
	}
}

func TestRenderDetailScreen(t *testing.T) {
	r, sim := newTestRenderer(t)

	r.Render(Frame{Mode: ModeDetail, Now: frameTime, Loading: true})
	text := screenText(sim)
	if !strings.Contains(text, DetailTitle) || !strings.Contains(text, LoadingText) {
		t.Error("loading detail screen should show the title and LOADING...")
	}

	entry := "A strange seed was planted on its back at birth. The plant sprouts and grows with this POKéMON."
	r.Render(Frame{Mode: ModeDetail, Now: frameTime, DetailText: entry})
	text = screenText(sim)
	if strings.Contains(text, LoadingText) {
		t.Error("loaded detail screen should not show LOADING...")
	}
	for _, want := range []string{"A strange seed", "POKéMON."} {
		if !strings.Contains(text, want) {
			t.Errorf("detail screen missing %q", want)
		}
	}
}

func TestRenderTinyTerminal(t *testing.T) {
	r, sim := newTestRenderer(t)
	sim.SetSize(0, 0)
	r.Render(battleFrame()) // must not panic
}
