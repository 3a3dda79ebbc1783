package game

import (
	"bytes"
	"context"
	"errors"
	"image"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-logr/logr"

	"github.com/samdwyer/battleclock/internal/combat"
	"github.com/samdwyer/battleclock/internal/dex"
	"github.com/samdwyer/battleclock/internal/gamedata"
	"github.com/samdwyer/battleclock/internal/logging"
	"github.com/samdwyer/battleclock/internal/sprite"
	"github.com/samdwyer/battleclock/internal/status"
	"github.com/samdwyer/battleclock/internal/ui"
)

type fakeLoader struct {
	mu    sync.Mutex
	loads int
	err   error
}

func (f *fakeLoader) Load(ctx context.Context, side combat.Side, def *gamedata.CombatantDef) (*sprite.Sprite, error) {
	f.mu.Lock()
	f.loads++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &sprite.Sprite{Name: def.Name, Side: side, Image: image.NewNRGBA(image.Rect(0, 0, 4, 4))}, nil
}

type fakeEntries struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (f *fakeEntries) Describe(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	f.names = append(f.names, name)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return name + " stores electricity in its cheeks.", nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 7
	return cfg
}

type testGame struct {
	*Game
	sim     tcell.SimulationScreen
	loader  *fakeLoader
	entries *fakeEntries
	board   *status.Board
}

func newTestGame(t *testing.T, opts ...func(*Options)) *testGame {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	scr, err := ui.NewScreenFrom(sim)
	if err != nil {
		t.Fatalf("NewScreenFrom() error = %v", err)
	}
	sim.SetSize(160, 72)

	tg := &testGame{sim: sim, loader: &fakeLoader{}, entries: &fakeEntries{}, board: &status.Board{}}
	o := Options{
		Config:  testConfig(),
		Roster:  testRoster(t),
		Screen:  scr,
		Sprites: tg.loader,
		Entries: tg.entries,
		Board:   tg.board,
		Logger:  logr.Discard(),
		Clock:   func() time.Time { return t0 },
	}
	for _, opt := range opts {
		opt(&o)
	}
	tg.Game, err = New(o)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(tg.Close)

	if err := tg.start(context.Background()); err != nil {
		t.Fatalf("start() error = %v", err)
	}
	return tg
}

// drain applies n asynchronous results the way the loop does.
func (tg *testGame) drain(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case apply := <-tg.results:
			apply(tg.now)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for result %d of %d", i+1, n)
		}
	}
}

// ready runs the first battle's entry so both sides are on screen.
func (tg *testGame) ready(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	tg.tick(ctx, at(600))
	tg.drain(t, 2)
	tg.tick(ctx, at(1200))
}

func (tg *testGame) key(k tcell.Key, r rune) {
	tg.handleEvent(context.Background(), tcell.NewEventKey(k, r, tcell.ModNone))
}

func (tg *testGame) mouse(buttons tcell.ButtonMask) {
	tg.handleEvent(context.Background(), tcell.NewEventMouse(10, 10, buttons, tcell.ModNone))
}

func (tg *testGame) text() string {
	w, h := tg.sim.Size()
	var b strings.Builder
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, _, _, _ := tg.sim.GetContent(x, y)
			b.WriteRune(r)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func TestNewRequiresRoster(t *testing.T) {
	if _, err := New(Options{Config: testConfig(), Logger: logr.Discard()}); err == nil {
		t.Error("New() without a roster should fail")
	}
}

func TestNewRejectsBadPalette(t *testing.T) {
	cfg := testConfig()
	cfg.Palette.Text = "not-a-colour"
	if _, err := New(Options{Config: cfg, Roster: testRoster(t), Logger: logr.Discard()}); err == nil {
		t.Error("New() with an invalid palette should fail")
	}
}

func TestSpritesLoadAfterExit(t *testing.T) {
	tg := newTestGame(t)
	tg.ready(t)

	if tg.loader.loads != 2 {
		t.Errorf("loads = %d, want 2", tg.loader.loads)
	}
	view := tg.session.View(tg.now)
	for _, side := range combat.Sides {
		if !view.Sides[side].Drawn {
			t.Errorf("%s should be drawn once its sprite has entered", side)
		}
	}
}

func TestKeyAndMouseActivation(t *testing.T) {
	tg := newTestGame(t)
	tg.ready(t)

	tg.key(tcell.KeyEnter, 0)
	if got := tg.session.Turns(); got != 1 {
		t.Fatalf("turns after Enter = %d, want 1", got)
	}

	// Same tick: a second activation must not resolve another turn.
	tg.key(tcell.KeyRune, ' ')
	tg.mouse(tcell.Button1)
	if got := tg.session.Turns(); got != 1 {
		t.Errorf("turns after same-tick activations = %d, want 1", got)
	}

	// A held button does not repeat.
	tg.tick(context.Background(), at(1300))
	tg.mouse(tcell.Button1)
	if got := tg.session.Turns(); got != 1 {
		t.Errorf("turns while button held = %d, want 1", got)
	}

	tg.mouse(tcell.ButtonNone)
	tg.mouse(tcell.Button1)
	if got := tg.session.Turns(); got != 2 {
		t.Errorf("turns after a fresh click = %d, want 2", got)
	}
}

func TestScreenCyclingAndDetailFetch(t *testing.T) {
	tg := newTestGame(t)
	tg.ready(t)

	tg.key(tcell.KeyTab, 0)
	if tg.screens.Mode() != ScreenDay {
		t.Fatalf("mode after Tab = %s, want day", tg.screens.Mode())
	}
	tg.key(tcell.KeyRune, 'd')
	if tg.screens.Mode() != ScreenBattle {
		t.Fatalf("mode after d = %s, want battle", tg.screens.Mode())
	}

	tg.key(tcell.KeyTab, 0)
	tg.key(tcell.KeyEnter, 0)
	if tg.screens.Mode() != ScreenDetail || !tg.screens.Loading() {
		t.Fatalf("Enter on the day screen should open a loading detail screen")
	}
	if tg.session.Turns() != 0 {
		t.Error("activation on the day screen must not take a turn")
	}

	tg.drain(t, 1)
	challenger := tg.session.Challenger().Name
	if got, want := tg.screens.Text(), challenger+" stores electricity in its cheeks."; got != want {
		t.Errorf("detail text = %q, want %q", got, want)
	}

	tg.tick(context.Background(), at(1300))
	if !strings.Contains(tg.text(), "POKEDEX ENTRY") {
		t.Error("detail screen should be rendered")
	}
}

func TestDetailFetchErrorText(t *testing.T) {
	tg := newTestGame(t)
	tg.entries.err = dex.ErrMissingAPIKey
	tg.ready(t)

	tg.key(tcell.KeyTab, 0)
	tg.key(tcell.KeyEnter, 0)
	tg.drain(t, 1)
	if got := tg.screens.Text(); got != DetailFailed {
		t.Errorf("detail text = %q, want %q", got, DetailFailed)
	}
}

func TestDetailFetchErrorLeftToSource(t *testing.T) {
	var buf bytes.Buffer
	tg := newTestGame(t, func(o *Options) { o.Logger = logging.New(&buf, 1) })
	tg.entries.err = errors.New("quota exhausted")
	tg.ready(t)

	tg.key(tcell.KeyTab, 0)
	tg.key(tcell.KeyEnter, 0)
	tg.drain(t, 1)
	if got := tg.screens.Text(); got != DetailFailed {
		t.Errorf("detail text = %q, want %q", got, DetailFailed)
	}
	// The entry source reports its own failures.
	if strings.Contains(buf.String(), "quota exhausted") {
		t.Errorf("game logged the entry failure:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "fetching entry") {
		t.Error("expected the fetch itself to be logged")
	}
}

func TestQuitKeys(t *testing.T) {
	tests := []struct {
		name string
		key  tcell.Key
		r    rune
	}{
		{"escape", tcell.KeyEscape, 0},
		{"ctrl-c", tcell.KeyCtrlC, 0},
		{"q", tcell.KeyRune, 'q'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tg := newTestGame(t)
			tg.key(tt.key, tt.r)
			if tg.running {
				t.Error("game should stop")
			}
		})
	}
}

func TestTickRendersAndPublishes(t *testing.T) {
	tg := newTestGame(t)
	tg.ready(t)

	if !strings.Contains(tg.text(), "09:41") {
		t.Error("battle screen should show the clock")
	}

	snap, ok := tg.board.Latest()
	if !ok {
		t.Fatal("no snapshot published")
	}
	lineup := tg.session.Lineup()
	if snap.ID != tg.session.ID() || snap.State != "active" || snap.Screen != "battle" {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Front.Name != lineup[combat.Front].GetName() || snap.Back.Name != lineup[combat.Back].GetName() {
		t.Errorf("snapshot sides = %+v / %+v", snap.Front, snap.Back)
	}
	if snap.Front.Active == snap.Back.Active {
		t.Error("exactly one side should be active")
	}
}

func TestSpriteFailureKeepsSideHidden(t *testing.T) {
	tg := newTestGame(t)
	tg.loader.err = errors.New("decode failed")
	tg.ready(t)

	view := tg.session.View(tg.now)
	for _, side := range combat.Sides {
		if view.Sides[side].Drawn {
			t.Errorf("%s should stay hidden after a failed load", side)
		}
	}
}

func TestRunHeadlessStopsAfterBattles(t *testing.T) {
	cfg := testConfig()
	cfg.TurnInterval = time.Second
	cfg.FrameInterval = time.Millisecond

	// Each reading moves the clock a second so turns and restarts come due
	// without waiting in real time.
	var ticks int
	clock := func() time.Time {
		ticks++
		return t0.Add(time.Duration(ticks) * time.Second)
	}

	board := &status.Board{}
	g, err := New(Options{
		Config:     cfg,
		Roster:     testRoster(t),
		Sprites:    &fakeLoader{},
		Board:      board,
		Logger:     logr.Discard(),
		MaxBattles: 2,
		Clock:      clock,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := g.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("Run() should stop on its own after two battles")
	}
	if g.completed != 2 {
		t.Errorf("completed = %d, want 2", g.completed)
	}
	if g.session.Battles() != 2 {
		t.Errorf("battles started = %d, want 2", g.session.Battles())
	}
	snap, ok := board.Latest()
	if !ok || snap.State != "resolving" || snap.Battle != 2 {
		t.Errorf("final snapshot = %+v, published = %v", snap, ok)
	}
}
