// Package game provides the battle loop, its state machine and the screen
// controller.
package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/battleclock/internal/combat"
	"github.com/samdwyer/battleclock/internal/gamedata"
	"github.com/samdwyer/battleclock/internal/sprite"
	"github.com/samdwyer/battleclock/internal/status"
	"github.com/samdwyer/battleclock/internal/telemetry"
	"github.com/samdwyer/battleclock/internal/ui"
	"github.com/samdwyer/battleclock/internal/world"
)

// SpriteLoader loads a side's sprite image. *sprite.Loader satisfies it.
type SpriteLoader interface {
	Load(ctx context.Context, side combat.Side, def *gamedata.CombatantDef) (*sprite.Sprite, error)
}

// EntrySource fetches a combatant's descriptive entry. *dex.Client
// satisfies it.
type EntrySource interface {
	Describe(ctx context.Context, name string) (string, error)
}

// Options configures a Game.
type Options struct {
	Config  Config
	Roster  *gamedata.Roster
	Screen  *ui.Screen // Nil runs headless
	Sprites SpriteLoader
	Entries EntrySource
	Board   *status.Board // Optional status snapshot sink
	Logger  logr.Logger

	// MaxBattles stops the loop after that many battles have ended.
	// Zero runs until cancelled.
	MaxBattles int

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Game holds the entire game state and drives it from a single goroutine.
// Terminal input and asynchronous results are funnelled into that goroutine
// through channels.
type Game struct {
	cfg      Config
	screen   *ui.Screen
	renderer *ui.Renderer
	session  *Session
	screens  *Screens
	sprites  SpriteLoader
	entries  EntrySource
	board    *status.Board
	log      logr.Logger
	clock    func() time.Time

	events  chan tcell.Event
	results chan func(now time.Time)
	ctx     context.Context
	wg      sync.WaitGroup

	now         time.Time // Time of the last tick, shared by everything handled after it
	running     bool
	mouseDown   bool
	maxBattles  int
	completed   int
	lastOutcome *Outcome
	closeOnce   sync.Once
}

// New creates a new game instance.
func New(opts Options) (*Game, error) {
	if opts.Roster == nil {
		return nil, errors.New("game: roster is required")
	}
	palette, err := opts.Config.BuildPalette()
	if err != nil {
		return nil, err
	}

	seed := opts.Config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	stage := world.DefaultStage()
	g := &Game{
		cfg:        opts.Config,
		screen:     opts.Screen,
		sprites:    opts.Sprites,
		entries:    opts.Entries,
		board:      opts.Board,
		log:        opts.Logger,
		clock:      clock,
		events:     make(chan tcell.Event, 16),
		results:    make(chan func(time.Time), 16),
		ctx:        context.Background(),
		running:    true,
		maxBattles: opts.MaxBattles,
	}
	if g.screen != nil {
		g.renderer = ui.NewRenderer(g.screen, stage, palette)
	}

	g.session = NewSession(SessionOptions{
		Roster:       opts.Roster,
		Rand:         rand.New(rand.NewSource(seed)),
		Sprites:      g,
		Stage:        stage,
		TurnInterval: opts.Config.TurnInterval,
		Logger:       opts.Logger.WithName("battle"),
	})
	g.screens = NewScreens(g, opts.Logger.WithName("screens"))

	g.log.Info("game created", "seed", seed, "headless", g.screen == nil,
		"turn_interval", opts.Config.TurnInterval.String(), "roster", opts.Roster.Count())
	return g, nil
}

// Run executes the main game loop until ctx is cancelled, the user quits, or
// MaxBattles battles have ended.
func (g *Game) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := g.start(ctx); err != nil {
		g.Close()
		return err
	}

	if g.screen != nil {
		g.wg.Add(1)
		go g.pollEvents(ctx)
	}

	ticker := time.NewTicker(g.cfg.FrameInterval)
	defer ticker.Stop()

	g.tick(ctx, g.now)
	for g.running {
		select {
		case <-ctx.Done():
			g.running = false
		case ev := <-g.events:
			g.handleEvent(ctx, ev)
		case apply := <-g.results:
			apply(g.now)
		case <-ticker.C:
			g.tick(ctx, g.clock())
		}
	}

	// Cleanup
	cancel()
	g.Close()
	g.wg.Wait()
	g.log.Info("game stopped", "battles", g.session.Battles(), "completed", g.completed)
	return nil
}

// start begins the first battle.
func (g *Game) start(ctx context.Context) error {
	tracer := telemetry.Tracer("game")
	ctx, span := tracer.Start(ctx, "game.init")
	defer span.End()

	g.ctx = ctx
	g.now = g.clock()
	if err := g.session.Begin(ctx, g.now); err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(
		attribute.String("battle.id", g.session.ID()),
		attribute.Bool("headless", g.screen == nil),
	)
	return nil
}

// tick advances every timer to now, then draws and publishes the result.
func (g *Game) tick(ctx context.Context, now time.Time) {
	if now.Before(g.now) {
		now = g.now
	}
	g.now = now

	g.session.Update(ctx, now)
	g.screens.Update(now)

	view := g.session.View(now)
	g.countOutcome()

	if g.renderer != nil {
		g.renderer.Render(g.frame(view, now))
	}
	if g.board != nil {
		g.board.Publish(g.snapshot(view, now))
	}
}

// countOutcome tracks finished battles for MaxBattles.
func (g *Game) countOutcome() {
	o := g.session.Outcome()
	if o == nil || o == g.lastOutcome {
		return
	}
	g.lastOutcome = o
	g.completed++
	if g.maxBattles > 0 && g.completed >= g.maxBattles {
		g.log.Info("battle limit reached", "completed", g.completed)
		g.running = false
	}
}

// frame converts the sampled session into what the renderer draws.
func (g *Game) frame(v BattleView, now time.Time) ui.Frame {
	f := ui.Frame{
		Now:       now,
		ShowClock: v.ShowClock,
		Winner:    v.Winner,
		BannerOn:  v.BannerOn,
	}
	switch g.screens.Mode() {
	case ScreenDay:
		f.Mode = ui.ModeDay
	case ScreenDetail:
		f.Mode = ui.ModeDetail
		f.Loading = g.screens.Loading()
		f.DetailText = g.screens.Text()
	default:
		f.Mode = ui.ModeBattle
	}
	for _, side := range combat.Sides {
		sv := v.Sides[side]
		fighter := ui.Fighter{Name: sv.Name, Health: sv.Health, Drawn: sv.Drawn, Pos: sv.Position}
		if sv.Sprite != nil {
			fighter.Sprite = sv.Sprite.Image
		}
		f.Fighters[side] = fighter
	}
	return f
}

// snapshot converts the sampled session into the status payload.
func (g *Game) snapshot(v BattleView, now time.Time) status.Battle {
	side := func(s combat.Side) status.Side {
		sv := v.Sides[s]
		return status.Side{
			Name:   sv.Name,
			Health: sv.Health,
			Drawn:  sv.Drawn,
			Active: v.State == StateActive && v.Active == s,
		}
	}
	b := status.Battle{
		ID:        v.ID,
		State:     v.State.String(),
		Screen:    g.screens.Mode().String(),
		Battle:    v.Battle,
		Turn:      v.Turn,
		Front:     side(combat.Front),
		Back:      side(combat.Back),
		UpdatedAt: now,
	}
	if o := g.session.Outcome(); o != nil && o.HasWinner {
		b.Winner = o.Winner
	}
	return b
}

// RequestSprite loads a sprite off the loop and hands the result back to
// the session.
func (g *Game) RequestSprite(side combat.Side, def *gamedata.CombatantDef, ticket uint64) {
	if g.sprites == nil {
		return
	}
	g.async(func(ctx context.Context) func(time.Time) {
		spr, err := g.sprites.Load(ctx, side, def)
		return func(now time.Time) {
			g.session.SpriteReady(side, ticket, spr, err, now)
		}
	})
}

// FetchDetail fetches an entry off the loop and hands the result back to
// the screen controller.
func (g *Game) FetchDetail(name string) {
	if g.entries == nil {
		return
	}
	g.async(func(ctx context.Context) func(time.Time) {
		text, err := g.entries.Describe(ctx, name)
		return func(now time.Time) {
			g.screens.DetailReady(name, text, err, now)
		}
	})
}

// async runs work on its own goroutine and posts the returned closure to the
// loop.
func (g *Game) async(work func(ctx context.Context) func(time.Time)) {
	ctx := g.ctx
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		apply := work(ctx)
		select {
		case g.results <- apply:
		case <-ctx.Done():
		}
	}()
}

// pollEvents forwards terminal events to the loop until the screen closes.
func (g *Game) pollEvents(ctx context.Context) {
	defer g.wg.Done()
	for {
		ev := g.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case g.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// handleEvent processes a single input event.
func (g *Game) handleEvent(ctx context.Context, ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		g.handleKeyEvent(ctx, ev)
	case *tcell.EventMouse:
		g.handleMouseEvent(ctx, ev)
	case *tcell.EventResize:
		if g.screen != nil {
			g.screen.Sync()
		}
	}
}

// handleKeyEvent processes keyboard input.
func (g *Game) handleKeyEvent(ctx context.Context, ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		g.running = false

	case tcell.KeyEnter:
		g.activate(ctx)
	case tcell.KeyTab:
		g.screens.Cycle()

	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			g.running = false
		case ' ':
			g.activate(ctx)
		case 'd', 'D':
			g.screens.Cycle()
		}
	}
}

// handleMouseEvent activates on the press edge of the primary button.
func (g *Game) handleMouseEvent(ctx context.Context, ev *tcell.EventMouse) {
	pressed := ev.Buttons()&tcell.Button1 != 0
	if pressed && !g.mouseDown {
		g.activate(ctx)
	}
	g.mouseDown = pressed
}

func (g *Game) activate(ctx context.Context) {
	g.screens.Activate(ctx, g.now, g.session)
}

// Close cleans up game resources.
func (g *Game) Close() {
	g.closeOnce.Do(func() {
		if g.screen != nil {
			g.screen.Close()
		}
	})
}
