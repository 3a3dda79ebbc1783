package game

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/battleclock/internal/anim"
	"github.com/samdwyer/battleclock/internal/combat"
	"github.com/samdwyer/battleclock/internal/entity"
	"github.com/samdwyer/battleclock/internal/gamedata"
	"github.com/samdwyer/battleclock/internal/sprite"
	"github.com/samdwyer/battleclock/internal/telemetry"
	"github.com/samdwyer/battleclock/internal/world"
)

const (
	// DefaultTurnInterval is the autonomous turn cadence.
	DefaultTurnInterval = 5 * time.Minute

	// RestartDelay separates a battle's outcome from the next battle.
	RestartDelay = 3000 * time.Millisecond

	// EndGuard blocks turns right after a battle ends.
	EndGuard = 50 * time.Millisecond
)

// Scheduled event names.
const (
	eventRestart    = "battle.restart"
	eventSpriteSwap = "sprite.swap"
)

// ErrBattleInProgress is returned when Begin is called on a session that
// already started its first battle.
var ErrBattleInProgress = errors.New("battle already in progress")

// BattleState is the lifecycle of the current battle.
type BattleState int

const (
	// StateIdle - no battle has started yet
	StateIdle BattleState = iota
	// StateActive - turns are being taken
	StateActive
	// StateResolving - outcome recorded, waiting for the restart
	StateResolving
)

// String returns a human-readable state name.
func (s BattleState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateResolving:
		return "resolving"
	default:
		return "unknown"
	}
}

// Random supplies the session's randomness. *rand.Rand satisfies it.
type Random interface {
	Float64() float64
	Intn(n int) int
}

// SpriteRequester starts an asynchronous sprite load. The result must be
// handed back to Session.SpriteReady on the loop goroutine with the same
// ticket.
type SpriteRequester interface {
	RequestSprite(side combat.Side, def *gamedata.CombatantDef, ticket uint64)
}

// Outcome is a finished battle's recorded result.
type Outcome struct {
	combat.Outcome
	At              time.Time
	Def             *gamedata.CombatantDef // Winner definition, nil on a tie
	HealthAtVictory float64
}

// SessionOptions configures a Session.
type SessionOptions struct {
	Roster       *gamedata.Roster
	Rand         Random
	Scheduler    *Scheduler
	Sprites      SpriteRequester
	Stage        world.Stage
	TurnInterval time.Duration
	Logger       logr.Logger
}

// Session owns the battle state machine: selection, turns, outcomes and the
// timed animations that depend on them. All methods must be called from the
// loop goroutine.
type Session struct {
	roster       *gamedata.Roster
	rng          Random
	resolver     *combat.Resolver
	sched        *Scheduler
	requester    SpriteRequester
	stage        world.Stage
	turnInterval time.Duration
	log          logr.Logger

	id      string
	state   BattleState
	started bool
	battles int

	lineup       entity.Lineup
	active       combat.Side
	locked       bool
	turnCount    int
	lastTurn     time.Time // Auto-turn reference, reset on battle start
	lastResolved time.Time // Instant of the most recent resolved turn
	endedAt      time.Time

	outcome     *Outcome
	retained    combat.Side
	hasRetained bool

	lunge     anim.Lunge
	attacker  combat.Side
	hit       anim.HitFlash
	defender  combat.Side
	defending bool
	winner    anim.WinnerDisplay

	transitions [2]anim.Transition
	sprites     [2]*sprite.Sprite
	tickets     [2]uint64
	swapping    [2]bool
	inPlace     [2]bool // Retained side reloading without a transition
}

// NewSession creates a session. Nothing happens until Begin.
func NewSession(opts SessionOptions) *Session {
	interval := opts.TurnInterval
	if interval <= 0 {
		interval = DefaultTurnInterval
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = NewScheduler()
	}

	s := &Session{
		roster:       opts.Roster,
		rng:          opts.Rand,
		resolver:     combat.NewResolver(opts.Rand),
		sched:        sched,
		requester:    opts.Sprites,
		stage:        opts.Stage,
		turnInterval: interval,
		log:          opts.Logger,
		lunge:        anim.NewLunge(world.LungeOffset),
		hit:          anim.NewHitFlash(),
		winner:       anim.NewWinnerDisplay(),
	}
	for _, side := range combat.Sides {
		slot := opts.Stage.Slots[side]
		s.transitions[side] = anim.NewTransition(slot.Rest(), slot.Offscreen)
	}
	return s
}

// Begin starts the first battle. Later battles start on their own.
func (s *Session) Begin(ctx context.Context, now time.Time) error {
	if s.started {
		return ErrBattleInProgress
	}
	s.started = true
	s.startBattle(ctx, now)
	return nil
}

// startBattle selects combatants and resets every battle variable.
func (s *Session) startBattle(ctx context.Context, now time.Time) {
	tracer := telemetry.Tracer("battle")
	_, span := tracer.Start(ctx, "battle.start")
	defer span.End()

	var defs [2]*gamedata.CombatantDef
	var exits [2]bool

	if prev := s.outcome; prev != nil && prev.HasWinner {
		kept := prev.WinningSide
		defs[kept] = prev.Def
		defs[kept.Opponent()] = s.roster.PickExcluding(s.rng, prev.Def.Name)
		exits[kept.Opponent()] = true
		s.retained = kept
		s.hasRetained = true
	} else {
		defs[combat.Front], defs[combat.Back] = s.roster.PickPair(s.rng)
		exits = [2]bool{true, true}
		s.hasRetained = false
	}

	s.id = uuid.NewString()
	s.outcome = nil
	s.lineup = entity.NewLineup(entity.NewFighter(defs[combat.Front]), entity.NewFighter(defs[combat.Back]))
	s.active = combat.Side(s.rng.Intn(2))
	s.locked = false
	s.turnCount = 0
	s.lastTurn = now
	s.endedAt = time.Time{}
	s.state = StateActive
	s.battles++

	s.lunge.Stop()
	s.hit.Stop()
	s.defending = false
	s.winner.Stop()

	for _, side := range combat.Sides {
		if !exits[side] {
			s.transitions[side].Settle()
			s.swapping[side] = false
			s.refreshRetained(side)
			continue
		}
		s.beginSwap(now, side)
	}

	span.SetAttributes(
		attribute.String("battle.id", s.id),
		attribute.Int("battle.number", s.battles),
		attribute.String("front", defs[combat.Front].Name),
		attribute.String("back", defs[combat.Back].Name),
		attribute.String("first_attacker", s.active.String()),
		attribute.Bool("winner_retained", s.hasRetained),
	)
	s.log.Info("battle started", "id", s.id, "number", s.battles,
		"front", defs[combat.Front].Name, "back", defs[combat.Back].Name,
		"first", s.active.String(), "retained", s.hasRetained)
}

// beginSwap slides a side out and queues its sprite load for when the exit
// completes.
func (s *Session) beginSwap(now time.Time, side combat.Side) {
	s.transitions[side].Exit(now)
	s.tickets[side]++
	s.swapping[side] = true
	s.inPlace[side] = false
	ticket := s.tickets[side]

	s.sched.After(now, anim.TransitionDuration, eventSpriteSwap, func(ctx context.Context, now time.Time) {
		if ticket != s.tickets[side] || s.requester == nil {
			return
		}
		s.requester.RequestSprite(side, s.lineup[side].Def, ticket)
	})
}

// refreshRetained reloads a retained side's sprite in place when the cached
// image belongs to someone else, which happens when the winner's own load
// failed. The stale image is dropped so it is never drawn under the wrong
// name.
func (s *Session) refreshRetained(side combat.Side) {
	def := s.lineup[side].Def
	if spr := s.sprites[side]; spr != nil && spr.Name == def.Name {
		return
	}
	s.sprites[side] = nil
	s.tickets[side]++
	s.swapping[side] = true
	s.inPlace[side] = true
	if s.requester != nil {
		s.requester.RequestSprite(side, def, s.tickets[side])
	}
}

// SpriteReady applies an asynchronous sprite load result. A result for a
// superseded request is dropped; a failed load leaves the side off-screen.
func (s *Session) SpriteReady(side combat.Side, ticket uint64, spr *sprite.Sprite, err error, now time.Time) {
	if ticket != s.tickets[side] || !s.swapping[side] {
		s.log.V(1).Info("stale sprite result dropped", "side", side.String(), "ticket", ticket)
		return
	}
	if err != nil {
		s.log.Error(err, "sprite load failed", "side", side.String(), "name", s.lineup[side].GetName())
		return
	}
	s.sprites[side] = spr
	s.swapping[side] = false
	if s.inPlace[side] {
		s.inPlace[side] = false
		return
	}
	s.transitions[side].Enter(now)
}

// Trigger is an explicit turn request. It is ignored right after a battle
// ends and while a turn holds the lock.
func (s *Session) Trigger(ctx context.Context, now time.Time) bool {
	if !s.endGuardPassed(now) {
		s.log.V(1).Info("turn request dropped", "reason", "battle just ended")
		return false
	}
	return s.TakeTurn(ctx, now)
}

// TakeTurn resolves one attack by the active side. It returns false without
// side effects when no battle is active, the lock is held, or a turn was
// already resolved at this instant.
func (s *Session) TakeTurn(ctx context.Context, now time.Time) bool {
	switch {
	case s.state != StateActive:
		s.log.V(1).Info("turn request dropped", "reason", "no active battle", "state", s.state.String())
		return false
	case s.locked:
		s.log.V(1).Info("turn request dropped", "reason", "turn in progress")
		return false
	case s.turnCount > 0 && !now.After(s.lastResolved):
		s.log.V(1).Info("turn request dropped", "reason", "same instant")
		return false
	}

	s.locked = true

	tracer := telemetry.Tracer("battle")
	ctx, span := tracer.Start(ctx, "battle.turn")
	defer span.End()

	s.attacker = s.active
	s.defender = s.active.Opponent()
	s.lunge.Begin(now)

	result := s.resolver.Resolve(s.active, s.lineup.Combatants())
	s.turnCount++
	s.lastTurn = now
	s.lastResolved = now

	span.SetAttributes(
		attribute.String("battle.id", s.id),
		attribute.Int("turn", s.turnCount),
		attribute.String("attacker", s.lineup[result.Attacker].GetName()),
		attribute.String("defender", s.lineup[result.Defender].GetName()),
		attribute.Float64("damage", result.Damage),
		attribute.Float64("defender_health", result.DefenderHealth),
	)
	s.log.V(1).Info("turn resolved", "turn", s.turnCount,
		"attacker", s.lineup[result.Attacker].GetName(),
		"defender", s.lineup[result.Defender].GetName(),
		"damage", result.Damage, "health", result.DefenderHealth)

	if result.Ended {
		// The lock stays held until the next battle starts.
		s.finishBattle(ctx, now, result.Outcome)
		return true
	}

	s.active = s.active.Opponent()
	s.locked = false
	return true
}

// finishBattle records the outcome and schedules the single restart.
func (s *Session) finishBattle(ctx context.Context, now time.Time, result combat.Outcome) {
	tracer := telemetry.Tracer("battle")
	_, span := tracer.Start(ctx, "battle.end")
	defer span.End()

	o := &Outcome{Outcome: result, At: now}
	if result.HasWinner {
		winner := s.lineup[result.WinningSide]
		o.Def = winner.Def
		o.HealthAtVictory = winner.Health
		s.winner.BeginAt(now, winner.Health)
	}
	s.outcome = o
	s.state = StateResolving
	s.endedAt = now

	if s.sched.Pending(eventRestart) == 0 {
		s.sched.After(now, RestartDelay, eventRestart, s.restart)
	}

	span.SetAttributes(
		attribute.String("battle.id", s.id),
		attribute.Int("turns", s.turnCount),
		attribute.Bool("tie", !result.HasWinner),
		attribute.String("winner", result.Winner),
	)
	if result.HasWinner {
		s.log.Info("battle ended", "id", s.id, "turns", s.turnCount,
			"winner", result.Winner, "side", result.WinningSide.String(), "health", o.HealthAtVictory)
	} else {
		s.log.Info("battle ended in a tie", "id", s.id, "turns", s.turnCount)
	}
}

// restart starts the next battle unless the winner display is still open,
// in which case it waits for the window to close.
func (s *Session) restart(ctx context.Context, now time.Time) {
	if s.winner.Active(now) {
		wait := s.winner.Duration - s.winner.Elapsed(now)
		s.sched.After(now, wait, eventRestart, s.restart)
		return
	}
	s.startBattle(ctx, now)
}

// Update advances every timer at now: due scheduled events, the lunge to
// hit-flash coupling, transitions and the autonomous turn.
func (s *Session) Update(ctx context.Context, now time.Time) {
	s.sched.RunDue(ctx, now)

	if s.lunge.Running() {
		if s.lunge.HitDue(now) {
			s.hit.Begin(now)
			s.defending = true
		}
		if s.lunge.Done(now) {
			s.lunge.Stop()
		}
	}
	if s.defending && s.hit.Done(now) {
		s.hit.Stop()
		s.defending = false
	}
	for _, side := range combat.Sides {
		s.transitions[side].Update(now)
	}

	if s.AutoTurnDue(now) {
		s.TakeTurn(ctx, now)
	}
}

// AutoTurnDue reports whether the turn interval has elapsed for an
// autonomous turn.
func (s *Session) AutoTurnDue(now time.Time) bool {
	return s.state == StateActive &&
		!s.locked &&
		now.Sub(s.lastTurn) >= s.turnInterval &&
		s.endGuardPassed(now)
}

func (s *Session) endGuardPassed(now time.Time) bool {
	return s.endedAt.IsZero() || now.Sub(s.endedAt) > EndGuard
}

// Challenger returns the combatant the detail screen describes: the side
// facing the retained winner, or the front side when nobody was retained.
func (s *Session) Challenger() *gamedata.CombatantDef {
	if !s.lineup.Ready() {
		return nil
	}
	if s.hasRetained {
		return s.lineup[s.retained.Opponent()].Def
	}
	return s.lineup[combat.Front].Def
}

// ID returns the current battle identifier.
func (s *Session) ID() string { return s.id }

// State returns the battle lifecycle state.
func (s *Session) State() BattleState { return s.state }

// Battles returns how many battles have started.
func (s *Session) Battles() int { return s.battles }

// Turns returns how many turns the current battle has taken.
func (s *Session) Turns() int { return s.turnCount }

// Active returns the side that attacks next.
func (s *Session) Active() combat.Side { return s.active }

// Locked reports whether a turn holds the lock.
func (s *Session) Locked() bool { return s.locked }

// Lineup returns the current fighters.
func (s *Session) Lineup() entity.Lineup { return s.lineup }

// Outcome returns the pending outcome, or nil while a battle is running.
func (s *Session) Outcome() *Outcome { return s.outcome }
