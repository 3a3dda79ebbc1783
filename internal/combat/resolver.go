// Package combat provides the turn resolution rules for a two-sided battle.
package combat

// Side identifies one of the two battle slots.
type Side int

const (
	// Front is the opponent slot, drawn top-right.
	Front Side = iota
	// Back is the player slot, drawn bottom-left.
	Back
)

// Sides lists both slots in index order.
var Sides = [2]Side{Front, Back}

// String returns a human-readable side name.
func (s Side) String() string {
	switch s {
	case Front:
		return "front"
	case Back:
		return "back"
	default:
		return "unknown"
	}
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == Front {
		return Back
	}
	return Front
}

// Damage roll bounds, as a fraction of full health. The upper bound is exclusive.
const (
	MinDamage = 0.10
	MaxDamage = 0.30
)

// Combatant is the interface for anything that can stand in a battle slot.
type Combatant interface {
	GetName() string
	GetHealth() float64
	IsFainted() bool

	// TakeDamage subtracts amount from health, clamped to [0,1], and
	// returns the health actually lost.
	TakeDamage(amount float64) float64
}

// RandomSource supplies uniform floats in [0,1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// TurnResult describes the outcome of a single resolved attack.
type TurnResult struct {
	Attacker       Side
	Defender       Side
	Damage         float64 // Rolled damage before clamping
	Lost           float64 // Health the defender actually lost
	DefenderHealth float64
	Ended          bool    // True if either side is fainted after the attack
	Outcome        Outcome // Valid only when Ended
}

// Outcome is the recorded result of a finished battle.
type Outcome struct {
	HasWinner   bool
	WinningSide Side
	Winner      string // Winner name, empty on a tie
}

// Resolver rolls damage and applies it.
type Resolver struct {
	rng RandomSource
}

// NewResolver creates a resolver drawing from rng.
func NewResolver(rng RandomSource) *Resolver {
	return &Resolver{rng: rng}
}

// RollDamage returns a damage amount uniformly distributed in [MinDamage, MaxDamage).
func (r *Resolver) RollDamage() float64 {
	return MinDamage + r.rng.Float64()*(MaxDamage-MinDamage)
}

// Resolve lets the combatant on the attacker side hit the one on the other
// side. combatants is indexed by Side.
func (r *Resolver) Resolve(attacker Side, combatants [2]Combatant) TurnResult {
	defender := attacker.Opponent()
	damage := r.RollDamage()
	lost := combatants[defender].TakeDamage(damage)

	result := TurnResult{
		Attacker:       attacker,
		Defender:       defender,
		Damage:         damage,
		Lost:           lost,
		DefenderHealth: combatants[defender].GetHealth(),
	}
	if outcome, ended := DetectOutcome(combatants); ended {
		result.Ended = true
		result.Outcome = outcome
	}
	return result
}

// DetectOutcome reports whether the battle is over and who won. When both
// sides are fainted the outcome has no winner.
func DetectOutcome(combatants [2]Combatant) (Outcome, bool) {
	frontDown := combatants[Front].IsFainted()
	backDown := combatants[Back].IsFainted()

	switch {
	case frontDown && backDown:
		return Outcome{}, true
	case frontDown:
		return Outcome{HasWinner: true, WinningSide: Back, Winner: combatants[Back].GetName()}, true
	case backDown:
		return Outcome{HasWinner: true, WinningSide: Front, Winner: combatants[Front].GetName()}, true
	default:
		return Outcome{}, false
	}
}

// Clamp01 limits v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
