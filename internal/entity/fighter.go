// Package entity provides the live participants of a battle.
package entity

import (
	"github.com/samdwyer/battleclock/internal/combat"
	"github.com/samdwyer/battleclock/internal/gamedata"
)

// Fighter is a combatant record placed in a battle slot with live health.
// Health is a fraction in [0,1]; 1 is full.
type Fighter struct {
	Def    *gamedata.CombatantDef // Roster record, never mutated
	Health float64
}

// NewFighter creates a fighter at full health.
func NewFighter(def *gamedata.CombatantDef) *Fighter {
	return &Fighter{Def: def, Health: 1}
}

// GetName returns the combatant name.
func (f *Fighter) GetName() string {
	if f.Def == nil {
		return ""
	}
	return f.Def.Name
}

// GetHealth returns the current health fraction.
func (f *Fighter) GetHealth() float64 {
	return f.Health
}

// IsFainted reports whether health has reached zero.
func (f *Fighter) IsFainted() bool {
	return f.Health <= 0
}

// TakeDamage subtracts amount, clamps to [0,1] and returns the health lost.
func (f *Fighter) TakeDamage(amount float64) float64 {
	before := f.Health
	f.Health = combat.Clamp01(f.Health - amount)
	return before - f.Health
}
