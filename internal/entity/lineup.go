package entity

import "github.com/samdwyer/battleclock/internal/combat"

// Lineup holds the two fighters on the field, indexed by combat.Side.
type Lineup [2]*Fighter

// NewLineup creates a lineup from a front and a back fighter.
func NewLineup(front, back *Fighter) Lineup {
	var l Lineup
	l[combat.Front] = front
	l[combat.Back] = back
	return l
}

// Combatants returns both fighters as the combat interface, indexed by side.
func (l Lineup) Combatants() [2]combat.Combatant {
	return [2]combat.Combatant{l[combat.Front], l[combat.Back]}
}

// Ready reports whether both slots are filled.
func (l Lineup) Ready() bool {
	return l[combat.Front] != nil && l[combat.Back] != nil
}
