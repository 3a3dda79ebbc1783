package gamedata

import (
	"fmt"
	"os"
	"strings"
)

// IntSource supplies uniform integers in [0,n). *rand.Rand satisfies it.
type IntSource interface {
	Intn(n int) int
}

// Roster holds the loaded combatant records and provides selection utilities.
// It is read-only once built.
type Roster struct {
	combatants []CombatantDef
}

// NewRoster creates a roster from validated combatant records.
func NewRoster(defs []CombatantDef) (*Roster, error) {
	if err := validateRoster(defs, "(inline)"); err != nil {
		return nil, err
	}
	owned := make([]CombatantDef, len(defs))
	copy(owned, defs)
	return &Roster{combatants: owned}, nil
}

// LoadRoster loads the embedded default roster.
func LoadRoster() (*Roster, error) {
	file, err := Load[RosterFile]("roster.json")
	if err != nil {
		return nil, err
	}
	if err := validateRoster(file.Combatants, "roster.json"); err != nil {
		return nil, err
	}
	return &Roster{combatants: file.Combatants}, nil
}

// LoadRosterFile loads a roster from disk.
func LoadRosterFile(path string) (*Roster, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file %s: %w", path, err)
	}
	defs, err := ParseRoster(content, path)
	if err != nil {
		return nil, err
	}
	return &Roster{combatants: defs}, nil
}

// PickExcluding selects uniformly among combatants whose name differs from
// exclude (case-insensitive). Returns nil if nothing is left.
func (r *Roster) PickExcluding(rng IntSource, exclude string) *CombatantDef {
	candidates := make([]int, 0, len(r.combatants))
	for i := range r.combatants {
		if !strings.EqualFold(r.combatants[i].Name, exclude) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return &r.combatants[candidates[rng.Intn(len(candidates))]]
}

// PickPair draws two distinct combatants independently: the first uniformly,
// the second uniformly among the rest.
func (r *Roster) PickPair(rng IntSource) (first, second *CombatantDef) {
	n := len(r.combatants)
	if n < 2 {
		return nil, nil
	}
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	return &r.combatants[i], &r.combatants[j]
}

// Count returns the number of combatants in the roster.
func (r *Roster) Count() int {
	return len(r.combatants)
}
