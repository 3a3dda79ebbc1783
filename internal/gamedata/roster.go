package gamedata

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// ROSTER FORMAT
// =============================================================================
//
// The roster is a list of combatant records, each with a display name and a
// sprite file name. The same file name is looked up under both front/ and
// back/ in the asset directory.
//
// Three JSON shapes are accepted:
//
//   [ {"name": "Pikachu", "file": "pikachu.png"}, ... ]
//   { "25": {"name": "Pikachu", "file": "pikachu.png"}, ... }
//   { "combatants": [ {"name": "Pikachu", "file": "pikachu.png"}, ... ] }
//
// The keyed form is ordered by key so selection stays reproducible under a
// fixed seed.

// ErrRosterTooSmall is returned when fewer than two combatants are available.
var ErrRosterTooSmall = errors.New("roster needs at least two combatants")

// CombatantDef is an immutable combatant record.
type CombatantDef struct {
	Name string `json:"name"` // Display name (e.g., "Pikachu")
	File string `json:"file"` // Sprite file name (e.g., "pikachu.png")
}

// RosterFile represents the wrapped structure of roster.json.
type RosterFile struct {
	Combatants []CombatantDef `json:"combatants"`
}

// ParseRoster decodes any accepted roster shape. source names the data in
// error messages.
func ParseRoster(data []byte, source string) ([]CombatantDef, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("roster %s: empty document", source)
	}

	var defs []CombatantDef
	if trimmed[0] == '[' {
		if err := json.Unmarshal(data, &defs); err != nil {
			return nil, fmt.Errorf("failed to parse roster %s: %w", source, err)
		}
	} else {
		var wrapped RosterFile
		if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Combatants) > 0 {
			defs = wrapped.Combatants
		} else {
			keyed := map[string]CombatantDef{}
			if err := json.Unmarshal(data, &keyed); err != nil {
				return nil, fmt.Errorf("failed to parse roster %s: %w", source, err)
			}
			keys := make([]string, 0, len(keyed))
			for k := range keyed {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				defs = append(defs, keyed[k])
			}
		}
	}

	if err := validateRoster(defs, source); err != nil {
		return nil, err
	}
	return defs, nil
}

// validateRoster checks required fields and case-insensitive name uniqueness.
func validateRoster(defs []CombatantDef, source string) error {
	if len(defs) < 2 {
		return fmt.Errorf("roster %s: %w (got %d)", source, ErrRosterTooSmall, len(defs))
	}
	seen := make(map[string]struct{}, len(defs))
	for i, d := range defs {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("roster %s: entry %d missing 'name'", source, i)
		}
		if strings.TrimSpace(d.File) == "" {
			return fmt.Errorf("roster %s: %q missing 'file'", source, d.Name)
		}
		key := strings.ToLower(strings.TrimSpace(d.Name))
		if _, dup := seen[key]; dup {
			return fmt.Errorf("roster %s: duplicate name %q", source, d.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}
