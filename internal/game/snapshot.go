package game

import (
	"time"

	"github.com/samdwyer/battleclock/internal/anim"
	"github.com/samdwyer/battleclock/internal/combat"
	"github.com/samdwyer/battleclock/internal/sprite"
	"github.com/samdwyer/battleclock/internal/world"
)

// SideView is what one side looks like at a sampled instant.
type SideView struct {
	Name      string
	Health    float64 // Displayed health; rises toward 1 for a winner
	Sprite    *sprite.Sprite
	Drawn     bool
	Position  world.Point
	Phase     anim.Phase
	Attacking bool
	Defending bool
}

// BattleView is a read-only sample of the session used for drawing and the
// status endpoint.
type BattleView struct {
	ID     string
	State  BattleState
	Battle int
	Turn   int
	Active combat.Side
	Locked bool
	Sides  [2]SideView

	Winner     string // Empty unless the winner display is open
	WinnerSide combat.Side
	BannerOn   bool
	ShowClock  bool
	Tie        bool
}

// View samples the session at now. It has no side effects.
func (s *Session) View(now time.Time) BattleView {
	v := BattleView{
		ID:        s.id,
		State:     s.state,
		Battle:    s.battles,
		Turn:      s.turnCount,
		Active:    s.active,
		Locked:    s.locked,
		ShowClock: true,
	}
	if !s.lineup.Ready() {
		return v
	}

	lunge := s.lunge.Offset(now)
	for _, side := range combat.Sides {
		f := s.lineup[side]
		tr := s.transitions[side]

		sv := SideView{
			Name:      f.GetName(),
			Health:    f.GetHealth(),
			Sprite:    s.sprites[side],
			Phase:     tr.Phase,
			Attacking: s.lunge.Active(now) && side == s.attacker,
			Defending: s.defending && side == s.defender,
		}

		offset := 0.0
		if sv.Attacking {
			offset = lunge
		}
		sv.Position = s.stage.SlotPosition(side, tr.Position(now), offset)

		sv.Drawn = sv.Sprite != nil && !tr.Gone(now)
		if sv.Defending && !s.hit.Visible(now) {
			sv.Drawn = false
		}
		v.Sides[side] = sv
	}

	if o := s.outcome; o != nil {
		v.Tie = !o.HasWinner
		if o.HasWinner {
			v.Sides[o.WinningSide].Health = s.winner.Health(now)
			if s.winner.Active(now) {
				v.Winner = o.Winner
				v.WinnerSide = o.WinningSide
				v.BannerOn = s.winner.FlashOn(now)
				v.ShowClock = false
			}
		}
	}
	return v
}
