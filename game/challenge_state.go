package game

import (
	"time"
)

// challengeState is the non-interactive display phase: flash the sequence,
// then hand over to guessing. The blocking flashes hold the loop, which is
// fine — nothing time-critical can happen while the player is watching.
type challengeState struct {
	base
}

func (s *challengeState) OnEnter(p Params) {
	s.m.unbindButtons() // buttons do nothing while the sequence plays

	unit := s.m.lights.Unit

	// quick pause so the round boundary reads as a boundary
	time.Sleep(5 * unit)

	for i, btn := range p.Sequence {
		s.m.lights.Flash(btn, 3*unit)
		if i < len(p.Sequence)-1 {
			time.Sleep(2 * unit)
		}
	}

	s.m.GoTo(StateGuessing, p)
}
