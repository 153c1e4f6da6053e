package game

import (
	"github.com/wfunc/simonbadge/challenge"
	"github.com/wfunc/simonbadge/timer"
)

// guessingState is the interactive phase. Results are recorded on push but
// the round only ends on release: the player's finger stays visually lit for
// the duration of the press whether or not the guess was right.
type guessingState struct {
	base

	seq     []int
	round   int
	pairing *Pairing
	gen     *challenge.Generator

	cursor     int
	roundOver  bool
	wrongGuess bool
	ended      bool
}

func (s *guessingState) OnEnter(p Params) {
	s.seq = p.Sequence
	s.round = p.Round
	s.pairing = p.Pairing
	s.gen = p.Gen

	// inactivity window; every valid press reshoots it, so the player has a
	// maximum inter-press delay rather than a total round budget
	s.m.timer.Init(s.m.guessTimeout, timer.OneShot, func() { s.endRound(true) })
}

func (s *guessingState) OnPush(btn int) {
	s.m.timer.Reshoot()

	if s.roundOver {
		// round already decided but the last button hasn't been let go yet
		return
	}

	if s.seq[s.cursor] == btn {
		s.cursor++
		if s.cursor == len(s.seq) {
			s.roundOver = true
		}
	} else {
		s.wrongGuess = true
		s.roundOver = true
	}
}

func (s *guessingState) OnRelease(int) {
	if s.roundOver {
		s.endRound(false)
	}
}

func (s *guessingState) endRound(timedOut bool) {
	if s.ended {
		return
	}
	s.ended = true
	s.m.unbindButtons()

	didLose := s.wrongGuess || (timedOut && !s.roundOver)
	if didLose && s.cursor < len(s.seq) {
		// show what the answer would have been
		s.m.lights.Blink(s.seq[s.cursor], 2)
	}

	s.m.GoTo(StateRoundSync, Params{
		Round:   s.round,
		DidLose: didLose,
		Pairing: s.pairing,
		Gen:     s.gen,
	})
}
