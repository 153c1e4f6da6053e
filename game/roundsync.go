package game

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/wfunc/simonbadge/challenge"
	"github.com/wfunc/simonbadge/logger"
	"github.com/wfunc/simonbadge/radio"
	"github.com/wfunc/simonbadge/timer"
)

// statusResendPeriod paces the round-status exchange: delivery is lossy and
// unordered, so each board resends until it has heard a matching round
// number from the peer. The link's dedup absorbs the extra copies.
const statusResendPeriod = 800 * time.Millisecond

// roundSyncState is the non-interactive bookkeeping state between rounds.
// Solo: evaluate the round outcome locally. Multiplayer: exchange status
// with the peer, then resolve the combined outcome.
type roundSyncState struct {
	base

	round   int // rounds finished so far
	didLose bool
	pairing *Pairing
	gen     *challenge.Generator
}

func (s *roundSyncState) OnEnter(p Params) {
	s.m.unbindButtons() // buttons do nothing here

	s.round = p.Round
	s.didLose = p.DidLose
	s.pairing = p.Pairing
	s.gen = p.Gen

	if s.pairing != nil {
		if s.round == 0 {
			// first round: both boards seed from the exchanged value
			s.gen = challenge.New(s.pairing.Seed)
		}
		s.m.lights.AllOn()
		s.sendStatus()
		s.m.timer.Init(statusResendPeriod, timer.Periodic, s.sendStatus)
		return
	}

	// single player
	if s.round == 0 {
		s.gen = challenge.New(s.m.entropy.Uint32() % 100000)
	}
	s.handleRound()
}

func (s *roundSyncState) sendStatus() {
	blob, err := json.Marshal(statusMessage{RoundFinished: s.round, DidLose: s.didLose})
	if err != nil {
		logger.Log.Errorf("status marshal failed: %v", err)
		return
	}
	if err := s.m.link.Send(s.pairing.Peer, prefixGameState+string(blob)); err != nil {
		logger.Log.Warnf("status send failed: %v", err)
	}
}

func (s *roundSyncState) OnMessage(from radio.Addr, body []byte) {
	if s.pairing == nil || from != s.pairing.Peer || !bytes.HasPrefix(body, []byte(prefixGameState)) {
		return // not a message for us
	}

	s.m.link.ClearCallback() // handle exactly one status
	s.m.timer.Deinit()
	s.sendStatus() // so the two boards react in sync
	s.m.lights.AllOff()

	var peer statusMessage
	if err := json.Unmarshal(body[len(prefixGameState):], &peer); err != nil {
		logger.Log.Errorf("bad peer status %q: %v", body, err)
		s.m.GoTo(StateAwake, Params{})
		return
	}

	if peer.RoundFinished != s.round {
		// desynchronized: abandon the game on both sides rather than guess
		logger.Log.Errorf("peer finished round %d but we are at %d, abandoning game",
			peer.RoundFinished, s.round)
		s.m.GoTo(StateAwake, Params{})
		return
	}

	switch {
	case !s.didLose && peer.DidLose:
		s.m.lights.Confetti(10)
		s.gameOver(true)
	case s.didLose && !peer.DidLose:
		s.m.lights.AllBlink(2)
		s.gameOver(false)
	case s.didLose && peer.DidLose:
		s.m.lights.AllBlink(4)
		s.gameOver(false)
	default:
		s.handleRound() // both survived, next round
	}
}

func (s *roundSyncState) handleRound() {
	switch {
	case s.didLose:
		s.m.lights.AllBlink(2)
		s.gameOver(false)
	case s.round >= s.m.maxRounds:
		s.m.lights.Confetti(10)
		s.gameOver(true)
	default:
		s.m.lights.AllBlink(2)
		time.Sleep(2 * s.m.lights.Unit)

		next := s.round + 1
		s.m.GoTo(StateChallenge, Params{
			Round:    next,
			Pairing:  s.pairing,
			Gen:      s.gen,
			Sequence: s.gen.Next(challenge.Length(next)),
		})
	}
}

func (s *roundSyncState) gameOver(won bool) {
	s.m.recordGame(won, s.round, s.pairing)
	s.m.GoTo(StateAwake, Params{})
}
