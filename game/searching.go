package game

import (
	"bytes"
	"fmt"
	"time"

	"github.com/valyala/fastrand"

	"github.com/wfunc/simonbadge/logger"
	"github.com/wfunc/simonbadge/radio"
	"github.com/wfunc/simonbadge/timer"
)

// searchingState broadcasts discovery probes at jittered intervals so two
// boards searching simultaneously don't collide forever, and runs the
// challenge/accept handshake when a peer shows up.
type searchingState struct {
	base
}

func (s *searchingState) OnEnter(Params) {
	span := uint32((s.m.probeMax - s.m.probeMin) / time.Millisecond)
	period := s.m.probeMin + time.Duration(fastrand.Uint32n(span+1))*time.Millisecond
	s.m.timer.Init(period, timer.Periodic, s.probe)
}

func (s *searchingState) probe() {
	if err := s.m.link.Broadcast(bodyProbe); err != nil {
		logger.Log.Warnf("probe broadcast failed: %v", err)
	}
}

func (s *searchingState) OnRelease(btn int) {
	if btn == 3 {
		s.m.GoTo(StateAwake, Params{})
	}
}

func (s *searchingState) OnMessage(from radio.Addr, body []byte) {
	switch {
	case bytes.Equal(body, []byte(bodyProbe)):
		// someone is out there: offer them a challenge and wait
		seed := s.m.entropy.Uint32() % 1000000
		if err := s.m.link.Send(from, fmt.Sprintf("%s%d", prefixChallenge, seed)); err != nil {
			logger.Log.Warnf("challenge offer failed: %v", err)
		}

	case bytes.HasPrefix(body, []byte(prefixChallenge)):
		seed, err := parseSeed(body, prefixChallenge)
		if err != nil {
			return
		}
		// accept by echoing the seed back
		if err := s.m.link.Send(from, fmt.Sprintf("%s%d", prefixAccepted, seed)); err != nil {
			logger.Log.Warnf("challenge accept failed: %v", err)
			return
		}
		s.m.link.ClearCallback() // no second pairing while the transition drains
		s.m.GoTo(StateRoundSync, Params{Pairing: &Pairing{Peer: from, Seed: seed}})

	case bytes.HasPrefix(body, []byte(prefixAccepted)):
		// they accepted our earlier offer
		seed, err := parseSeed(body, prefixAccepted)
		if err != nil {
			return
		}
		s.m.link.ClearCallback()
		s.m.GoTo(StateRoundSync, Params{Pairing: &Pairing{Peer: from, Seed: seed}})
	}
}
