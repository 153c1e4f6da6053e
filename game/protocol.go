package game

import (
	"strconv"
)

// Radio protocol bodies. The link layer prepends the application tag; these
// are the bodies as they appear after it.
const (
	bodyProbe       = "anyone there?"
	prefixChallenge = "challenge: "
	prefixAccepted  = "challenge_accepted: "
	prefixGameState = "game_state: "
)

// statusMessage is the per-round outcome exchanged during round sync.
type statusMessage struct {
	RoundFinished int  `json:"round_finished"`
	DidLose       bool `json:"did_lose"`
}

func parseSeed(body []byte, prefix string) (uint32, error) {
	v, err := strconv.ParseUint(string(body[len(prefix):]), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
