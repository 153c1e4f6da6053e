package game

import (
	"github.com/wfunc/simonbadge/challenge"
	"github.com/wfunc/simonbadge/radio"
)

type Name string

const (
	StateAwake     Name = "awake"
	StateDJMode    Name = "dj_mode"
	StateSearching Name = "searching_for_opponent"
	StateRoundSync Name = "round_sync"
	StateChallenge Name = "challenge"
	StateGuessing  Name = "guessing"
)

// Pairing is the multiplayer link context: who we play against and the seed
// both boards derive their challenges from.
type Pairing struct {
	Peer radio.Addr
	Seed uint32
}

// Params carries a transition's entry arguments. States are constructed
// fresh on every entry; everything they need arrives here.
type Params struct {
	Round    int
	DidLose  bool
	Pairing  *Pairing
	Gen      *challenge.Generator
	Sequence []int
}

// State is the lifecycle contract every game state implements. The machine
// binds buttons before OnEnter and unbinds them after OnExit; the radio
// callback is registered only if WantsRadio reports true.
type State interface {
	Name() Name
	WantsRadio() bool
	OnEnter(p Params)
	OnExit()
	OnPush(btn int)
	OnRelease(btn int)
	OnMessage(from radio.Addr, body []byte)
}

// base provides no-op defaults; concrete states override what they use.
type base struct {
	m         *Machine
	name      Name
	usesRadio bool
}

func (b *base) Name() Name                   { return b.name }
func (b *base) WantsRadio() bool             { return b.usesRadio }
func (b *base) OnEnter(Params)               {}
func (b *base) OnExit()                      {}
func (b *base) OnPush(int)                   {}
func (b *base) OnRelease(int)                {}
func (b *base) OnMessage(radio.Addr, []byte) {}
