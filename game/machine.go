// Package game owns the badge's core abstraction: at all times the board is
// in exactly one State that defines what the buttons, the radio and the
// timer do at that moment. The Machine is the sole mutator of which state is
// active; transitions are requested asynchronously and executed on the
// cooperative loop, never inside the requesting handler's stack frame.
package game

import (
	"sync"
	"time"

	"github.com/wfunc/simonbadge/button"
	"github.com/wfunc/simonbadge/gamelog"
	"github.com/wfunc/simonbadge/hw"
	"github.com/wfunc/simonbadge/logger"
	"github.com/wfunc/simonbadge/monitor"
	"github.com/wfunc/simonbadge/radio"
	"github.com/wfunc/simonbadge/sched"
	"github.com/wfunc/simonbadge/timer"
)

type Options struct {
	MaxRounds    int
	GuessTimeout time.Duration
	ProbeMin     time.Duration // discovery broadcast jitter window
	ProbeMax     time.Duration
	GameLog      *gamelog.Store   // optional
	Metrics      *monitor.Metrics // optional
}

func (o *Options) fill() {
	if o.MaxRounds <= 0 {
		o.MaxRounds = 4
	}
	if o.GuessTimeout <= 0 {
		o.GuessTimeout = 5 * time.Second
	}
	if o.ProbeMin <= 0 {
		o.ProbeMin = 750 * time.Millisecond
	}
	if o.ProbeMax <= o.ProbeMin {
		o.ProbeMax = 2 * o.ProbeMin
	}
}

type pendingTransition struct {
	name   Name
	params Params
}

type Machine struct {
	loop    *sched.Loop
	buttons []*button.Button
	lights  *hw.Lights
	buzzer  hw.Buzzer
	link    *radio.Link
	timer   *timer.Timer
	entropy hw.Entropy

	maxRounds    int
	guessTimeout time.Duration
	probeMin     time.Duration
	probeMax     time.Duration
	gamelog      *gamelog.Store
	metrics      *monitor.Metrics

	factories map[Name]func(*Machine) State

	mu      sync.Mutex
	pending *pendingTransition
	current State
}

func NewMachine(loop *sched.Loop, buttons []*button.Button, lights *hw.Lights,
	buzzer hw.Buzzer, link *radio.Link, tmr *timer.Timer, entropy hw.Entropy,
	opts Options) *Machine {

	opts.fill()
	m := &Machine{
		loop:         loop,
		buttons:      buttons,
		lights:       lights,
		buzzer:       buzzer,
		link:         link,
		timer:        tmr,
		entropy:      entropy,
		maxRounds:    opts.MaxRounds,
		guessTimeout: opts.GuessTimeout,
		probeMin:     opts.ProbeMin,
		probeMax:     opts.ProbeMax,
		gamelog:      opts.GameLog,
		metrics:      opts.Metrics,
	}
	m.factories = map[Name]func(*Machine) State{
		StateAwake:     func(m *Machine) State { return &awakeState{base{m, StateAwake, false}} },
		StateDJMode:    func(m *Machine) State { return &djModeState{base{m, StateDJMode, false}} },
		StateSearching: func(m *Machine) State { return &searchingState{base: base{m, StateSearching, true}} },
		StateRoundSync: func(m *Machine) State { return &roundSyncState{base: base{m, StateRoundSync, true}} },
		StateChallenge: func(m *Machine) State { return &challengeState{base: base{m, StateChallenge, false}} },
		StateGuessing:  func(m *Machine) State { return &guessingState{base: base{m, StateGuessing, false}} },
	}
	return m
}

func (m *Machine) Start(initial Name) {
	m.GoTo(initial, Params{})
}

// CurrentName reports the active state, "" before Start's first transition
// has executed.
func (m *Machine) CurrentName() Name {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.Name()
}

// GoTo requests a transition. It records the (name, params) pair and
// schedules execution for the next loop tick; an earlier unexecuted request
// is silently superseded (latest request wins). The new state's enter never
// runs inside the caller's stack frame, so states are free to request
// transitions from their own button/message/timer handlers.
func (m *Machine) GoTo(name Name, p Params) {
	m.mu.Lock()
	schedule := m.pending == nil
	m.pending = &pendingTransition{name: name, params: p}
	m.mu.Unlock()

	if schedule {
		m.loop.Post(m.apply)
	}
}

func (m *Machine) apply() {
	m.mu.Lock()
	pt := m.pending
	m.pending = nil
	m.mu.Unlock()
	if pt == nil {
		return
	}
	m.execute(pt.name, pt.params)
}

// execute runs on the loop. Ownership of the timer, LEDs, buttons and the
// radio callback transfers atomically here: the outgoing state's exit
// completes before the incoming state's enter begins.
func (m *Machine) execute(name Name, p Params) {
	factory, ok := m.factories[name]
	if !ok {
		// fail loud: a bad transition target is a programming error and the
		// device policy is to reboot rather than limp
		logger.Log.Fatalf("unknown state %q", name)
	}

	old := "<none>"
	if cur := m.currentState(); cur != nil {
		old = string(cur.Name())
	}
	logger.Log.Infof("transition %s -> %s", old, name)

	m.timer.Deinit()
	m.lights.AllOff()

	if cur := m.currentState(); cur != nil {
		cur.OnExit()
		m.unbindButtons()
		m.link.ClearCallback()
	}

	st := factory(m)
	m.mu.Lock()
	m.current = st
	m.mu.Unlock()

	m.bindButtons(st)
	if st.WantsRadio() {
		m.link.RegisterCallback(func(from radio.Addr, body []byte) {
			if m.isCurrent(st) {
				st.OnMessage(from, body)
			}
		})
	}

	if m.metrics != nil {
		m.metrics.Transitions.Inc()
	}
	st.OnEnter(p)
}

func (m *Machine) currentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// isCurrent guards every deferred dispatch: a handler bound by a state that
// has since exited must never fire into it.
func (m *Machine) isCurrent(st State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current == st
}

func (m *Machine) bindButtons(st State) {
	for _, b := range m.buttons {
		b.Bind(
			func(i int) {
				if m.isCurrent(st) {
					st.OnPush(i)
				}
			},
			func(i int) {
				if m.isCurrent(st) {
					st.OnRelease(i)
				}
			},
		)
	}
}

func (m *Machine) unbindButtons() {
	for _, b := range m.buttons {
		b.Unbind()
	}
}

func (m *Machine) recordGame(won bool, rounds int, pr *Pairing) {
	outcome := "lose"
	if won {
		outcome = "win"
	}
	logger.Log.Infof("game over: %s after %d round(s)", outcome, rounds)
	if m.metrics != nil {
		m.metrics.GamesPlayed.WithLabelValues(outcome).Inc()
	}
	if m.gamelog == nil {
		return
	}

	e := gamelog.Entry{
		Mode:   gamelog.ModeSolo,
		Rounds: rounds,
		DidWin: won,
	}
	if pr != nil {
		e.Mode = gamelog.ModeVersus
		e.Peer = pr.Peer.String()
		e.Seed = pr.Seed
	}
	if err := m.gamelog.Append(e); err != nil {
		logger.Log.Warnf("gamelog append failed: %v", err)
	}
}
