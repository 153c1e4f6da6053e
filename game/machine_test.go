package game

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/simonbadge/button"
	"github.com/wfunc/simonbadge/hw"
	"github.com/wfunc/simonbadge/logger"
	"github.com/wfunc/simonbadge/radio"
	"github.com/wfunc/simonbadge/sched"
	"github.com/wfunc/simonbadge/timer"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// trace collects lifecycle events across goroutines.
type trace struct {
	mu     sync.Mutex
	events []string
}

func (tr *trace) add(s string) {
	tr.mu.Lock()
	tr.events = append(tr.events, s)
	tr.mu.Unlock()
}

func (tr *trace) snapshot() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.events...)
}

// probeState records its lifecycle into a shared trace.
type probeState struct {
	base
	tr      *trace
	onEnter func(*probeState)
}

func (s *probeState) OnEnter(p Params) {
	s.tr.add("enter:" + string(s.name))
	if s.onEnter != nil {
		s.onEnter(s)
	}
	s.tr.add("entered:" + string(s.name))
}

func (s *probeState) OnExit() {
	s.tr.add("exit:" + string(s.name))
}

func (s *probeState) OnPush(btn int) {
	s.tr.add("push:" + string(s.name))
}

func newTestMachine(t *testing.T) (*Machine, []*hw.SimPin, *sched.Loop) {
	t.Helper()
	loop := sched.NewLoop(128)
	loop.Start()
	t.Cleanup(loop.Stop)

	pins := make([]*hw.SimPin, 4)
	leds := make([]hw.LED, 4)
	buttons := make([]*button.Button, 4)
	for i := range pins {
		pins[i] = hw.NewSimPin()
		leds[i] = hw.NewSimLED()
		buttons[i] = button.New(i, pins[i], leds[i], loop, 0, 0)
	}

	air := radio.NewAir()
	link := radio.NewLink(air.Join(radio.Addr{1}), loop)
	if err := link.TurnOn(); err != nil {
		t.Fatal(err)
	}

	m := NewMachine(loop, buttons, hw.NewLights(leds, 0), hw.SimBuzzer{}, link,
		timer.New(loop), hw.CryptoEntropy{}, Options{})
	return m, pins, loop
}

func registerProbes(m *Machine, tr *trace, names ...Name) {
	for _, name := range names {
		name := name
		m.factories[name] = func(m *Machine) State {
			return &probeState{base: base{m, name, false}, tr: tr}
		}
	}
}

func TestMachine_ExitCompletesBeforeEnter(t *testing.T) {
	m, _, loop := newTestMachine(t)
	tr := &trace{}
	registerProbes(m, tr, "A", "B")

	m.Start("A")
	loop.Sync()
	m.GoTo("B", Params{})
	loop.Sync()

	want := []string{"enter:A", "entered:A", "exit:A", "enter:B", "entered:B"}
	got := tr.snapshot()
	if len(got) != len(want) {
		t.Fatalf("lifecycle order %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("lifecycle order %v, want %v", got, want)
		}
	}
}

func TestMachine_TransitionNeverSynchronous(t *testing.T) {
	m, _, loop := newTestMachine(t)
	tr := &trace{}
	registerProbes(m, tr, "B")
	m.factories["A"] = func(m *Machine) State {
		return &probeState{
			base: base{m, "A", false},
			tr:   tr,
			onEnter: func(s *probeState) {
				// requesting a transition from inside enter must not run the
				// next state's enter within this stack frame
				s.m.GoTo("B", Params{})
			},
		}
	}

	m.Start("A")
	loop.Sync()
	loop.Sync()

	got := tr.snapshot()
	want := []string{"enter:A", "entered:A", "exit:A", "enter:B", "entered:B"}
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Fatalf("order %v, want %v", got, want)
		}
	}
}

func TestMachine_LatestRequestWins(t *testing.T) {
	m, _, loop := newTestMachine(t)
	tr := &trace{}
	registerProbes(m, tr, "A", "B", "C")

	m.Start("A")
	loop.Sync()

	// hold the loop so both requests land before the drain executes
	gate := make(chan struct{})
	loop.Post(func() { <-gate })
	m.GoTo("B", Params{})
	m.GoTo("C", Params{})
	close(gate)
	loop.Sync()

	for _, ev := range tr.snapshot() {
		if ev == "enter:B" {
			t.Fatal("superseded transition request still executed")
		}
	}
	if m.CurrentName() != "C" {
		t.Fatalf("ended in %q, want C", m.CurrentName())
	}
}

func TestMachine_ButtonRoutesToCurrentStateOnly(t *testing.T) {
	m, pins, loop := newTestMachine(t)
	tr := &trace{}
	registerProbes(m, tr, "A", "B")

	m.Start("A")
	loop.Sync()
	m.GoTo("B", Params{})
	loop.Sync()

	pins[0].Trigger(false)
	loop.Sync()

	for _, ev := range tr.snapshot() {
		if ev == "push:A" {
			t.Fatal("push delivered to an exited state")
		}
	}
	found := false
	for _, ev := range tr.snapshot() {
		if ev == "push:B" {
			found = true
		}
	}
	if !found {
		t.Fatal("push not delivered to the current state")
	}
}

func TestMachine_TimerCancelledAcrossTransition(t *testing.T) {
	m, _, loop := newTestMachine(t)
	tr := &trace{}
	registerProbes(m, tr, "B")

	fired := make(chan struct{}, 1)
	m.factories["A"] = func(m *Machine) State {
		return &probeState{
			base: base{m, "A", false},
			tr:   tr,
			onEnter: func(s *probeState) {
				s.m.timer.Init(30*time.Millisecond, timer.OneShot, func() {
					fired <- struct{}{}
				})
			},
		}
	}

	m.Start("A")
	loop.Sync()
	m.GoTo("B", Params{})
	loop.Sync()

	select {
	case <-fired:
		t.Fatal("timer armed by the outgoing state fired after the transition")
	case <-time.After(80 * time.Millisecond):
	}
}
