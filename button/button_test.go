package button

import (
	"sync"
	"testing"
	"time"

	"github.com/wfunc/simonbadge/hw"
	"github.com/wfunc/simonbadge/sched"
)

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (e *eventLog) push(i int)    { e.add("push") }
func (e *eventLog) release(i int) { e.add("release") }

func (e *eventLog) add(s string) {
	e.mu.Lock()
	e.events = append(e.events, s)
	e.mu.Unlock()
}

func (e *eventLog) snapshot() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}

func setup(t *testing.T, debounce, active time.Duration) (*hw.SimPin, *hw.SimLED, *Button, *eventLog, *sched.Loop) {
	t.Helper()
	loop := sched.NewLoop(64)
	loop.Start()
	t.Cleanup(loop.Stop)

	pin := hw.NewSimPin()
	led := hw.NewSimLED()
	b := New(0, pin, led, loop, debounce, active)

	log := &eventLog{}
	b.Bind(log.push, log.release)
	return pin, led, b, log, loop
}

func TestButton_CleanPressRelease(t *testing.T) {
	pin, _, _, log, loop := setup(t, 2*time.Millisecond, 2*time.Millisecond)

	pin.Trigger(false)
	time.Sleep(10 * time.Millisecond)
	pin.Trigger(true)
	loop.Sync()

	got := log.snapshot()
	if len(got) != 2 || got[0] != "push" || got[1] != "release" {
		t.Fatalf("expected [push release], got %v", got)
	}
}

func TestButton_BounceBurstYieldsOnePair(t *testing.T) {
	pin, _, _, log, loop := setup(t, 5*time.Millisecond, 5*time.Millisecond)

	// a bouncy press: several edges inside the debounce window
	pin.Trigger(false)
	pin.Trigger(true)
	pin.Trigger(false)
	pin.Trigger(true)
	pin.Trigger(false)

	time.Sleep(20 * time.Millisecond)
	pin.Trigger(true)
	loop.Sync()

	got := log.snapshot()
	if len(got) != 2 || got[0] != "push" || got[1] != "release" {
		t.Fatalf("expected exactly one push/release pair, got %v", got)
	}
}

func TestButton_EarlyReleaseDeferredUntilSettled(t *testing.T) {
	pin, _, _, log, loop := setup(t, 0, 30*time.Millisecond)

	pin.Trigger(false)
	pin.Trigger(true) // released before active-time: deferred

	loop.Sync()
	if got := log.snapshot(); len(got) != 1 || got[0] != "push" {
		t.Fatalf("expected only the push before the window elapses, got %v", got)
	}

	// once the window passes and the pin is still high, the release arrives
	time.Sleep(60 * time.Millisecond)
	loop.Sync()
	if got := log.snapshot(); len(got) != 2 || got[1] != "release" {
		t.Fatalf("expected deferred release, got %v", got)
	}
}

func TestButton_LEDLockStep(t *testing.T) {
	pin, led, b, _, loop := setup(t, 0, 0)
	b.Unbind() // LED feedback is independent of game logic

	pin.Trigger(false)
	loop.Sync()
	if !led.Lit() {
		t.Fatal("LED should be lit while the button is held")
	}

	pin.Trigger(true)
	loop.Sync()
	if led.Lit() {
		t.Fatal("LED should be off after release")
	}
}

func TestButton_NoHandlerNoPanic(t *testing.T) {
	pin, _, b, _, loop := setup(t, 0, 0)
	b.Unbind()

	pin.Trigger(false)
	pin.Trigger(true)
	loop.Sync()
}
