// Package timer implements the badge's reusable software timers. Each Timer
// is one logical resource (the round-timeout timer, the broadcast-jitter
// timer); Init cancels and replaces whatever was pending. Callbacks are
// posted to the cooperative loop, never run concurrently with loop work.
package timer

import (
	"sync"
	"time"

	"github.com/wfunc/simonbadge/sched"
)

type Mode int

const (
	OneShot Mode = iota
	Periodic
)

type Timer struct {
	loop *sched.Loop

	mu     sync.Mutex
	gen    uint64 // bumped by Init/Reshoot/Deinit; stale fires check it and drop
	period time.Duration
	mode   Mode
	cb     func()
	t      *time.Timer
}

func New(loop *sched.Loop) *Timer {
	return &Timer{loop: loop}
}

// Init arms the timer, cancelling any pending callback.
func (t *Timer) Init(period time.Duration, mode Mode, cb func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	t.period = period
	t.mode = mode
	t.cb = cb
	t.armLocked(t.gen)
}

// Reshoot resets a one-shot timer's remaining time without changing its
// callback. No-op if the timer is not armed or is periodic.
func (t *Timer) Reshoot() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.t == nil || t.mode != OneShot {
		return
	}
	t.stopLocked()
	t.gen++
	t.armLocked(t.gen)
}

// Deinit cancels the timer. Any fire already in flight becomes a no-op.
func (t *Timer) Deinit() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	t.cb = nil
}

func (t *Timer) armLocked(gen uint64) {
	t.t = time.AfterFunc(t.period, func() { t.fire(gen) })
}

func (t *Timer) stopLocked() {
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	cb := t.cb
	if t.mode == Periodic {
		t.armLocked(gen)
	} else {
		t.t = nil
	}
	t.mu.Unlock()

	t.loop.Post(func() {
		// the state machine may have deinitialized us between the fire and
		// this unit of work draining; check again on the loop
		t.mu.Lock()
		live := gen == t.gen
		t.mu.Unlock()
		if live && cb != nil {
			cb()
		}
	})
}
