// Package button turns raw pin edges into debounced push/release events.
// Edges inside the debounce window are absorbed; a release arriving before
// the active-time window has elapsed is deferred until the pin has provably
// settled high, so every Push is eventually paired with exactly one Release.
// The paired LED tracks push/release in lock-step regardless of game logic.
package button

import (
	"sync"
	"time"

	"github.com/wfunc/simonbadge/hw"
	"github.com/wfunc/simonbadge/sched"
)

type Handler func(index int)

type Button struct {
	Index int

	pin        hw.InputPin
	led        hw.LED
	loop       *sched.Loop
	debounce   time.Duration
	activeTime time.Duration

	mu        sync.Mutex
	onPush    Handler
	onRelease Handler
	lastEdge  time.Time
	pushedAt  time.Time
	down      bool
	recheck   *time.Timer
}

func New(index int, pin hw.InputPin, led hw.LED, loop *sched.Loop, debounce, activeTime time.Duration) *Button {
	b := &Button{
		Index:      index,
		pin:        pin,
		led:        led,
		loop:       loop,
		debounce:   debounce,
		activeTime: activeTime,
	}
	pin.SetEdgeHandler(b.edge)
	return b
}

// Bind installs the push/release handlers. Rebinding replaces the previous
// pair; the state machine rebinds on every transition.
func (b *Button) Bind(onPush, onRelease Handler) {
	b.mu.Lock()
	b.onPush = onPush
	b.onRelease = onRelease
	b.mu.Unlock()
}

func (b *Button) Unbind() {
	b.Bind(nil, nil)
}

// edge runs at interrupt context: classify under the lock, defer delivery to
// the loop.
func (b *Button) edge(level bool) {
	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if !level {
		// falling edge: push
		if b.down || now.Sub(b.lastEdge) < b.debounce {
			return
		}
		b.down = true
		b.pushedAt = now
		b.lastEdge = now
		if b.recheck != nil {
			b.recheck.Stop()
			b.recheck = nil
		}
		b.deliverLocked(true)
		return
	}

	// rising edge: release
	if !b.down {
		return
	}
	if held := now.Sub(b.pushedAt); held < b.activeTime {
		// likely bounce; recheck the level once the window has passed
		b.scheduleRecheckLocked(b.activeTime - held)
		return
	}
	b.releaseLocked(now)
}

func (b *Button) scheduleRecheckLocked(after time.Duration) {
	if b.recheck != nil {
		b.recheck.Stop()
	}
	b.recheck = time.AfterFunc(after, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.recheck = nil
		if b.down && b.pin.Read() {
			b.releaseLocked(time.Now())
		}
	})
}

func (b *Button) releaseLocked(now time.Time) {
	b.down = false
	b.lastEdge = now
	b.deliverLocked(false)
}

func (b *Button) deliverLocked(push bool) {
	b.loop.Post(func() {
		b.mu.Lock()
		var h Handler
		if push {
			h = b.onPush
		} else {
			h = b.onRelease
		}
		b.mu.Unlock()

		if push {
			b.led.On()
		} else {
			b.led.Off()
		}
		if h != nil {
			h(b.Index)
		}
	})
}
