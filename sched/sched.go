// Package sched provides the cooperative run loop that serializes every piece
// of state-mutating work on the badge. Interrupt-context code (pin edge
// handlers, the radio read loop, expired timers) never touches game state
// directly; it posts a unit of work here and the loop goroutine runs it.
package sched

import (
	"sync"
)

// Loop is a single-goroutine FIFO executor.
type Loop struct {
	work chan func()
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 256
	}
	return &Loop{
		work: make(chan func(), buffer),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (l *Loop) Start() {
	go l.run()
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case fn := <-l.work:
			fn()
		case <-l.quit:
			return
		}
	}
}

// Post enqueues fn for execution on the loop goroutine. Safe to call from any
// goroutine, including the loop itself. After Stop the work is silently
// dropped, matching hardware interrupts that arrive during shutdown.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.quit:
	case l.work <- fn:
	}
}

// Sync posts a barrier and waits for it to execute, guaranteeing all work
// posted before the call has run. Returns immediately once the loop stops.
func (l *Loop) Sync() {
	barrier := make(chan struct{})
	l.Post(func() { close(barrier) })
	select {
	case <-barrier:
	case <-l.done:
	}
}

func (l *Loop) Stop() {
	l.once.Do(func() { close(l.quit) })
	<-l.done
}
