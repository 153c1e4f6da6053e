package sched

import (
	"sync/atomic"
	"testing"
)

func TestLoop_FIFOOrder(t *testing.T) {
	loop := NewLoop(16)
	loop.Start()
	defer loop.Stop()

	var got []int
	for i := 0; i < 10; i++ {
		i := i
		loop.Post(func() { got = append(got, i) })
	}
	loop.Sync()

	if len(got) != 10 {
		t.Fatalf("expected 10 executed units, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("work executed out of order: got %v", got)
		}
	}
}

func TestLoop_PostFromLoop(t *testing.T) {
	loop := NewLoop(16)
	loop.Start()
	defer loop.Stop()

	var ran atomic.Bool
	loop.Post(func() {
		loop.Post(func() { ran.Store(true) })
	})
	loop.Sync()
	loop.Sync()

	if !ran.Load() {
		t.Fatal("work posted from the loop goroutine never ran")
	}
}

func TestLoop_PostAfterStop(t *testing.T) {
	loop := NewLoop(16)
	loop.Start()
	loop.Stop()

	// must not block or panic
	loop.Post(func() { t.Error("work ran after Stop") })
	loop.Sync()
}
