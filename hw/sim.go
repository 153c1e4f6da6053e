package hw

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
)

// SimPin is an in-memory InputPin. Tests and the desktop badge inject edges
// (including bounce bursts) with Trigger.
type SimPin struct {
	mu      sync.Mutex
	level   bool
	handler func(level bool)
}

func NewSimPin() *SimPin {
	return &SimPin{level: true} // pull-up: idle high
}

func (p *SimPin) SetEdgeHandler(fn func(level bool)) {
	p.mu.Lock()
	p.handler = fn
	p.mu.Unlock()
}

func (p *SimPin) Read() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Trigger drives the pin to level and fires the edge handler, like the GPIO
// interrupt would.
func (p *SimPin) Trigger(level bool) {
	p.mu.Lock()
	p.level = level
	fn := p.handler
	p.mu.Unlock()
	if fn != nil {
		fn(level)
	}
}

// SimLED records its lit state.
type SimLED struct {
	mu  sync.Mutex
	lit bool
}

func NewSimLED() *SimLED { return &SimLED{} }

func (l *SimLED) On() {
	l.mu.Lock()
	l.lit = true
	l.mu.Unlock()
}

func (l *SimLED) Off() {
	l.mu.Lock()
	l.lit = false
	l.mu.Unlock()
}

func (l *SimLED) Lit() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lit
}

// SimBuzzer is a silent buzzer.
type SimBuzzer struct{}

func (SimBuzzer) RandomSong() {}
func (SimBuzzer) Silence()    {}

// CryptoEntropy stands in for the hardware RNG.
type CryptoEntropy struct{}

func (CryptoEntropy) Uint32() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("entropy source failed: " + err.Error())
	}
	return binary.LittleEndian.Uint32(b[:])
}
