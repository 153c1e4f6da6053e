// Package hw defines the hardware surface the game core consumes: digital
// input pins, LEDs, the buzzer and the entropy source. Real GPIO/PWM drivers
// live behind these interfaces; the sim implementations in this package back
// tests and the desktop badge process.
package hw

import (
	"time"

	"github.com/valyala/fastrand"
)

// InputPin is a pull-up digital input delivering raw edge interrupts. The
// edge handler runs at interrupt context and must only enqueue work; level is
// the pin level after the edge (false = low = pressed).
type InputPin interface {
	SetEdgeHandler(fn func(level bool))
	Read() bool
}

type LED interface {
	On()
	Off()
}

// Buzzer plays music. Tone generation and songs are driver territory; the
// game only ever asks for a random tune or silence.
type Buzzer interface {
	RandomSong()
	Silence()
}

// Entropy is the hardware RNG used to seed solo games and challenge offers.
type Entropy interface {
	Uint32() uint32
}

// Lights is the badge's set of four LEDs with the display patterns the game
// states use. Unit paces the blocking flash patterns; tests set it to zero.
type Lights struct {
	LEDs []LED
	Unit time.Duration
}

func NewLights(leds []LED, unit time.Duration) *Lights {
	return &Lights{LEDs: leds, Unit: unit}
}

func (l *Lights) Len() int { return len(l.LEDs) }

func (l *Lights) Get(i int) LED { return l.LEDs[i] }

func (l *Lights) AllOn() {
	for _, led := range l.LEDs {
		led.On()
	}
}

func (l *Lights) AllOff() {
	for _, led := range l.LEDs {
		led.Off()
	}
}

// Flash lights a single LED for d, blocking. Pacing only; callers hold the
// cooperative loop while it runs.
func (l *Lights) Flash(i int, d time.Duration) {
	l.LEDs[i].On()
	time.Sleep(d)
	l.LEDs[i].Off()
}

func (l *Lights) Blink(i int, times int) {
	for n := 0; n < times; n++ {
		l.Flash(i, l.Unit)
		if n < times-1 {
			time.Sleep(l.Unit)
		}
	}
}

// AllBlink is the loss/round-boundary pattern.
func (l *Lights) AllBlink(times int) {
	for n := 0; n < times; n++ {
		time.Sleep(3 * l.Unit)
		l.AllOn()
		time.Sleep(3 * l.Unit)
		l.AllOff()
	}
}

// Confetti is the win pattern: random single flashes, never the same LED
// twice in a row.
func (l *Lights) Confetti(times int) {
	last := -1
	for n := 0; n < times; n++ {
		i := int(fastrand.Uint32n(uint32(len(l.LEDs))))
		if i == last {
			i = (i + 1) % len(l.LEDs)
		}
		last = i
		l.Flash(i, l.Unit)
	}
}
