package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wfunc/simonbadge/button"
	"github.com/wfunc/simonbadge/config"
	"github.com/wfunc/simonbadge/game"
	"github.com/wfunc/simonbadge/gamelog"
	"github.com/wfunc/simonbadge/hw"
	"github.com/wfunc/simonbadge/logger"
	"github.com/wfunc/simonbadge/monitor"
	"github.com/wfunc/simonbadge/radio"
	"github.com/wfunc/simonbadge/sched"
	"github.com/wfunc/simonbadge/timer"
)

// consoleLED draws the four-LED bar on stdout so the desktop badge is
// playable without hardware.
type consoleLED struct {
	index int
	bar   *ledBar
}

type ledBar struct {
	lit [4]bool
}

func (b *ledBar) render() {
	cells := make([]string, len(b.lit))
	for i, on := range b.lit {
		if on {
			cells[i] = "(*)"
		} else {
			cells[i] = "( )"
		}
	}
	fmt.Printf("\r  %s  ", strings.Join(cells, " "))
}

func (l *consoleLED) On() {
	l.bar.lit[l.index] = true
	l.bar.render()
}

func (l *consoleLED) Off() {
	l.bar.lit[l.index] = false
	l.bar.render()
}

// consoleBuzzer hums in text.
type consoleBuzzer struct{}

func (consoleBuzzer) RandomSong() { fmt.Print("\r  ♪ ♫ ♪\n") }
func (consoleBuzzer) Silence()    {}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Init()
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	if cfg.Badge.Debug {
		logger.InitDevelopment()
	} else {
		logger.Init()
	}

	entropy := hw.CryptoEntropy{}
	addr := badgeAddr(cfg.Badge.Addr, entropy)
	logger.Log.Infof("badge address %s", addr)

	metrics := monitor.NewMetrics("badge")
	if cfg.Badge.MetricsAddress != "" {
		monitor.StartServer(cfg.Badge.MetricsAddress)
	}

	loop := sched.NewLoop(256)
	loop.Start()
	defer loop.Stop()

	// Buttons and LEDs
	bar := &ledBar{}
	pins := make([]*hw.SimPin, 4)
	leds := make([]hw.LED, 4)
	buttons := make([]*button.Button, 4)
	debounce := time.Duration(cfg.Badge.DebounceMs) * time.Millisecond
	active := time.Duration(cfg.Badge.ActiveTimeMs) * time.Millisecond
	for i := range pins {
		pins[i] = hw.NewSimPin()
		leds[i] = &consoleLED{index: i, bar: bar}
		buttons[i] = button.New(i, pins[i], leds[i], loop, debounce, active)
	}
	lights := hw.NewLights(leds, time.Duration(cfg.Badge.FlashUnitMs)*time.Millisecond)

	// Radio over the hub relay
	link := radio.NewLink(radio.NewHubTransport(cfg.Radio.HubURL, addr), loop)
	link.SetMetrics(metrics)
	if err := link.TurnOn(); err != nil {
		logger.Log.Fatalf("Failed to join the air: %v", err)
	}
	defer link.TurnOff()

	// Local game queue
	store, err := gamelog.Open(cfg.GameLog.Path, cfg.GameLog.Endpoint, addr.String())
	if err != nil {
		logger.Log.Fatalf("Failed to open gamelog: %v", err)
	}
	defer store.Close()
	go flushLoop(store, time.Duration(cfg.GameLog.FlushPeriodMs)*time.Millisecond)

	machine := game.NewMachine(loop, buttons, lights, consoleBuzzer{}, link,
		timer.New(loop), entropy, game.Options{
			MaxRounds:    cfg.Badge.MaxRounds,
			GuessTimeout: time.Duration(cfg.Badge.GuessTimeoutMs) * time.Millisecond,
			GameLog:      store,
			Metrics:      metrics,
		})
	machine.Start(game.StateAwake)

	fmt.Println("commands: p<n> press button n, r<n> release, q quit")
	bar.render()
	console(pins)
}

// badgeAddr returns the configured station address, or derives a random
// locally-administered one.
func badgeAddr(configured string, entropy hw.Entropy) radio.Addr {
	if configured != "" {
		addr, err := radio.ParseAddr(configured)
		if err != nil {
			logger.Log.Fatalf("Bad badge address: %v", err)
		}
		return addr
	}
	var addr radio.Addr
	addr[0] = 0x02
	r := entropy.Uint32()
	addr[2] = byte(r >> 24)
	addr[3] = byte(r >> 16)
	addr[4] = byte(r >> 8)
	addr[5] = byte(r)
	return addr
}

// console maps stdin lines to pin edges.
func console(pins []*hw.SimPin) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "q" {
			return
		}
		if len(line) < 2 {
			continue
		}
		n, err := strconv.Atoi(line[1:])
		if err != nil || n < 0 || n >= len(pins) {
			continue
		}
		switch line[0] {
		case 'p':
			pins[n].Trigger(false)
		case 'r':
			pins[n].Trigger(true)
		}
	}
}

func flushLoop(store *gamelog.Store, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := store.Flush(ctx); err != nil {
			logger.Log.Warnf("gamelog flush failed: %v", err)
		}
		cancel()
	}
}
