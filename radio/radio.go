// Package radio implements the board-to-board link: tagged text frames over
// a best-effort broadcast/unicast transport, peer-list management, and
// inbound dispatch with duplicate suppression. There is no delivery
// guarantee and no authentication; the game protocol copes above this layer.
package radio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/wfunc/simonbadge/logger"
	"github.com/wfunc/simonbadge/monitor"
	"github.com/wfunc/simonbadge/sched"
)

// frameTag identifies this application's frames; foreign traffic on the
// channel is dropped.
const frameTag = "simon27 "

type Addr [6]byte

// Broadcast is the reserved all-stations address, always an implicit peer.
var Broadcast = Addr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

func (a Addr) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", a[0], a[1], a[2], a[3], a[4], a[5])
}

func ParseAddr(s string) (Addr, error) {
	var a Addr
	n, err := fmt.Sscanf(s, "%02x:%02x:%02x:%02x:%02x:%02x", &a[0], &a[1], &a[2], &a[3], &a[4], &a[5])
	if err != nil || n != 6 {
		return Addr{}, fmt.Errorf("radio: bad address %q", s)
	}
	return a, nil
}

var ErrPeerExists = errors.New("radio: peer already exists")

// Frame is one transmission on the medium.
type Frame struct {
	From    Addr
	To      Addr
	Payload []byte
}

// Transport is the raw radio. Activate installs the receive handler, which
// runs at interrupt context and must only enqueue work.
type Transport interface {
	LocalAddr() Addr
	Activate(recv func(Frame)) error
	Deactivate() error
	AddPeer(addr Addr) error
	Send(to Addr, payload []byte) error
}

// Callback receives the body of a validated inbound frame (tag stripped).
type Callback func(from Addr, body []byte)

// Link owns the transport for one badge. At most one callback is registered
// at a time; registering replaces the previous one.
type Link struct {
	tr      Transport
	loop    *sched.Loop
	metrics *monitor.Metrics

	mu       sync.Mutex
	on       bool
	peers    map[Addr]struct{}
	cb       Callback
	lastFrom Addr
	lastBody []byte
	haveLast bool
}

func NewLink(tr Transport, loop *sched.Loop) *Link {
	return &Link{
		tr:    tr,
		loop:  loop,
		peers: make(map[Addr]struct{}),
	}
}

func (l *Link) SetMetrics(m *monitor.Metrics) {
	l.metrics = m
}

func (l *Link) LocalAddr() Addr {
	return l.tr.LocalAddr()
}

// TurnOn activates the radio and joins the channel. Idempotent.
func (l *Link) TurnOn() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.on {
		return nil
	}
	if err := l.tr.Activate(l.receive); err != nil {
		return err
	}
	if err := l.addPeerLocked(Broadcast); err != nil {
		return err
	}
	l.on = true
	return nil
}

func (l *Link) TurnOff() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.on {
		return nil
	}
	l.on = false
	l.cb = nil
	l.haveLast = false
	l.peers = make(map[Addr]struct{})
	return l.tr.Deactivate()
}

func (l *Link) Broadcast(body string) error {
	return l.transmit(Broadcast, body)
}

// Send transmits to a specific peer, lazily registering it. A peer that is
// already registered is not an error.
func (l *Link) Send(to Addr, body string) error {
	l.mu.Lock()
	err := l.addPeerLocked(to)
	l.mu.Unlock()
	if err != nil {
		return err
	}
	return l.transmit(to, body)
}

func (l *Link) transmit(to Addr, body string) error {
	logger.Log.Infof("->msg send %q to %s", body, to)
	if err := l.tr.Send(to, []byte(frameTag+body)); err != nil {
		return err
	}
	if l.metrics != nil {
		l.metrics.FramesSent.Inc()
	}
	return nil
}

func (l *Link) addPeerLocked(addr Addr) error {
	if _, ok := l.peers[addr]; ok {
		return nil
	}
	l.peers[addr] = struct{}{}
	if err := l.tr.AddPeer(addr); err != nil && !errors.Is(err, ErrPeerExists) {
		return err
	}
	return nil
}

// RegisterCallback installs the single inbound callback, replacing any
// previous one. The duplicate-suppression memory resets with it: each state
// gets a fresh view of the channel, so a status frame a previous state
// happened to see last is still deliverable to the new one.
func (l *Link) RegisterCallback(cb Callback) {
	l.mu.Lock()
	l.cb = cb
	if cb != nil {
		l.haveLast = false
	}
	l.mu.Unlock()
}

func (l *Link) ClearCallback() {
	l.RegisterCallback(nil)
}

// receive validates, dedupes and defers dispatch to the cooperative loop.
// The callback slot is read at execution time, so a state that cleared it
// before the work drains sees nothing.
func (l *Link) receive(f Frame) {
	if !bytes.HasPrefix(f.Payload, []byte(frameTag)) {
		return
	}
	body := f.Payload[len(frameTag):]

	l.mu.Lock()
	if l.haveLast && f.From == l.lastFrom && bytes.Equal(body, l.lastBody) {
		l.mu.Unlock()
		if l.metrics != nil {
			l.metrics.FramesDeduped.Inc()
		}
		return
	}
	l.lastFrom = f.From
	l.lastBody = append([]byte(nil), body...)
	l.haveLast = true
	l.mu.Unlock()

	if l.metrics != nil {
		l.metrics.FramesReceived.Inc()
	}

	l.loop.Post(func() {
		l.mu.Lock()
		cb := l.cb
		l.mu.Unlock()
		if cb != nil {
			logger.Log.Infof("<-msg recv %q from %s", body, f.From)
			cb(f.From, body)
		}
	})
}
