package radio

import (
	"sync"
)

// Air is an in-memory radio medium connecting badges that live in one
// process (tests, the two-player desktop sim). Delivery is synchronous and
// best-effort: frames to unknown addresses vanish, like on the real channel.
type Air struct {
	mu       sync.Mutex
	stations map[Addr]*AirTransport
}

func NewAir() *Air {
	return &Air{stations: make(map[Addr]*AirTransport)}
}

// Join creates a transport for addr on this medium.
func (a *Air) Join(addr Addr) *AirTransport {
	tr := &AirTransport{air: a, addr: addr, peers: make(map[Addr]struct{})}
	a.mu.Lock()
	a.stations[addr] = tr
	a.mu.Unlock()
	return tr
}

func (a *Air) deliver(f Frame) {
	a.mu.Lock()
	var targets []*AirTransport
	if f.To == Broadcast {
		for addr, st := range a.stations {
			if addr != f.From {
				targets = append(targets, st)
			}
		}
	} else if st, ok := a.stations[f.To]; ok {
		targets = append(targets, st)
	}
	a.mu.Unlock()

	for _, st := range targets {
		st.inject(f)
	}
}

type AirTransport struct {
	air  *Air
	addr Addr

	mu    sync.Mutex
	recv  func(Frame)
	peers map[Addr]struct{}
}

func (t *AirTransport) LocalAddr() Addr { return t.addr }

func (t *AirTransport) Activate(recv func(Frame)) error {
	t.mu.Lock()
	t.recv = recv
	t.mu.Unlock()
	return nil
}

func (t *AirTransport) Deactivate() error {
	t.mu.Lock()
	t.recv = nil
	t.peers = make(map[Addr]struct{})
	t.mu.Unlock()
	return nil
}

func (t *AirTransport) AddPeer(addr Addr) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.peers[addr]; ok {
		return ErrPeerExists
	}
	t.peers[addr] = struct{}{}
	return nil
}

func (t *AirTransport) Send(to Addr, payload []byte) error {
	t.air.deliver(Frame{From: t.addr, To: to, Payload: append([]byte(nil), payload...)})
	return nil
}

// inject delivers a frame as the radio interrupt would.
func (t *AirTransport) inject(f Frame) {
	t.mu.Lock()
	recv := t.recv
	t.mu.Unlock()
	if recv != nil {
		recv(f)
	}
}
