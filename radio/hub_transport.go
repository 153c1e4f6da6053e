package radio

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/wfunc/simonbadge/logger"
)

// HubTransport carries frames over a websocket relay so badges running as
// separate processes share an air medium. The first message after dialing is
// the 6-byte station address; every following message is an encoded frame.
type HubTransport struct {
	url  string
	addr Addr

	mu     sync.Mutex
	conn   *websocket.Conn
	sendMu sync.Mutex
	peers  map[Addr]struct{}
	done   chan struct{}
}

func NewHubTransport(url string, addr Addr) *HubTransport {
	return &HubTransport{
		url:   url,
		addr:  addr,
		peers: make(map[Addr]struct{}),
	}
}

func (t *HubTransport) LocalAddr() Addr { return t.addr }

func (t *HubTransport) Activate(recv func(Frame)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.Dial(t.url, nil)
	if err != nil {
		return fmt.Errorf("radio: hub dial failed: %w", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, t.addr[:]); err != nil {
		conn.Close()
		return fmt.Errorf("radio: hub hello failed: %w", err)
	}

	t.conn = conn
	t.done = make(chan struct{})
	go t.readLoop(conn, recv, t.done)
	return nil
}

func (t *HubTransport) readLoop(conn *websocket.Conn, recv func(Frame), done chan struct{}) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
			default:
				logger.Log.Warnf("hub link lost: %v", err)
			}
			return
		}
		f, err := DecodeFrame(data)
		if err != nil {
			continue
		}
		recv(f)
	}
}

func (t *HubTransport) Deactivate() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}
	close(t.done)
	err := t.conn.Close()
	t.conn = nil
	t.peers = make(map[Addr]struct{})
	return err
}

// AddPeer is local bookkeeping only; the hub routes by address.
func (t *HubTransport) AddPeer(addr Addr) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.peers[addr]; ok {
		return ErrPeerExists
	}
	t.peers[addr] = struct{}{}
	return nil
}

func (t *HubTransport) Send(to Addr, payload []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("radio: transport not active")
	}

	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	return conn.WriteMessage(websocket.BinaryMessage, EncodeFrame(Frame{From: t.addr, To: to, Payload: payload}))
}
