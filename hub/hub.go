// Package hub is the relay that stands in for the air: badges running as
// separate processes connect over websocket and the hub routes their frames
// by station address. It never inspects payloads; broadcast frames fan out to
// every other station, unicast frames go to exactly one, and frames for an
// unknown address vanish the way they would on a real radio channel.
package hub

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/wfunc/simonbadge/logger"
	"github.com/wfunc/simonbadge/monitor"
	"github.com/wfunc/simonbadge/radio"
)

type Hub struct {
	addr     string
	upgrader websocket.Upgrader
	registry *Registry
	metrics  *monitor.HubMetrics
}

func NewHub(addr string, metrics *monitor.HubMetrics) *Hub {
	return &Hub{
		addr:     addr,
		registry: NewRegistry(),
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}
}

// Handler exposes the relay endpoint, mountable in tests without a listener.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/air", h.handleAir)
	return mux
}

func (h *Hub) Start() error {
	logger.Log.Infof("hub listening on %s", h.addr)
	return http.ListenAndServe(h.addr, h.Handler())
}

func (h *Hub) handleAir(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("upgrade failed: %v", err)
		return
	}
	h.handleStation(conn)
}

func (h *Hub) handleStation(conn *websocket.Conn) {
	// 第一条消息是6字节的station地址
	_, hello, err := conn.ReadMessage()
	if err != nil || len(hello) != len(radio.Addr{}) {
		logger.Log.Warnf("bad hello from %s", conn.RemoteAddr())
		conn.Close()
		return
	}
	var addr radio.Addr
	copy(addr[:], hello)

	station := NewStation(addr, conn)
	if old := h.registry.Add(station); old != nil {
		logger.Log.Infof("station %s reconnected, dropping stale connection", addr)
		old.Close()
	}
	logger.Log.Infof("station %s joined from %s (%d on air)",
		addr, conn.RemoteAddr(), h.registry.Count())
	if h.metrics != nil {
		h.metrics.Connected.Inc()
	}

	defer func() {
		h.registry.Remove(station)
		station.Close()
		if h.metrics != nil {
			h.metrics.Connected.Dec()
		}
		logger.Log.Infof("station %s left (%d on air)", addr, h.registry.Count())
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.relay(station, data)
	}
}

// relay routes one encoded frame. The sender's claimed source address must
// match its hello; a station cannot speak for another.
func (h *Hub) relay(from *Station, data []byte) {
	f, err := radio.DecodeFrame(data)
	if err != nil {
		logger.Log.Warnf("undecodable frame from %s: %v", from.Addr, err)
		return
	}
	if f.From != from.Addr {
		logger.Log.Warnf("station %s spoofing source %s, dropped", from.Addr, f.From)
		return
	}

	if f.To == radio.Broadcast {
		for _, station := range h.registry.Others(from.Addr) {
			if err := station.Send(data); err != nil {
				logger.Log.Warnf("relay to %s failed: %v", station.Addr, err)
			}
		}
		if h.metrics != nil {
			h.metrics.FramesRelayed.Inc()
		}
		return
	}

	station, exists := h.registry.Get(f.To)
	if !exists {
		// nobody at that address; a real radio would drop it too
		return
	}
	if err := station.Send(data); err != nil {
		logger.Log.Warnf("relay to %s failed: %v", station.Addr, err)
	}
	if h.metrics != nil {
		h.metrics.FramesRelayed.Inc()
	}
}
