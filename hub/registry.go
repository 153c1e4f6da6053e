package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/simonbadge/radio"
)

// Station is one connected badge.
type Station struct {
	Addr     radio.Addr
	Conn     *websocket.Conn
	JoinedAt time.Time
	sendMu   sync.Mutex
}

func NewStation(addr radio.Addr, conn *websocket.Conn) *Station {
	return &Station{
		Addr:     addr,
		Conn:     conn,
		JoinedAt: time.Now(),
	}
}

// Send writes one frame to the badge. Serialized: the relay fans out from
// multiple reader goroutines but gorilla allows only one concurrent writer.
func (s *Station) Send(data []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.Conn.WriteMessage(websocket.BinaryMessage, data)
}

func (s *Station) Close() error {
	return s.Conn.Close()
}

// Station管理器
type Registry struct {
	stations map[radio.Addr]*Station
	mutex    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		stations: make(map[radio.Addr]*Station),
	}
}

// Add registers a station. A reconnecting badge replaces its stale entry;
// the previous connection, if any, is returned so the caller can close it.
func (r *Registry) Add(station *Station) *Station {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	old := r.stations[station.Addr]
	r.stations[station.Addr] = station
	return old
}

// Remove drops the station, but only if it is still the registered one: a
// replaced connection must not unregister its replacement.
func (r *Registry) Remove(station *Station) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.stations[station.Addr] == station {
		delete(r.stations, station.Addr)
	}
}

func (r *Registry) Get(addr radio.Addr) (*Station, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	station, exists := r.stations[addr]
	return station, exists
}

// Others returns every station except the given one, for broadcast fan-out.
func (r *Registry) Others(addr radio.Addr) []*Station {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var result []*Station
	for _, station := range r.stations {
		if station.Addr != addr {
			result = append(result, station)
		}
	}
	return result
}

func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.stations)
}
