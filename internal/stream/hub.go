// Package stream broadcasts renderer state frames to WebSocket subscribers.
// Any number of observers (dashboards, test harnesses) can watch the
// simulated badge by connecting to the renderer's /ws endpoint; each state
// change is pushed as one JSON text frame.
package stream

import (
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"

	"github.com/glowsign/display-app/internal/metrics"
)

// subscriber is one connected observer with a write mutex serializing
// outbound frames.
type subscriber struct {
	id      string
	conn    net.Conn
	writeMu sync.Mutex
}

// write sends a WebSocket text frame to this subscriber.
func (s *subscriber) write(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return wsutil.WriteServerMessage(s.conn, ws.OpText, data)
}

// Hub is a thread-safe registry of state-stream subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]*subscriber

	// lastFrame is replayed to new subscribers so they see the current
	// state immediately instead of waiting for the next change.
	lastFrame []byte
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]*subscriber)}
}

// HandleUpgrade upgrades an HTTP request to a WebSocket subscription. Each
// subscriber gets a reader goroutine whose only job is detecting the close
// handshake; clients are not expected to send data frames.
func (h *Hub) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		log.Printf("[stream] upgrade failed: %v", err)
		return
	}

	sub := &subscriber{id: uuid.New().String(), conn: conn}

	h.mu.Lock()
	h.subs[sub.id] = sub
	last := h.lastFrame
	h.mu.Unlock()

	metrics.StreamSubscribers.Inc()
	log.Printf("[stream] subscriber %s connected (%d total)", sub.id, h.Count())

	if last != nil {
		if err := sub.write(last); err != nil {
			h.remove(sub.id)
			return
		}
	}

	go h.readLoop(sub)
}

// readLoop consumes client frames until the connection dies or the client
// closes. Incoming data frames are discarded.
func (h *Hub) readLoop(sub *subscriber) {
	defer h.remove(sub.id)
	for {
		if _, _, err := wsutil.ReadClientData(sub.conn); err != nil {
			return
		}
	}
}

// Broadcast sends a state frame to all subscribers. Errors on individual
// connections drop that subscriber; the rest are unaffected.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	h.lastFrame = data
	subs := make([]*subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.write(data); err != nil {
			h.remove(sub.id)
		}
	}
}

// Count returns the current number of subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	n := len(h.subs)
	h.mu.RUnlock()
	return n
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.subs = make(map[string]*subscriber)
	h.mu.Unlock()

	for _, sub := range subs {
		deadline := time.Now().Add(time.Second)
		_ = sub.conn.SetWriteDeadline(deadline)
		_ = sub.conn.Close()
		metrics.StreamSubscribers.Dec()
	}
}

// remove drops a subscriber and closes its connection.
func (h *Hub) remove(id string) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()

	if ok {
		sub.conn.Close()
		metrics.StreamSubscribers.Dec()
		log.Printf("[stream] subscriber %s disconnected (%d total)", id, h.Count())
	}
}
