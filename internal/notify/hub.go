package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"curvedex/internal/dex"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxPending     = 64
	maxReadMessage = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// Hub streams events to websocket subscribers. A subscriber may narrow the
// stream to one pool with the dex_id query parameter.
type Hub struct {
	mu    sync.RWMutex
	conns map[*subscriber]struct{}
}

type subscriber struct {
	hub    *Hub
	conn   *websocket.Conn
	poolID string
	send   chan []byte
	once   sync.Once
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*subscriber]struct{})}
}

// ServeHTTP upgrades the request and registers the subscriber.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	sub := &subscriber{
		hub:    h,
		conn:   conn,
		poolID: r.URL.Query().Get("dex_id"),
		send:   make(chan []byte, maxPending),
	}
	h.mu.Lock()
	h.conns[sub] = struct{}{}
	h.mu.Unlock()

	go sub.writePump()
	go sub.readPump()
}

// Subscribers returns the number of open connections.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[sub]; ok {
		delete(h.conns, sub)
		sub.once.Do(func() { close(sub.send) })
	}
}

func poolOf(ev dex.Event) string {
	switch e := ev.(type) {
	case *dex.InitializeEvent:
		return e.PoolID
	case *dex.SwapEvent:
		return e.PoolID
	case *dex.ReadyToLaunchEvent:
		return e.PoolID
	case *dex.LaunchedEvent:
		return e.PoolID
	case *dex.FeesWithdrawnEvent:
		return e.PoolID
	case *dex.ReserveBoundUpdatedEvent:
		return e.PoolID
	}
	return ""
}

// Notify queues ev for every matching subscriber; slow subscribers drop it.
func (h *Hub) Notify(_ context.Context, ev dex.Event) {
	env, err := NewEnvelope(ev)
	if err != nil {
		log.WithError(err).Error("Failed to encode event")
		return
	}
	msg, err := json.Marshal(env)
	if err != nil {
		log.WithError(err).Error("Failed to encode envelope")
		return
	}
	pool := poolOf(ev)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.conns {
		if sub.poolID != "" && pool != "" && sub.poolID != pool {
			continue
		}
		select {
		case sub.send <- msg:
		default:
			log.WithField("event", ev.EventName()).Debug("dropping event for slow subscriber")
		}
	}
}

func (s *subscriber) readPump() {
	defer func() {
		s.hub.remove(s)
		_ = s.conn.Close()
	}()
	s.conn.SetReadLimit(maxReadMessage)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).Debug("unexpected websocket close")
			}
			return
		}
	}
}

func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.hub.remove(s)
		_ = s.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
