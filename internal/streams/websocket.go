package streams

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BecasLan/BecasScore-sub005/internal/logging"
)

// Hub serves the event streams over websocket. Two endpoints, one per
// stream; each connection gets its own bus subscription so slow consumers
// only lose their own events.
type Hub struct {
	bus      *Bus
	upgrader websocket.Upgrader
	server   *http.Server

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

const writeTimeout = 10 * time.Second

func NewHub(bus *Bus, addr string) *Hub {
	h := &Hub{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		conns: make(map[*websocket.Conn]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/streams/triggers", h.handleTriggers)
	mux.HandleFunc("/streams/trust", h.handleTrust)
	h.server = &http.Server{Addr: addr, Handler: mux}
	return h
}

func (h *Hub) Start() {
	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("stream hub listen failed: %v", err)
		}
	}()
	logging.Info("stream hub listening on %s", h.server.Addr)
}

func (h *Hub) handleTriggers(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("trigger stream upgrade failed: %v", err)
		return
	}
	h.track(conn)

	sub := h.bus.SubscribeTriggers()
	go func() {
		defer h.drop(conn)
		for event := range sub {
			if err := h.writeJSON(conn, event); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) handleTrust(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("trust stream upgrade failed: %v", err)
		return
	}
	h.track(conn)

	sub := h.bus.SubscribeTrust()
	go func() {
		defer h.drop(conn)
		for event := range sub {
			if err := h.writeJSON(conn, event); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) writeJSON(conn *websocket.Conn, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, raw)
}

func (h *Hub) track(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) Close() error {
	h.mu.Lock()
	for conn := range h.conns {
		_ = conn.Close()
	}
	h.conns = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()
	return h.server.Close()
}
