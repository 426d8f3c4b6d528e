// Package hub pushes kiosk state to every open kiosk page over websockets.
package hub

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// registration is a new connection and the message it receives first.
type registration struct {
	conn    *websocket.Conn
	initial func() any
}

// Hub fans messages out to connected clients. All writes to a connection
// happen on the Run goroutine.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan registration
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	upgrader   websocket.Upgrader
}

// New creates a hub. Call Run before serving clients.
func New() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, constants.HubBroadcastBuffer),
		register:   make(chan registration),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
}

// Run serves register, unregister and broadcast requests until ctx is done,
// then closes every client.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case reg := <-h.register:
			h.add(reg)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			log.Printf("hub: client disconnected, total %d", count)

		case message := <-h.broadcast:
			h.writeAll(websocket.TextMessage, message)

		case <-ticker.C:
			h.writeAll(websocket.PingMessage, nil)
		}
	}
}

// add registers the client and sends it the initial message. Broadcasts
// queued after this point reach the client, so it never misses a change
// made after its snapshot was taken.
func (h *Hub) add(reg registration) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if reg.initial != nil {
		reg.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := reg.conn.WriteJSON(reg.initial()); err != nil {
			log.Printf("hub: error sending initial message: %v", err)
			reg.conn.Close()
			return
		}
	}
	h.clients[reg.conn] = true
	log.Printf("hub: client connected, total %d", len(h.clients))
}

func (h *Hub) writeAll(messageType int, data []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteMessage(messageType, data); err != nil {
			log.Printf("hub: error sending message: %v", err)
			delete(h.clients, client)
			client.Close()
		}
	}
}

// Broadcast queues v, encoded as JSON, for every client. Messages are dropped
// when the queue is full; each one is a full state snapshot so the next
// message supersedes it.
func (h *Hub) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("hub: failed to encode message: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		log.Printf("hub: broadcast queue full, dropping message")
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Handler upgrades the request and registers the connection. The value
// returned by initial is taken and sent at registration, ahead of any
// broadcast.
func (h *Hub) Handler(initial func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("hub: websocket upgrade error: %v", err)
			return
		}

		select {
		case h.register <- registration{conn: conn, initial: initial}:
		case <-h.done:
			conn.Close()
			return
		}

		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		select {
		case h.unregister <- conn:
		case <-h.done:
		}
	}
}
