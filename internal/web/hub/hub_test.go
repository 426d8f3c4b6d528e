package hub

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type message struct {
	Status string `json:"status"`
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var m message
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return m
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", n, h.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_InitialAndBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New()
	go h.Run(ctx)

	server := httptest.NewServer(h.Handler(func() any { return message{Status: "idle"} }))
	defer server.Close()

	first := dial(t, server)
	second := dial(t, server)

	if got := readMessage(t, first); got.Status != "idle" {
		t.Errorf("expected initial status idle, got %q", got.Status)
	}
	if got := readMessage(t, second); got.Status != "idle" {
		t.Errorf("expected initial status idle, got %q", got.Status)
	}

	waitForClients(t, h, 2)
	h.Broadcast(message{Status: "detecting"})

	for _, conn := range []*websocket.Conn{first, second} {
		if got := readMessage(t, conn); got.Status != "detecting" {
			t.Errorf("expected broadcast status detecting, got %q", got.Status)
		}
	}
}

func TestHub_RegisteredOnceInitialArrives(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New()
	go h.Run(ctx)

	server := httptest.NewServer(h.Handler(func() any { return message{Status: "idle"} }))
	defer server.Close()

	conn := dial(t, server)
	if got := readMessage(t, conn); got.Status != "idle" {
		t.Fatalf("expected initial status idle, got %q", got.Status)
	}

	// No waiting: a change right after the snapshot must still arrive.
	if n := h.ClientCount(); n != 1 {
		t.Fatalf("expected client registered before initial message, got %d clients", n)
	}
	h.Broadcast(message{Status: "detecting"})
	if got := readMessage(t, conn); got.Status != "detecting" {
		t.Errorf("expected broadcast status detecting, got %q", got.Status)
	}
}

func TestHub_UnregistersClosedClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New()
	go h.Run(ctx)

	server := httptest.NewServer(h.Handler(nil))
	defer server.Close()

	conn := dial(t, server)
	waitForClients(t, h, 1)

	conn.Close()
	waitForClients(t, h, 0)
}

func TestHub_BroadcastAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := New()
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	cancel()
	<-stopped

	for range 2 * cap(h.broadcast) {
		h.Broadcast(message{Status: "late"})
	}
}
