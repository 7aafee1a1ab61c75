package net

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"LiveBoard/internal/platform/metrics"
	"LiveBoard/internal/state"
)

func newRelay(t *testing.T) (*PeerManager, string) {
	t.Helper()
	pm := NewPeerManager(quietLogger(), metrics.New())
	srv := httptest.NewServer(pm)
	t.Cleanup(srv.Close)
	return pm, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForPeers(t *testing.T, pm *PeerManager, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for pm.Count() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d peers, have %d", n, pm.Count())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func TestPeerManager_relaysToOthersOnly(t *testing.T) {
	pm, url := newRelay(t)
	a := dial(t, url)
	b := dial(t, url)
	waitForPeers(t, pm, 2)

	if err := a.WriteJSON(map[string]any{"event": EventDraw, "data": map[string]any{"from": map[string]int{"x": 10, "y": 10}, "to": map[string]int{"x": 10, "y": 15}}}); err != nil {
		t.Fatalf("write: %v", err)
	}

	env := readEnvelope(t, b)
	if env.Event != EventDrawSync {
		t.Fatalf("expected draw-sync, got %q", env.Event)
	}
	sender, ln, err := DecodeSync(env.Data)
	if err != nil {
		t.Fatalf("DecodeSync: %v", err)
	}
	if sender == "" || *ln.From != (state.Point{X: 10, Y: 10}) || *ln.To != (state.Point{X: 10, Y: 15}) {
		t.Errorf("unexpected relay %q %+v", sender, ln)
	}

	// the author gets nothing back
	_ = a.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := a.ReadMessage(); err == nil {
		t.Errorf("author should not receive its own line")
	}
}

func TestPeerManager_malformedFrameKeepsConnection(t *testing.T) {
	pm, url := newRelay(t)
	a := dial(t, url)
	b := dial(t, url)
	waitForPeers(t, pm, 2)

	_ = a.WriteMessage(websocket.TextMessage, []byte("garbage"))
	_ = a.WriteJSON(map[string]any{"event": EventDraw, "data": map[string]any{"from": map[string]int{"x": 1, "y": 1}}})
	_ = a.WriteJSON(map[string]any{"event": EventDraw, "data": map[string]any{"to": map[string]int{"x": 2, "y": 2}}})

	env := readEnvelope(t, b)
	_, ln, err := DecodeSync(env.Data)
	if err != nil || ln.To.X != 2 {
		t.Fatalf("expected only the valid line to be relayed, got %+v %v", ln, err)
	}
	if pm.Count() != 2 {
		t.Errorf("malformed frames must not drop the connection")
	}
}

func TestPeerManager_announcesPeerLeft(t *testing.T) {
	pm, url := newRelay(t)
	a := dial(t, url)
	b := dial(t, url)
	waitForPeers(t, pm, 2)

	_ = a.Close()
	env := readEnvelope(t, b)
	if env.Event != EventPeerLeft {
		t.Fatalf("expected peer-left, got %q", env.Event)
	}
	var msg PeerLeftMessage
	if err := json.Unmarshal(env.Data, &msg); err != nil || msg.Sender == "" {
		t.Errorf("unexpected peer-left payload %s", env.Data)
	}
	waitForPeers(t, pm, 1)
}

func TestWSTransport_roundTripThroughRelay(t *testing.T) {
	pm, url := newRelay(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := NewWSTransport(url, quietLogger())
	receiver := NewWSTransport(url, quietLogger())

	got := make(chan state.Line, 1)
	NewAdapter(receiver, quietLogger()).Subscribe(func(_ state.SenderID, ln state.Line) { got <- ln }, nil)

	go sender.Run(ctx)
	go receiver.Run(ctx)
	waitForPeers(t, pm, 2)
	deadline := time.Now().Add(2 * time.Second)
	for !sender.Connected() || !receiver.Connected() {
		if time.Now().After(deadline) {
			t.Fatal("transports did not connect")
		}
		time.Sleep(5 * time.Millisecond)
	}

	NewAdapter(sender, quietLogger()).Send(state.Line{To: &state.Point{X: 7, Y: 9}})

	select {
	case ln := <-got:
		if *ln.To != (state.Point{X: 7, Y: 9}) {
			t.Errorf("unexpected line %+v", ln)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("line was not delivered")
	}
}

func TestWSTransport_emitWhileDisconnected(t *testing.T) {
	tr := NewWSTransport("ws://127.0.0.1:1/ws", quietLogger())
	if err := tr.Emit(EventDraw, state.Line{}); !errors.Is(err, ErrDisconnected) {
		t.Errorf("expected ErrDisconnected, got %v", err)
	}
}
