package net

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// stalledRelay accepts websocket connections and never reads from them.
func stalledRelay(t *testing.T) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitConnected(t *testing.T, tr *WSTransport) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !tr.Connected() {
		if time.Now().After(deadline) {
			t.Fatal("transport did not connect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWSTransport_emitDoesNotWaitOnStalledRelay(t *testing.T) {
	url := stalledRelay(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := NewWSTransport(url, quietLogger())
	go tr.Run(ctx)
	waitConnected(t, tr)

	payload := strings.Repeat("x", 4096)
	start := time.Now()
	for i := 0; i < 2000; i++ {
		err := tr.Emit(EventDraw, payload)
		if err != nil && !errors.Is(err, ErrSendQueueFull) && !errors.Is(err, ErrDisconnected) {
			t.Fatalf("emit %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("emitting to a stalled relay took %v", elapsed)
	}
}

func TestWSTransport_unansweredPingsDropConnection(t *testing.T) {
	url := stalledRelay(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := NewWSTransport(url, quietLogger())
	tr.readTimeout = 150 * time.Millisecond
	tr.pingEvery = 50 * time.Millisecond
	tr.backoff = time.Hour

	lost := make(chan error, 1)
	tr.OnStatus = func(connected bool, err error) {
		if !connected {
			select {
			case lost <- err:
			default:
			}
		}
	}
	go tr.Run(ctx)
	waitConnected(t, tr)

	select {
	case err := <-lost:
		if err == nil {
			t.Errorf("expected a read error for the silent relay")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("silent relay was never detected")
	}
	if tr.Connected() {
		t.Errorf("transport should report disconnected")
	}
	if err := tr.Emit(EventDraw, "x"); !errors.Is(err, ErrDisconnected) {
		t.Errorf("expected ErrDisconnected after the drop, got %v", err)
	}
}
