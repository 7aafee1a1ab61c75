package net

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait     = 2 * time.Second
	redialBackoff = time.Second
	outboxSize    = 256
)

// WSTransport is the client side of the relay connection. It redials until its
// context ends and never buffers across disconnects. Writes go through a
// bounded outbox drained by a writer goroutine, so Emit never waits on the
// network.
type WSTransport struct {
	endpoint    string
	dialer      *websocket.Dialer
	backoff     time.Duration
	readTimeout time.Duration
	pingEvery   time.Duration
	log         *slog.Logger

	mu     sync.Mutex
	outbox chan Envelope

	hmu      sync.RWMutex
	handlers map[string][]func(json.RawMessage)

	// OnStatus, when set, is called after every connect and disconnect.
	OnStatus func(connected bool, err error)
}

// NewWSTransport returns a transport for the websocket URL endpoint. Call Run to
// connect.
func NewWSTransport(endpoint string, log *slog.Logger) *WSTransport {
	if log == nil {
		log = slog.Default()
	}
	return &WSTransport{
		endpoint:    endpoint,
		dialer:      websocket.DefaultDialer,
		backoff:     redialBackoff,
		readTimeout: pongWait,
		pingEvery:   pingPeriod,
		log:         log,
		handlers:    make(map[string][]func(json.RawMessage)),
	}
}

// On registers handler for event. Handlers run on the read goroutine.
func (t *WSTransport) On(event string, handler func(data json.RawMessage)) {
	t.hmu.Lock()
	defer t.hmu.Unlock()
	t.handlers[event] = append(t.handlers[event], handler)
}

// Emit queues one envelope for the writer. It returns ErrDisconnected when there
// is no connection and ErrSendQueueFull when the writer is behind; in both cases
// the frame is lost.
func (t *WSTransport) Emit(event string, payload any) error {
	env, err := NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.outbox == nil {
		return ErrDisconnected
	}
	select {
	case t.outbox <- env:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Connected reports whether a connection is currently up.
func (t *WSTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outbox != nil
}

// Run connects and reads until ctx is done, redialing after every failure.
func (t *WSTransport) Run(ctx context.Context) error {
	for {
		err := t.connectAndRead(ctx)
		t.status(false, err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		t.log.Warn("relay connection lost", slog.String("endpoint", t.endpoint), slog.Any("error", err))

		timer := time.NewTimer(t.backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

func (t *WSTransport) connectAndRead(ctx context.Context) error {
	conn, _, err := t.dialer.DialContext(ctx, t.endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}

	outbox := make(chan Envelope, outboxSize)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		t.writePump(conn, outbox, done)
	}()
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer func() {
		// stop queueing before the writer goes away
		t.setOutbox(nil)
		close(done)
		_ = conn.Close()
		wg.Wait()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(t.readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(t.readTimeout))
	})

	t.setOutbox(outbox)
	t.status(true, nil)
	t.log.Info("connected to relay", slog.String("endpoint", t.endpoint))

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(t.readTimeout))
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.log.Warn("dropping malformed frame", slog.String("error", err.Error()))
			continue
		}
		t.dispatch(env)
	}
}

// writePump is the only writer on conn. A failed write closes conn, which ends
// the read loop and with it the connection.
func (t *WSTransport) writePump(conn *websocket.Conn, outbox <-chan Envelope, done <-chan struct{}) {
	ticker := time.NewTicker(t.pingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case env := <-outbox:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(env); err != nil {
				t.log.Warn("relay write failed", slog.String("event", env.Event), slog.String("error", err.Error()))
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

func (t *WSTransport) dispatch(env Envelope) {
	t.hmu.RLock()
	hs := t.handlers[env.Event]
	t.hmu.RUnlock()
	if len(hs) == 0 {
		t.log.Debug("no handler for event", slog.String("event", env.Event))
		return
	}
	for _, h := range hs {
		h(env.Data)
	}
}

func (t *WSTransport) setOutbox(outbox chan Envelope) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outbox = outbox
}

func (t *WSTransport) status(connected bool, err error) {
	if t.OnStatus != nil {
		t.OnStatus(connected, err)
	}
}
