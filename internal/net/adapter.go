package net

import (
	"encoding/json"
	"log/slog"

	"LiveBoard/internal/state"
)

// Transport is the duplex named-event channel. Connection lifecycle belongs to
// the implementation.
type Transport interface {
	Emit(event string, payload any) error
	On(event string, handler func(data json.RawMessage))
}

// Adapter moves lines between the board and a Transport. Sends are
// fire-and-forget: a failed send is logged and the line is lost.
type Adapter struct {
	transport Transport
	log       *slog.Logger
}

// NewAdapter returns an adapter over t.
func NewAdapter(t Transport, log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{transport: t, log: log}
}

// Send emits ln as a draw event.
func (a *Adapter) Send(ln state.Line) {
	if err := a.transport.Emit(EventDraw, ln); err != nil {
		a.log.Debug("line not sent", slog.String("error", err.Error()))
	}
}

// Subscribe forwards every well-formed draw-sync line to onLine and every
// peer-left to onLeave. Malformed payloads are logged and dropped.
func (a *Adapter) Subscribe(onLine func(state.SenderID, state.Line), onLeave func(state.SenderID)) {
	a.transport.On(EventDrawSync, func(data json.RawMessage) {
		sender, ln, err := DecodeSync(data)
		if err != nil {
			a.log.Warn("dropping draw-sync", slog.String("sender", string(sender)), slog.String("error", err.Error()))
			return
		}
		onLine(sender, ln)
	})
	if onLeave == nil {
		return
	}
	a.transport.On(EventPeerLeft, func(data json.RawMessage) {
		var msg PeerLeftMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Sender == "" {
			a.log.Warn("dropping peer-left", slog.Any("error", err))
			return
		}
		onLeave(msg.Sender)
	})
}
