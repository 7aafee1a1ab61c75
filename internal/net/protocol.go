package net

import (
	"encoding/json"
	"errors"
	"fmt"

	"LiveBoard/internal/state"
)

// Event names on the wire.
const (
	EventDraw     = "draw"
	EventDrawSync = "draw-sync"
	EventPeerLeft = "peer-left"
)

var (
	// ErrDisconnected is returned by Emit when there is no live connection.
	ErrDisconnected = errors.New("transport disconnected")
	// ErrSendQueueFull is returned by Emit when the writer has fallen behind.
	ErrSendQueueFull = errors.New("send queue full")
	// ErrUnknownEvent is returned for envelopes with an unexpected event name.
	ErrUnknownEvent = errors.New("unknown event")
)

// Envelope is one websocket frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SyncMessage is the payload of draw-sync. Only the receive side wraps the line.
type SyncMessage struct {
	Line   *state.Line    `json:"line"`
	Sender state.SenderID `json:"sender,omitempty"`
}

// PeerLeftMessage is the payload of peer-left.
type PeerLeftMessage struct {
	Sender state.SenderID `json:"sender"`
}

// NewEnvelope marshals payload under event.
func NewEnvelope(event string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return Envelope{Event: event, Data: data}, nil
}

// DecodeLine parses a bare draw payload.
func DecodeLine(data []byte) (state.Line, error) {
	var ln state.Line
	if err := json.Unmarshal(data, &ln); err != nil {
		return state.Line{}, fmt.Errorf("decode line: %w", err)
	}
	if err := ln.Validate(); err != nil {
		return state.Line{}, err
	}
	return ln, nil
}

// DecodeSync parses a draw-sync payload and unwraps its line.
func DecodeSync(data []byte) (state.SenderID, state.Line, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", state.Line{}, fmt.Errorf("decode draw-sync: %w", err)
	}
	if msg.Line == nil {
		return msg.Sender, state.Line{}, state.ErrMissingTo
	}
	if err := msg.Line.Validate(); err != nil {
		return msg.Sender, state.Line{}, err
	}
	return msg.Sender, *msg.Line, nil
}
