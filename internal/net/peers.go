package net

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"LiveBoard/internal/platform/metrics"
	"LiveBoard/internal/state"
)

const (
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
	maxFrameSize = 16 << 10
	sendQueue    = 256
)

// Peer is one board connected to the relay.
type Peer struct {
	ID   state.SenderID
	conn *websocket.Conn
	send chan Envelope
}

// PeerManager is the relay: every draw from one peer is forwarded as draw-sync
// to all the others. Delivery is best effort; a peer whose queue is full misses
// the frame.
type PeerManager struct {
	peers    map[state.SenderID]*Peer
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// NewPeerManager creates a relay. m may be nil to disable metric recording.
func NewPeerManager(log *slog.Logger, m *metrics.Metrics) *PeerManager {
	if log == nil {
		log = slog.Default()
	}
	return &PeerManager{
		peers: make(map[state.SenderID]*Peer),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log:     log,
		metrics: m,
	}
}

// ServeHTTP upgrades the request and serves the peer until it disconnects.
func (pm *PeerManager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := pm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		pm.log.Error("failed to upgrade", slog.String("error", err.Error()))
		return
	}
	peer := &Peer{ID: state.NewSenderID(), conn: conn, send: make(chan Envelope, sendQueue)}
	pm.add(peer)

	go pm.writePump(peer)
	pm.readPump(peer)

	pm.remove(peer)
	if env, err := NewEnvelope(EventPeerLeft, PeerLeftMessage{Sender: peer.ID}); err == nil {
		pm.Broadcast(env, peer.ID)
	}
}

// Broadcast queues env for every peer except exclude and returns how many
// peers it was queued for.
func (pm *PeerManager) Broadcast(env Envelope, exclude state.SenderID) int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	delivered := 0
	for id, p := range pm.peers {
		if id == exclude {
			continue
		}
		select {
		case p.send <- env:
			delivered++
		default:
			pm.log.Warn("peer queue full, dropping frame", slog.String("peer", string(id)), slog.String("event", env.Event))
			if pm.metrics != nil {
				pm.metrics.IncLinesDropped()
			}
		}
	}
	return delivered
}

// Count returns the number of connected peers.
func (pm *PeerManager) Count() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.peers)
}

// Close disconnects every peer.
func (pm *PeerManager) Close() {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	for _, p := range pm.peers {
		_ = p.conn.Close()
	}
}

func (pm *PeerManager) add(p *Peer) {
	pm.mu.Lock()
	pm.peers[p.ID] = p
	n := len(pm.peers)
	pm.mu.Unlock()
	if pm.metrics != nil {
		pm.metrics.SetPeers(n)
	}
	pm.log.Info("peer connected", slog.String("peer", string(p.ID)), slog.String("remote", p.conn.RemoteAddr().String()))
}

func (pm *PeerManager) remove(p *Peer) {
	pm.mu.Lock()
	delete(pm.peers, p.ID)
	// closed under the write lock so Broadcast never sends on it
	close(p.send)
	n := len(pm.peers)
	pm.mu.Unlock()
	if pm.metrics != nil {
		pm.metrics.SetPeers(n)
	}
	pm.log.Info("peer disconnected", slog.String("peer", string(p.ID)))
}

func (pm *PeerManager) readPump(p *Peer) {
	defer p.conn.Close()
	p.conn.SetReadLimit(maxFrameSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				pm.log.Warn("peer read failed", slog.String("peer", string(p.ID)), slog.String("error", err.Error()))
			}
			return
		}
		pm.handleFrame(p, raw)
	}
}

func (pm *PeerManager) handleFrame(p *Peer, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		pm.reject(p, "malformed", err)
		return
	}
	if env.Event != EventDraw {
		pm.reject(p, "unknown_event", ErrUnknownEvent)
		return
	}
	ln, err := DecodeLine(env.Data)
	if err != nil {
		pm.reject(p, "invalid_line", err)
		return
	}
	out, err := NewEnvelope(EventDrawSync, SyncMessage{Line: &ln, Sender: p.ID})
	if err != nil {
		pm.reject(p, "encode", err)
		return
	}
	n := pm.Broadcast(out, p.ID)
	if pm.metrics != nil {
		pm.metrics.IncLinesRelayed(n)
	}
	pm.log.Debug("line relayed", slog.String("peer", string(p.ID)), slog.Int("delivered", n))
}

func (pm *PeerManager) reject(p *Peer, reason string, err error) {
	pm.log.Warn("rejecting frame", slog.String("peer", string(p.ID)), slog.String("reason", reason), slog.String("error", err.Error()))
	if pm.metrics != nil {
		pm.metrics.IncFramesRejected(reason)
	}
}

func (pm *PeerManager) writePump(p *Peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = p.conn.Close()
	}()
	for {
		select {
		case env, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = p.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := p.conn.WriteJSON(env); err != nil {
				pm.log.Warn("peer write failed", slog.String("peer", string(p.ID)), slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
