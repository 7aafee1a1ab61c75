// Package board runs the client side of a shared board: pointer input is sampled,
// encoded, sent to the relay and replayed locally, while lines from other
// authors are replayed on the same surface.
package board

import (
	"context"
	"log/slog"
	"time"

	"LiveBoard/internal/capture"
	"LiveBoard/internal/replay"
	"LiveBoard/internal/state"
	"LiveBoard/internal/stroke"
)

// Sender is the outbound half of the sync adapter.
type Sender interface {
	Send(ln state.Line)
}

// Board owns the whole drawing pipeline. All of its state is touched only by
// the goroutine running Run; other goroutines post events to it.
type Board struct {
	self    state.SenderID
	sampler *capture.Sampler
	encoder *stroke.Encoder
	engine  *replay.Engine
	sender  Sender
	log     *slog.Logger

	events chan func(now time.Time)
	done   chan struct{}
	now    func() time.Time

	// OnChange, when set, is called on the loop goroutine after anything was
	// drawn.
	OnChange func()
}

// New returns a board that draws through engine and sends through sender.
// self keys the local author's pen in the engine.
func New(self state.SenderID, engine *replay.Engine, sender Sender, log *slog.Logger) *Board {
	if log == nil {
		log = slog.Default()
	}
	return &Board{
		self:    self,
		sampler: capture.NewSampler(),
		encoder: stroke.NewEncoder(state.DefaultStyle),
		engine:  engine,
		sender:  sender,
		log:     log,
		events:  make(chan func(time.Time), 256),
		done:    make(chan struct{}),
		now:     time.Now,
	}
}

// Run processes events until ctx is done.
func (b *Board) Run(ctx context.Context) error {
	defer close(b.done)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		var tick <-chan time.Time
		if deadline, ok := b.sampler.Deadline(); ok {
			timer.Reset(time.Until(deadline))
			tick = timer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-b.events:
			ev(b.now())
		case now := <-tick:
			b.emit(b.sampler.Advance(now))
		}
		if tick != nil && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}
}

func (b *Board) post(ev func(time.Time)) {
	select {
	case b.events <- ev:
	case <-b.done:
	}
}

// PointerDown starts a stroke at p.
func (b *Board) PointerDown(p state.Point) { b.post(func(now time.Time) { b.pointerDown(p, now) }) }

// PointerMove reports the pointer at p.
func (b *Board) PointerMove(p state.Point) { b.post(func(now time.Time) { b.pointerMove(p, now) }) }

// PointerUp ends the stroke.
func (b *Board) PointerUp() { b.post(b.pointerUp) }

// PointerLeave ends the stroke because the pointer left the surface.
func (b *Board) PointerLeave() { b.post(b.pointerLeave) }

// SetColor changes the local stroke colour.
func (b *Board) SetColor(c string) { b.post(func(time.Time) { b.encoder.SetColor(c) }) }

// SetLineWidth changes the local line width.
func (b *Board) SetLineWidth(w float64) { b.post(func(time.Time) { b.encoder.SetLineWidth(w) }) }

// Receive replays a line from another author.
func (b *Board) Receive(sender state.SenderID, ln state.Line) {
	b.post(func(time.Time) { b.receive(sender, ln) })
}

// PeerLeft drops the pen of an author who disconnected.
func (b *Board) PeerLeft(sender state.SenderID) {
	b.post(func(time.Time) { b.engine.Forget(sender) })
}

func (b *Board) pointerDown(p state.Point, now time.Time) {
	b.sampler.Down(p, now)
	b.encoder.BeginStroke()
}

func (b *Board) pointerMove(p state.Point, now time.Time) {
	b.emit(b.sampler.Move(p, now))
}

func (b *Board) pointerUp(now time.Time) {
	b.emit(b.sampler.Up(now))
}

func (b *Board) pointerLeave(now time.Time) {
	b.emit(b.sampler.Leave(now))
}

func (b *Board) receive(sender state.SenderID, ln state.Line) {
	if sender == b.self {
		return
	}
	if err := b.engine.Apply(sender, ln); err == nil {
		b.changed()
	}
}

// emit encodes samples in order, replays them locally through the same engine
// that replays remote lines, then hands them to the sender. The local echo is
// drawn before the network sees the lines.
func (b *Board) emit(samples []capture.Sample) {
	if len(samples) == 0 {
		return
	}
	lines := make([]state.Line, 0, len(samples))
	for _, smp := range samples {
		ln := b.encoder.Encode(smp)
		if err := b.engine.Apply(b.self, ln); err != nil {
			b.log.Error("local line rejected", slog.String("error", err.Error()))
		}
		lines = append(lines, ln)
	}
	b.changed()
	for _, ln := range lines {
		b.sender.Send(ln)
	}
}

func (b *Board) changed() {
	if b.OnChange != nil {
		b.OnChange()
	}
}
