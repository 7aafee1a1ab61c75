package replay

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"LiveBoard/internal/capture"
	"LiveBoard/internal/state"
	"LiveBoard/internal/stroke"
)

type segment struct {
	from, to state.Point
	color    string
	width    float64
}

// recordingSurface keeps every stroked segment.
type recordingSurface struct {
	color    string
	width    float64
	cap      string
	path     []state.Point
	segments []segment
	calls    []string
}

func (r *recordingSurface) BeginStroke() {
	r.path = r.path[:0]
	r.calls = append(r.calls, "begin")
}
func (r *recordingSurface) MoveTo(p state.Point) {
	r.path = append(r.path, p)
	r.calls = append(r.calls, fmt.Sprintf("move %v,%v", p.X, p.Y))
}
func (r *recordingSurface) LineTo(p state.Point) {
	r.path = append(r.path, p)
	r.calls = append(r.calls, fmt.Sprintf("line %v,%v", p.X, p.Y))
}
func (r *recordingSurface) Stroke() {
	r.calls = append(r.calls, "stroke")
	if len(r.path) == 2 {
		r.segments = append(r.segments, segment{from: r.path[0], to: r.path[1], color: r.color, width: r.width})
	}
}
func (r *recordingSurface) SetStrokeStyle(v string) { r.color = v }
func (r *recordingSurface) SetLineWidth(w float64)  { r.width = w }
func (r *recordingSurface) SetLineCap(c string)     { r.cap = c }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func p(x, y float64) *state.Point {
	return &state.Point{X: x, Y: y}
}

func TestEngine_lineWithOrigin(t *testing.T) {
	s := &recordingSurface{}
	e := NewEngine(s, state.DefaultStyle, quietLogger())

	if err := e.Apply("a", state.Line{From: p(10, 10), To: p(10, 15)}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(s.segments) != 1 {
		t.Fatalf("expected one segment, got %d", len(s.segments))
	}
	got := s.segments[0]
	if got.from != *p(10, 10) || got.to != *p(10, 15) {
		t.Errorf("unexpected segment %+v", got)
	}
	if got.color != "#000000" || got.width != 3 || s.cap != "round" {
		t.Errorf("default style not applied: %+v cap=%q", got, s.cap)
	}
}

func TestEngine_continuationUsesLastPosition(t *testing.T) {
	s := &recordingSurface{}
	e := NewEngine(s, state.DefaultStyle, quietLogger())
	_ = e.Apply("a", state.Line{From: p(0, 0), To: p(5, 5)})
	_ = e.Apply("a", state.Line{To: p(9, 1)})

	if len(s.segments) != 2 || s.segments[1].from != *p(5, 5) || s.segments[1].to != *p(9, 1) {
		t.Fatalf("continuation should start at previous endpoint, got %+v", s.segments)
	}
}

func TestEngine_degenerateFirstLine(t *testing.T) {
	s := &recordingSurface{}
	e := NewEngine(s, state.DefaultStyle, quietLogger())
	if err := e.Apply("a", state.Line{To: p(4, 4)}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(s.segments) != 1 || s.segments[0].from != s.segments[0].to {
		t.Fatalf("expected a zero-length mark, got %+v", s.segments)
	}
	pen, ok := e.Pen("a")
	if !ok || pen.Last == nil || *pen.Last != *p(4, 4) {
		t.Errorf("pen should rest at the point, got %+v", pen)
	}
}

func TestEngine_tapAfterStrokeJoinsUntilForgotten(t *testing.T) {
	s := &recordingSurface{}
	e := NewEngine(s, state.DefaultStyle, quietLogger())
	_ = e.Apply("a", state.Line{From: p(0, 0), To: p(5, 5)})

	// a tap carries only to, indistinguishable from a continuation
	_ = e.Apply("a", state.Line{To: p(20, 20)})
	if s.segments[1].from != *p(5, 5) || s.segments[1].to != *p(20, 20) {
		t.Fatalf("tap should join the previous endpoint, got %+v", s.segments[1])
	}

	e.Forget("a")
	_ = e.Apply("a", state.Line{To: p(30, 30)})
	if s.segments[2].from != *p(30, 30) || s.segments[2].to != *p(30, 30) {
		t.Errorf("tap on a fresh pen should be a dot, got %+v", s.segments[2])
	}
}

func TestEngine_styleStickyPerSender(t *testing.T) {
	s := &recordingSurface{}
	e := NewEngine(s, state.DefaultStyle, quietLogger())

	red := state.Style{StrokeStyle: "red", LineWidth: 7}
	_ = e.Apply("a", state.Line{From: p(0, 0), To: p(1, 0), Style: &red})
	_ = e.Apply("b", state.Line{From: p(50, 50), To: p(51, 50)})
	_ = e.Apply("a", state.Line{To: p(2, 0)})

	if s.segments[0].color != "red" || s.segments[0].width != 7 {
		t.Errorf("a's first segment should be red/7, got %+v", s.segments[0])
	}
	if s.segments[1].color != "#000000" || s.segments[1].width != 3 {
		t.Errorf("b should keep the default style, got %+v", s.segments[1])
	}
	if s.segments[2].color != "red" || s.segments[2].width != 7 {
		t.Errorf("a's style should persist, got %+v", s.segments[2])
	}
}

func TestEngine_interleavedSendersDoNotJoin(t *testing.T) {
	s := &recordingSurface{}
	e := NewEngine(s, state.DefaultStyle, quietLogger())

	_ = e.Apply("a", state.Line{From: p(0, 0), To: p(10, 0)})
	_ = e.Apply("b", state.Line{From: p(0, 100), To: p(10, 100)})
	_ = e.Apply("a", state.Line{To: p(20, 0)})
	_ = e.Apply("b", state.Line{To: p(20, 100)})

	want := []segment{
		{from: *p(0, 0), to: *p(10, 0)},
		{from: *p(0, 100), to: *p(10, 100)},
		{from: *p(10, 0), to: *p(20, 0)},
		{from: *p(10, 100), to: *p(20, 100)},
	}
	for i, w := range want {
		if s.segments[i].from != w.from || s.segments[i].to != w.to {
			t.Errorf("segment %d: got %v->%v want %v->%v", i, s.segments[i].from, s.segments[i].to, w.from, w.to)
		}
	}
}

func TestEngine_malformedLineIsDropped(t *testing.T) {
	s := &recordingSurface{}
	e := NewEngine(s, state.DefaultStyle, quietLogger())
	_ = e.Apply("a", state.Line{From: p(0, 0), To: p(1, 1)})
	calls := len(s.calls)

	blue := state.NewStyle("blue")
	err := e.Apply("a", state.Line{From: p(40, 40), Style: &blue})
	if !errors.Is(err, state.ErrMissingTo) {
		t.Fatalf("expected ErrMissingTo, got %v", err)
	}
	if len(s.calls) != calls {
		t.Errorf("malformed line must not touch the surface")
	}
	pen, _ := e.Pen("a")
	if *pen.Last != *p(1, 1) || pen.Style != state.DefaultStyle {
		t.Errorf("malformed line must not change the pen, got %+v", pen)
	}
}

func TestEngine_forget(t *testing.T) {
	s := &recordingSurface{}
	e := NewEngine(s, state.DefaultStyle, quietLogger())
	_ = e.Apply("a", state.Line{From: p(0, 0), To: p(1, 1)})
	e.Forget("a")
	if _, ok := e.Pen("a"); ok || e.Authors() != 0 {
		t.Errorf("pen should be gone after Forget")
	}
}

func TestReplay_callOrder(t *testing.T) {
	s := &recordingSurface{}
	_, err := Replay(Pen{Style: state.DefaultStyle}, state.Line{From: p(1, 2), To: p(3, 4)}, s)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	want := []string{"begin", "move 1,2", "line 3,4", "stroke"}
	if fmt.Sprint(s.calls) != fmt.Sprint(want) {
		t.Errorf("calls = %v, want %v", s.calls, want)
	}
}

// Replaying what the encoder produced for a pointer path must reproduce the
// sampled polyline point for point.
func TestEngine_reproducesEncodedPath(t *testing.T) {
	path := []state.Point{{X: 0, Y: 0}, {X: 15, Y: 2}, {X: 60, Y: 30}, {X: 200, Y: 40}, {X: 210, Y: 45}}

	sampler := capture.NewSampler()
	enc := stroke.NewEncoder(state.DefaultStyle)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var lines []state.Line
	sampler.Down(path[0], start)
	enc.BeginStroke()
	now := start
	for _, pt := range path[1:] {
		now = now.Add(5 * time.Millisecond)
		sampler.Move(pt, now)
		// let exactly this move close its window
		deadline, _ := sampler.Deadline()
		now = deadline
		for _, smp := range sampler.Advance(now) {
			lines = append(lines, enc.Encode(smp))
		}
	}
	sampler.Up(now)

	s := &recordingSurface{}
	e := NewEngine(s, state.DefaultStyle, quietLogger())
	for _, ln := range lines {
		if err := e.Apply("remote", ln); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}
	if len(s.segments) != len(path)-1 {
		t.Fatalf("expected %d segments, got %d", len(path)-1, len(s.segments))
	}
	for i, seg := range s.segments {
		if seg.from != path[i] || seg.to != path[i+1] {
			t.Errorf("segment %d: got %v->%v want %v->%v", i, seg.from, seg.to, path[i], path[i+1])
		}
	}
}
