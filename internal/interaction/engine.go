package interaction

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"overlay-studio/internal/overlay"
	"overlay-studio/internal/platform/logger"
)

var (
	// ErrGestureActive is returned when a gesture starts while another one
	// is still in progress.
	ErrGestureActive = errors.New("another gesture is in progress")

	// ErrGestureEnded is returned when a finished gesture is used again.
	ErrGestureEnded = errors.New("gesture already ended")
)

// Committer receives the clamped patch when a gesture ends. The studio
// Store satisfies it.
type Committer interface {
	Update(ctx context.Context, id string, p overlay.Patch) error
}

// Kind distinguishes move gestures from resize gestures.
type Kind int

const (
	KindDrag Kind = iota
	KindResize
)

// Engine binds pointer gestures to overlays. At most one gesture is active
// at a time; while it is, selection chrome (move handle, delete button,
// resize handles) is hidden.
type Engine struct {
	mu     sync.Mutex
	commit Committer
	log    *slog.Logger
	active *Gesture
}

// NewEngine returns an Engine that commits finished gestures to c.
func NewEngine(c Committer, log *slog.Logger) *Engine {
	return &Engine{commit: c, log: logger.OrDiscard(log)}
}

// BeginDrag starts moving o inside frame.
func (e *Engine) BeginDrag(o overlay.Overlay, frame Frame) (*Gesture, error) {
	return e.begin(o, frame, KindDrag, 0)
}

// BeginResize starts resizing o by handle h inside frame.
func (e *Engine) BeginResize(o overlay.Overlay, h Handle, frame Frame) (*Gesture, error) {
	return e.begin(o, frame, KindResize, h)
}

func (e *Engine) begin(o overlay.Overlay, frame Frame, kind Kind, h Handle) (*Gesture, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		return nil, ErrGestureActive
	}
	g := &Gesture{
		engine: e,
		id:     o.ID,
		kind:   kind,
		handle: h,
		frame:  frame,
		start:  GeometryOf(o),
	}
	g.last = g.start
	e.active = g
	return g, nil
}

// Dragging reports whether a gesture is in progress.
func (e *Engine) Dragging() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active != nil
}

// ChromeVisible reports whether selection chrome should be drawn for an
// overlay with the given selection state.
func (e *Engine) ChromeVisible(selected bool) bool {
	return selected && !e.Dragging()
}

func (e *Engine) release(g *Gesture) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == g {
		e.active = nil
	}
}

// Gesture is one continuous drag or resize of a single overlay. Offsets
// passed to Move and End are cumulative pixel offsets from the gesture start.
type Gesture struct {
	engine *Engine
	id     string
	kind   Kind
	handle Handle
	frame  Frame
	start  overlay.Geometry

	mu   sync.Mutex
	last overlay.Geometry
	done bool
}

// OverlayID returns the id of the overlay being manipulated.
func (g *Gesture) OverlayID() string { return g.id }

// Kind returns whether this is a drag or a resize.
func (g *Gesture) Kind() Kind { return g.kind }

// Move returns the clamped geometry for the current pointer offset without
// committing it. The result is what the overlay layer should preview.
func (g *Gesture) Move(dx, dy float64) (overlay.Geometry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.done {
		return g.last, ErrGestureEnded
	}
	g.last = g.compute(dx, dy)
	return g.last, nil
}

// End finishes the gesture at the given offset and commits the clamped
// geometry. The gesture is released even if the commit fails.
func (g *Gesture) End(ctx context.Context, dx, dy float64) (overlay.Geometry, error) {
	g.mu.Lock()
	if g.done {
		g.mu.Unlock()
		return g.last, ErrGestureEnded
	}
	g.done = true
	g.last = g.compute(dx, dy)
	final := g.last
	g.mu.Unlock()

	defer g.engine.release(g)

	if final == g.start {
		return final, nil
	}
	if err := g.engine.commit.Update(ctx, g.id, g.patch(final)); err != nil {
		g.engine.log.Warn("gesture commit failed",
			slog.String("overlay_id", g.id),
			slog.String("error", err.Error()))
		return final, err
	}
	return final, nil
}

// Cancel abandons the gesture without committing anything.
func (g *Gesture) Cancel() {
	g.mu.Lock()
	g.done = true
	g.last = g.start
	g.mu.Unlock()
	g.engine.release(g)
}

func (g *Gesture) compute(dx, dy float64) overlay.Geometry {
	dxPct, dyPct := g.frame.ToPercent(dx, dy)
	if g.kind == KindResize {
		return ResizeGeometry(g.start, g.handle, dxPct, dyPct)
	}
	out := g.start
	out.X, out.Y = DragPosition(g.start, dxPct, dyPct)
	return out
}

func (g *Gesture) patch(geo overlay.Geometry) overlay.Patch {
	p := overlay.Patch{X: overlay.Ptr(geo.X), Y: overlay.Ptr(geo.Y)}
	if g.kind == KindResize {
		p.Width = overlay.Ptr(geo.Width)
		p.Height = overlay.Ptr(geo.Height)
	}
	return p
}
