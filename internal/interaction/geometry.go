// Package interaction turns pointer gestures measured in pixels into overlay
// position and size updates in percentage space, clamped to the video frame.
package interaction

import (
	"fmt"
	"strings"

	"overlay-studio/internal/overlay"
)

// Frame is the rendered pixel size of the container overlays are positioned in.
type Frame struct {
	Width, Height float64
}

// Valid reports whether the frame has a positive area.
func (f Frame) Valid() bool {
	return f.Width > 0 && f.Height > 0
}

// ToPercent converts a pixel offset into percentage space. A degenerate
// frame converts every offset to zero.
func (f Frame) ToPercent(dx, dy float64) (dxPct, dyPct float64) {
	if !f.Valid() {
		return 0, 0
	}
	return dx / f.Width * 100, dy / f.Height * 100
}

// DragPosition moves g by the given percentage offset and clamps the result
// so that the whole box stays inside the frame. Boxes wider or taller than
// the frame are pinned at 0 on that axis.
func DragPosition(g overlay.Geometry, dxPct, dyPct float64) (x, y float64) {
	x = overlay.ClampPosition(g.X+dxPct, g.Width)
	y = overlay.ClampPosition(g.Y+dyPct, g.Height)
	return x, y
}

// Handle is a resize handle at one of the overlay's corners.
type Handle int

const (
	HandleNW Handle = iota
	HandleNE
	HandleSW
	HandleSE
)

var handleNames = [...]string{"nw", "ne", "sw", "se"}

func (h Handle) String() string {
	if h < HandleNW || h > HandleSE {
		return fmt.Sprintf("Handle(%d)", int(h))
	}
	return handleNames[h]
}

// ParseHandle accepts "nw", "ne", "sw" or "se" in any case.
func ParseHandle(s string) (Handle, error) {
	for i, name := range handleNames {
		if strings.EqualFold(s, name) {
			return Handle(i), nil
		}
	}
	return 0, fmt.Errorf("unknown resize handle %q", s)
}

func (h Handle) movesLeft() bool { return h == HandleNW || h == HandleSW }
func (h Handle) movesTop() bool  { return h == HandleNW || h == HandleNE }

// ResizeGeometry drags handle h of g by the given percentage offset. The
// corner opposite h is the anchor and never moves; the dragged edges are
// clamped so that width and height stay within [overlay.MinDimension, 100]
// and the box stays inside the frame.
func ResizeGeometry(g overlay.Geometry, h Handle, dxPct, dyPct float64) overlay.Geometry {
	g = normalized(g)
	out := g

	if h.movesLeft() {
		right := g.X + g.Width
		left := overlay.Clamp(g.X+dxPct, 0, right-overlay.MinDimension)
		out.X = left
		out.Width = right - left
	} else {
		out.Width = overlay.Clamp(g.Width+dxPct, overlay.MinDimension, 100-g.X)
	}

	if h.movesTop() {
		bottom := g.Y + g.Height
		top := overlay.Clamp(g.Y+dyPct, 0, bottom-overlay.MinDimension)
		out.Y = top
		out.Height = bottom - top
	} else {
		out.Height = overlay.Clamp(g.Height+dyPct, overlay.MinDimension, 100-g.Y)
	}

	return out
}

func normalized(g overlay.Geometry) overlay.Geometry {
	g.Width = overlay.ClampSize(g.Width)
	g.Height = overlay.ClampSize(g.Height)
	g.X = overlay.ClampPosition(g.X, g.Width)
	g.Y = overlay.ClampPosition(g.Y, g.Height)
	return g
}

// GeometryOf extracts the position and size of o.
func GeometryOf(o overlay.Overlay) overlay.Geometry {
	return overlay.Geometry{X: o.X, Y: o.Y, Width: o.Width, Height: o.Height}
}
