package interaction

import (
	"math"
	"math/rand"
	"testing"

	"overlay-studio/internal/overlay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_ToPercent(t *testing.T) {
	dx, dy := Frame{Width: 1280, Height: 720}.ToPercent(128, -72)
	assert.InDelta(t, 10, dx, 1e-9)
	assert.InDelta(t, -10, dy, 1e-9)

	dx, dy = Frame{}.ToPercent(50, 50)
	assert.Zero(t, dx)
	assert.Zero(t, dy)
}

func TestDragPosition_clamps_to_frame(t *testing.T) {
	g := overlay.Geometry{X: 95, Y: 95, Width: 10, Height: 10}
	x, y := DragPosition(g, 20, 20)
	assert.Equal(t, 90.0, x)
	assert.Equal(t, 90.0, y)

	x, y = DragPosition(g, -200, -200)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)
}

func TestDragPosition_oversized_is_pinned(t *testing.T) {
	x, y := DragPosition(overlay.Geometry{X: 0, Y: 0, Width: 120, Height: 150}, 30, 30)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)
}

func TestDragPosition_property_stays_inside(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		w := 1 + rng.Float64()*99
		h := 1 + rng.Float64()*99
		g := overlay.Geometry{
			X:      rng.Float64() * (100 - w),
			Y:      rng.Float64() * (100 - h),
			Width:  w,
			Height: h,
		}
		x, y := DragPosition(g, (rng.Float64()-0.5)*400, (rng.Float64()-0.5)*400)
		require.GreaterOrEqual(t, x, 0.0)
		require.LessOrEqual(t, x, 100-w+1e-9)
		require.GreaterOrEqual(t, y, 0.0)
		require.LessOrEqual(t, y, 100-h+1e-9)
	}

	g := overlay.Geometry{X: 10, Y: 10, Width: 20, Height: 8}
	x, y := DragPosition(g, math.NaN(), 5)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 15.0, y)

	x, y = DragPosition(g, math.Inf(1), math.Inf(-1))
	assert.Equal(t, 80.0, x)
	assert.Equal(t, 0.0, y)
}

func TestResizeGeometry_anchor_stays_fixed(t *testing.T) {
	g := overlay.Geometry{X: 20, Y: 30, Width: 20, Height: 10}

	se := ResizeGeometry(g, HandleSE, 10, 5)
	assert.Equal(t, overlay.Geometry{X: 20, Y: 30, Width: 30, Height: 15}, se)

	nw := ResizeGeometry(g, HandleNW, -10, -5)
	assert.Equal(t, overlay.Geometry{X: 10, Y: 25, Width: 30, Height: 15}, nw)
	assert.Equal(t, g.X+g.Width, nw.X+nw.Width, "right edge anchored")
	assert.Equal(t, g.Y+g.Height, nw.Y+nw.Height, "bottom edge anchored")

	ne := ResizeGeometry(g, HandleNE, 5, -10)
	assert.Equal(t, g.X, ne.X)
	assert.Equal(t, g.Y+g.Height, ne.Y+ne.Height)
	assert.Equal(t, 25.0, ne.Width)

	sw := ResizeGeometry(g, HandleSW, 5, 5)
	assert.Equal(t, g.X+g.Width, sw.X+sw.Width)
	assert.Equal(t, g.Y, sw.Y)
	assert.Equal(t, 15.0, sw.Width)
	assert.Equal(t, 15.0, sw.Height)
}

func TestResizeGeometry_clamps(t *testing.T) {
	g := overlay.Geometry{X: 20, Y: 30, Width: 20, Height: 10}

	grown := ResizeGeometry(g, HandleSE, 500, 500)
	assert.Equal(t, 80.0, grown.Width)
	assert.Equal(t, 70.0, grown.Height)

	shrunk := ResizeGeometry(g, HandleSE, -500, -500)
	assert.Equal(t, overlay.MinDimension, shrunk.Width)
	assert.Equal(t, overlay.MinDimension, shrunk.Height)

	flipped := ResizeGeometry(g, HandleNW, 500, 500)
	assert.Equal(t, 40-overlay.MinDimension, flipped.X)
	assert.Equal(t, overlay.MinDimension, flipped.Width)

	toEdge := ResizeGeometry(g, HandleNW, -500, -500)
	assert.Equal(t, 0.0, toEdge.X)
	assert.Equal(t, 0.0, toEdge.Y)
	assert.Equal(t, 40.0, toEdge.Width)
	assert.Equal(t, 40.0, toEdge.Height)
}

func TestResizeGeometry_property_bounds(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	handles := []Handle{HandleNW, HandleNE, HandleSW, HandleSE}
	for i := 0; i < 2000; i++ {
		w := 1 + rng.Float64()*99
		h := 1 + rng.Float64()*99
		g := overlay.Geometry{X: rng.Float64() * (100 - w), Y: rng.Float64() * (100 - h), Width: w, Height: h}
		out := ResizeGeometry(g, handles[i%4], (rng.Float64()-0.5)*300, (rng.Float64()-0.5)*300)

		require.Greater(t, out.Width, 0.0)
		require.LessOrEqual(t, out.Width, 100.0)
		require.Greater(t, out.Height, 0.0)
		require.LessOrEqual(t, out.Height, 100.0)
		require.GreaterOrEqual(t, out.X, 0.0)
		require.GreaterOrEqual(t, out.Y, 0.0)
		require.LessOrEqual(t, out.X+out.Width, 100+1e-9)
		require.LessOrEqual(t, out.Y+out.Height, 100+1e-9)
	}
}

func TestParseHandle(t *testing.T) {
	h, err := ParseHandle("SE")
	require.NoError(t, err)
	assert.Equal(t, HandleSE, h)
	assert.Equal(t, "se", h.String())

	_, err = ParseHandle("center")
	assert.Error(t, err)
}
