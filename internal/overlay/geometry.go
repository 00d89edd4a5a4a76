package overlay

import (
	"math"
	"time"
)

// MinDimension is the smallest width or height, in percent, an overlay can
// shrink to. Sizes are kept in (0,100].
const MinDimension = 1.0

// Geometry is a position and size in percentage space.
type Geometry struct {
	X, Y, Width, Height float64
}

// DefaultGeometry returns the placement a freshly added overlay of type t gets.
func DefaultGeometry(t Type) Geometry {
	if t == TypeImage {
		return Geometry{X: 10, Y: 10, Width: 25, Height: 20}
	}
	return Geometry{X: 10, Y: 10, Width: 20, Height: 8}
}

// Clamp returns v limited to [lo, hi]. When hi < lo, or v is NaN, the
// result is lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(v, hi))
}

// ClampPosition keeps a box of the given size inside [0,100]. A box larger
// than the container is pinned at 0.
func ClampPosition(pos, size float64) float64 {
	return Clamp(pos, 0, 100-size)
}

// ClampSize keeps a size in [MinDimension, 100].
func ClampSize(size float64) float64 {
	return Clamp(size, MinDimension, 100)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// New builds an overlay of type t with default geometry and style.
func New(id string, t Type, content string, zIndex int, now time.Time) Overlay {
	g := DefaultGeometry(t)
	return Overlay{
		ID:        id,
		Type:      t,
		Content:   content,
		X:         g.X,
		Y:         g.Y,
		Width:     g.Width,
		Height:    g.Height,
		FontSize:  DefaultFontSize,
		FontColor: DefaultFontColor,
		Opacity:   DefaultOpacity,
		ZIndex:    zIndex,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Normalize corrects every out-of-range field in place. Invalid geometry is
// never reported, only clamped. Zero style fields take their defaults.
func (o *Overlay) Normalize() {
	if o.FontSize == 0 {
		o.FontSize = DefaultFontSize
	}
	if o.Opacity == 0 {
		o.Opacity = DefaultOpacity
	}
	o.normalizeGeometry()
	o.normalizeStyle()
}

func (o *Overlay) normalizeGeometry() {
	o.Width = ClampSize(o.Width)
	o.Height = ClampSize(o.Height)
	o.X = ClampPosition(o.X, o.Width)
	o.Y = ClampPosition(o.Y, o.Height)
}

func (o *Overlay) normalizeStyle() {
	o.FontSize = clampInt(o.FontSize, MinFontSize, MaxFontSize)
	if o.FontColor == "" {
		o.FontColor = DefaultFontColor
	}
	o.Opacity = clampInt(o.Opacity, MinOpacity, MaxOpacity)
}

// Apply merges p into a copy of o and stamps UpdatedAt with now. Geometry and
// style are re-clamped only when the patch touches them, so an empty patch
// changes nothing but UpdatedAt.
func (o Overlay) Apply(p Patch, now time.Time) Overlay {
	if p.Type != nil {
		o.Type = *p.Type
	}
	if p.Content != nil {
		o.Content = *p.Content
	}
	if p.X != nil {
		o.X = *p.X
	}
	if p.Y != nil {
		o.Y = *p.Y
	}
	if p.Width != nil {
		o.Width = *p.Width
	}
	if p.Height != nil {
		o.Height = *p.Height
	}
	if p.FontSize != nil {
		o.FontSize = *p.FontSize
	}
	if p.FontColor != nil {
		o.FontColor = *p.FontColor
	}
	if p.Opacity != nil {
		o.Opacity = *p.Opacity
	}
	if p.ZIndex != nil {
		o.ZIndex = *p.ZIndex
	}
	if p.Rotation != nil {
		o.Rotation = *p.Rotation
	}

	if p.touchesGeometry() {
		o.normalizeGeometry()
	}
	if p.touchesStyle() {
		o.normalizeStyle()
	}
	o.UpdatedAt = now
	return o
}

// NextZIndex returns a stacking order above every overlay in list.
func NextZIndex(list []Overlay) int {
	top := 0
	for _, o := range list {
		if o.ZIndex > top {
			top = o.ZIndex
		}
	}
	return top + 1
}
