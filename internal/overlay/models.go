package overlay

import "time"

// Type is the overlay variant.
type Type string

const (
	TypeText  Type = "text"
	TypeImage Type = "image"
)

// Valid reports whether t is a known overlay variant.
func (t Type) Valid() bool {
	return t == TypeText || t == TypeImage
}

// Style defaults and bounds. Sizes are pixels, opacity is a percentage.
const (
	DefaultFontSize  = 16
	MinFontSize      = 10
	MaxFontSize      = 72
	DefaultFontColor = "#ffffff"
	DefaultOpacity   = 100
	MinOpacity       = 10
	MaxOpacity       = 100
)

// Overlay is a positioned text or image annotation rendered above the video.
// Position and size are percentages of the container's rendered dimensions.
type Overlay struct {
	ID      string `json:"id"`
	Type    Type   `json:"type"`
	Content string `json:"content"` // text, or image URL for TypeImage

	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	FontSize  int     `json:"fontSize"`
	FontColor string  `json:"fontColor"`
	Opacity   int     `json:"opacity"`
	ZIndex    int     `json:"zIndex"`
	Rotation  float64 `json:"rotation,omitempty"` // reserved

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Patch is a partial overlay update. Nil fields are left untouched.
// This also matches the PUT /api/overlays/{id} payload.
type Patch struct {
	Type      *Type    `json:"type,omitempty"`
	Content   *string  `json:"content,omitempty"`
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	Width     *float64 `json:"width,omitempty"`
	Height    *float64 `json:"height,omitempty"`
	FontSize  *int     `json:"fontSize,omitempty"`
	FontColor *string  `json:"fontColor,omitempty"`
	Opacity   *int     `json:"opacity,omitempty"`
	ZIndex    *int     `json:"zIndex,omitempty"`
	Rotation  *float64 `json:"rotation,omitempty"`
}

// IsEmpty reports whether the patch touches no field.
func (p Patch) IsEmpty() bool {
	return p.Type == nil && p.Content == nil &&
		!p.touchesGeometry() && !p.touchesStyle() &&
		p.ZIndex == nil && p.Rotation == nil
}

func (p Patch) touchesGeometry() bool {
	return p.X != nil || p.Y != nil || p.Width != nil || p.Height != nil
}

func (p Patch) touchesStyle() bool {
	return p.FontSize != nil || p.FontColor != nil || p.Opacity != nil
}

// StreamConfig describes the video source the overlays are drawn over.
type StreamConfig struct {
	URL    string `json:"url"`
	IsLive bool   `json:"isLive"` // whether playback should be running
	Title  string `json:"title,omitempty"`
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
