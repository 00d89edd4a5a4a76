package overlay

import (
	"context"
)

// CreateRequest is the POST /api/overlays payload. Geometry, type and
// content are required; style fields fall back to their defaults.
type CreateRequest struct {
	Type      *Type    `json:"type"`
	Content   *string  `json:"content"`
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
	Width     *float64 `json:"width"`
	Height    *float64 `json:"height"`
	FontSize  *int     `json:"fontSize,omitempty"`
	FontColor *string  `json:"fontColor,omitempty"`
	Opacity   *int     `json:"opacity,omitempty"`
	ZIndex    *int     `json:"zIndex,omitempty"`
	Rotation  *float64 `json:"rotation,omitempty"`
}

func (req CreateRequest) hasRequired() bool {
	return req.Type != nil && req.Content != nil &&
		req.X != nil && req.Y != nil && req.Width != nil && req.Height != nil
}

// RequestFromOverlay builds the create payload that reproduces o on a server.
func RequestFromOverlay(o Overlay) CreateRequest {
	return CreateRequest{
		Type:      Ptr(o.Type),
		Content:   Ptr(o.Content),
		X:         Ptr(o.X),
		Y:         Ptr(o.Y),
		Width:     Ptr(o.Width),
		Height:    Ptr(o.Height),
		FontSize:  Ptr(o.FontSize),
		FontColor: Ptr(o.FontColor),
		Opacity:   Ptr(o.Opacity),
		ZIndex:    Ptr(o.ZIndex),
		Rotation:  Ptr(o.Rotation),
	}
}

// Service applies request validation and defaults and delegates storage to
// Repository.
type Service struct {
	repo Repository
}

// NewService returns a Service that uses repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every overlay ordered bottom-most first.
func (s *Service) List(ctx context.Context) ([]Overlay, error) {
	return s.repo.List(ctx)
}

// Create validates req and stores a new overlay built from it.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Overlay, error) {
	if !req.hasRequired() {
		return Overlay{}, ErrMissingFields
	}
	if !req.Type.Valid() {
		return Overlay{}, ErrInvalidType
	}

	o := Overlay{
		Type:    *req.Type,
		Content: *req.Content,
		X:       *req.X,
		Y:       *req.Y,
		Width:   *req.Width,
		Height:  *req.Height,
	}
	if req.FontSize != nil {
		o.FontSize = *req.FontSize
	}
	if req.FontColor != nil {
		o.FontColor = *req.FontColor
	}
	if req.Opacity != nil {
		o.Opacity = *req.Opacity
	}
	if req.ZIndex != nil {
		o.ZIndex = *req.ZIndex
	}
	if req.Rotation != nil {
		o.Rotation = *req.Rotation
	}

	return s.repo.Create(ctx, o)
}

// Update merges p into the overlay identified by id.
func (s *Service) Update(ctx context.Context, id string, p Patch) (Overlay, error) {
	if p.IsEmpty() {
		return Overlay{}, ErrEmptyPatch
	}
	return s.repo.Update(ctx, id, p)
}

// Delete removes the overlay identified by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Count returns the number of stored overlays.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
