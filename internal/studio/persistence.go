package studio

import (
	"context"
	"errors"

	"overlay-studio/internal/overlay"
)

// ErrLocalOnly is returned by Local.List: there is no remote collection to
// refetch, so the in-memory list stays authoritative.
var ErrLocalOnly = errors.New("no remote overlay collection")

// Persistence is the remote overlay collection a Store mirrors. Create
// returns the record as stored remotely, which may carry a different id.
type Persistence interface {
	List(ctx context.Context) ([]overlay.Overlay, error)
	Create(ctx context.Context, o overlay.Overlay) (overlay.Overlay, error)
	Update(ctx context.Context, id string, p overlay.Patch) (overlay.Overlay, error)
	Delete(ctx context.Context, id string) error
}

// Local is the persistence of local-only mode. Every write succeeds without
// doing anything.
type Local struct{}

var _ Persistence = Local{}

// List implements Persistence.
func (Local) List(context.Context) ([]overlay.Overlay, error) { return nil, ErrLocalOnly }

// Create implements Persistence.
func (Local) Create(_ context.Context, o overlay.Overlay) (overlay.Overlay, error) { return o, nil }

// Update implements Persistence.
func (Local) Update(context.Context, string, overlay.Patch) (overlay.Overlay, error) {
	return overlay.Overlay{}, nil
}

// Delete implements Persistence.
func (Local) Delete(context.Context, string) error { return nil }
