package overlay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the concurrency-safe contract for reading and mutating
// the overlay collection.
type Repository interface {
	// List returns every overlay ordered bottom-most first.
	List(ctx context.Context) ([]Overlay, error)

	// Get returns the overlay with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (Overlay, error)

	// Create assigns a fresh id and timestamps to o, clamps it, places it
	// above every existing overlay when o.ZIndex is zero, and stores it.
	Create(ctx context.Context, o Overlay) (Overlay, error)

	// Update merges p into the overlay with the given id and returns the
	// result. Returns ErrNotFound if the id is unknown.
	Update(ctx context.Context, id string, p Patch) (Overlay, error)

	// Delete removes the overlay. Returns ErrNotFound if the id is unknown.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored overlays. Used for metrics.
	Count(ctx context.Context) (int, error)

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}

var (
	// ErrNotFound is returned when an overlay id does not exist.
	ErrNotFound = errors.New("overlay not found")

	// ErrInvalidType is returned for an overlay type other than text or image.
	ErrInvalidType = errors.New("invalid overlay type")

	// ErrMissingFields is returned when a create request lacks a required field.
	ErrMissingFields = errors.New("missing required fields")

	// ErrEmptyPatch is returned when an update carries no field to change.
	ErrEmptyPatch = errors.New("no valid fields to update")
)

// StoreRepository is a concurrency-safe Repository on top of a Store.
type StoreRepository struct {
	mu    sync.RWMutex
	store Store
	now   func() time.Time
	newID func() string
}

// RepositoryOption customises a StoreRepository.
type RepositoryOption func(*StoreRepository)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) RepositoryOption {
	return func(r *StoreRepository) { r.now = now }
}

// WithIDGenerator overrides how overlay ids are minted.
func WithIDGenerator(gen func() string) RepositoryOption {
	return func(r *StoreRepository) { r.newID = gen }
}

// NewInMemoryRepository constructs a repository with a default in-memory store.
func NewInMemoryRepository(opts ...RepositoryOption) *StoreRepository {
	return NewRepository(NewInMemoryStore(), opts...)
}

// NewRepository constructs a repository that uses the given Store.
func NewRepository(store Store, opts ...RepositoryOption) *StoreRepository {
	r := &StoreRepository{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List implements Repository.List.
func (r *StoreRepository) List(ctx context.Context) ([]Overlay, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}
	SortByStacking(list)
	return list, nil
}

// Get implements Repository.Get.
func (r *StoreRepository) Get(ctx context.Context, id string) (Overlay, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok, err := r.store.Get(ctx, id)
	if err != nil {
		return Overlay{}, err
	}
	if !ok {
		return Overlay{}, ErrNotFound
	}
	return o, nil
}

// Create implements Repository.Create.
func (r *StoreRepository) Create(ctx context.Context, o Overlay) (Overlay, error) {
	if !o.Type.Valid() {
		return Overlay{}, ErrInvalidType
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if o.ZIndex == 0 {
		existing, err := r.store.List(ctx)
		if err != nil {
			return Overlay{}, err
		}
		o.ZIndex = NextZIndex(existing)
	}

	now := r.now()
	o.ID = r.newID()
	o.CreatedAt = now
	o.UpdatedAt = now
	o.Normalize()

	if err := r.store.Put(ctx, o); err != nil {
		return Overlay{}, err
	}
	return o, nil
}

// Update implements Repository.Update.
func (r *StoreRepository) Update(ctx context.Context, id string, p Patch) (Overlay, error) {
	if p.Type != nil && !p.Type.Valid() {
		return Overlay{}, ErrInvalidType
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok, err := r.store.Get(ctx, id)
	if err != nil {
		return Overlay{}, err
	}
	if !ok {
		return Overlay{}, ErrNotFound
	}

	updated := current.Apply(p, r.now())
	if err := r.store.Put(ctx, updated); err != nil {
		return Overlay{}, err
	}
	return updated, nil
}

// Delete implements Repository.Delete.
func (r *StoreRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted, err := r.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// Count implements Repository.Count.
func (r *StoreRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list, err := r.store.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

// Ping implements Repository.Ping.
func (r *StoreRepository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
