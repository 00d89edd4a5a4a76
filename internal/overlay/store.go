package overlay

import (
	"context"
	"sort"
)

// Store is the persistence abstraction for overlay documents.
// Implementations can be in-memory or remote (see RedisStore).
// The Repository uses Store for all reads and writes and serialises access
// to it; implementations need not be safe for concurrent use on their own.
type Store interface {
	Get(ctx context.Context, id string) (Overlay, bool, error)
	Put(ctx context.Context, o Overlay) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]Overlay, error)
	Ping(ctx context.Context) error
}

// InMemoryStore is an in-memory implementation of Store.
type InMemoryStore struct {
	overlays map[string]Overlay
}

// NewInMemoryStore returns a new empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		overlays: make(map[string]Overlay),
	}
}

// Get implements Store.Get.
func (s *InMemoryStore) Get(_ context.Context, id string) (Overlay, bool, error) {
	o, ok := s.overlays[id]
	return o, ok, nil
}

// Put implements Store.Put.
func (s *InMemoryStore) Put(_ context.Context, o Overlay) error {
	s.overlays[o.ID] = o
	return nil
}

// Delete implements Store.Delete.
func (s *InMemoryStore) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := s.overlays[id]; !ok {
		return false, nil
	}
	delete(s.overlays, id)
	return true, nil
}

// List implements Store.List.
func (s *InMemoryStore) List(_ context.Context) ([]Overlay, error) {
	out := make([]Overlay, 0, len(s.overlays))
	for _, o := range s.overlays {
		out = append(out, o)
	}
	return out, nil
}

// Ping implements Store.Ping. The in-memory store is always reachable.
func (s *InMemoryStore) Ping(context.Context) error {
	return nil
}

// SortByStacking orders overlays bottom-most first: by zIndex, then by
// creation time, then by id so the order is stable across stores.
func SortByStacking(list []Overlay) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.ZIndex != b.ZIndex {
			return a.ZIndex < b.ZIndex
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
