package overlay

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"
)

func newTestRepository() *StoreRepository {
	n := 0
	clock := t0
	return NewInMemoryRepository(
		WithIDGenerator(func() string {
			n++
			return "ov-" + strconv.Itoa(n)
		}),
		WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
	)
}

func TestStoreRepository_Create(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository()

	t.Run("assigns_id_timestamps_and_zindex", func(t *testing.T) {
		o, err := repo.Create(ctx, Overlay{Type: TypeText, Content: "LIVE", X: 10, Y: 10, Width: 20, Height: 8})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if o.ID != "ov-1" || o.ZIndex != 1 {
			t.Errorf("unexpected id/zIndex: %+v", o)
		}
		if o.CreatedAt.IsZero() || !o.CreatedAt.Equal(o.UpdatedAt) {
			t.Errorf("timestamps not set: %+v", o)
		}
		if o.FontSize != DefaultFontSize || o.Opacity != DefaultOpacity || o.FontColor != DefaultFontColor {
			t.Errorf("style defaults not applied: %+v", o)
		}
	})

	t.Run("stacks_above_existing", func(t *testing.T) {
		o, err := repo.Create(ctx, Overlay{Type: TypeImage, Content: "logo.png", Width: 25, Height: 20})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if o.ZIndex != 2 {
			t.Errorf("zIndex = %d, want 2", o.ZIndex)
		}
	})

	t.Run("clamps_out_of_bounds", func(t *testing.T) {
		o, err := repo.Create(ctx, Overlay{Type: TypeText, Content: "x", X: 95, Y: 95, Width: 10, Height: 10})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if o.X != 90 || o.Y != 90 {
			t.Errorf("expected clamped to 90,90, got %v,%v", o.X, o.Y)
		}
	})

	t.Run("rejects_unknown_type", func(t *testing.T) {
		_, err := repo.Create(ctx, Overlay{Type: "video", Content: "x"})
		if !errors.Is(err, ErrInvalidType) {
			t.Errorf("expected ErrInvalidType, got %v", err)
		}
	})
}

func TestStoreRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository()
	created, _ := repo.Create(ctx, Overlay{Type: TypeText, Content: "LIVE", X: 10, Y: 10, Width: 20, Height: 8})

	updated, err := repo.Update(ctx, created.ID, Patch{X: Ptr(200.0), Content: Ptr("REC")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.X != 80 || updated.Content != "REC" {
		t.Errorf("unexpected update result: %+v", updated)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Error("UpdatedAt should advance")
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("CreatedAt should not change")
	}

	if _, err := repo.Update(ctx, "missing", Patch{X: Ptr(1.0)}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository()
	created, _ := repo.Create(ctx, Overlay{Type: TypeText, Content: "LIVE", Width: 20, Height: 8})

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete: expected ErrNotFound, got %v", err)
	}
	if n, _ := repo.Count(ctx); n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}
}

func TestStoreRepository_concurrent_creates_get_unique_ids(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.Create(ctx, Overlay{Type: TypeText, Content: "x", Width: 20, Height: 8})
		}()
	}
	wg.Wait()

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	seen := make(map[string]bool)
	for _, o := range list {
		if seen[o.ID] {
			t.Fatalf("duplicate id %s", o.ID)
		}
		seen[o.ID] = true
	}
	if len(list) != 20 {
		t.Errorf("expected 20 overlays, got %d", len(list))
	}
}
