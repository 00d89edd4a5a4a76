package studio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"overlay-studio/internal/overlay"
	"overlay-studio/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOverlayServer(t *testing.T, rtspURL string) *httptest.Server {
	t.Helper()
	svc := overlay.NewService(overlay.NewInMemoryRepository())
	r := chi.NewRouter()
	overlay.NewHandler(svc, logger.Discard(), nil, rtspURL).Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_crud_round_trip(t *testing.T) {
	srv := newOverlayServer(t, "")
	c := NewClient(srv.URL, srv.Client())
	ctx := context.Background()

	in := overlay.New("ignored", overlay.TypeText, "LIVE", 0, t0)
	created, err := c.Create(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, "ignored", created.ID, "server mints ids")
	assert.Equal(t, "LIVE", created.Content)
	assert.Equal(t, in.Width, created.Width)

	updated, err := c.Update(ctx, created.ID, overlay.Patch{X: overlay.Ptr(200.0)})
	require.NoError(t, err)
	assert.Equal(t, 100-created.Width, updated.X)

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	require.NoError(t, c.Delete(ctx, created.ID))
	list, err = c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestClient_errors_are_typed(t *testing.T) {
	srv := newOverlayServer(t, "")
	c := NewClient(srv.URL, srv.Client())
	ctx := context.Background()

	err := c.Delete(ctx, "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "failed to delete overlay", err.Error())
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Overlay not found", apiErr.Message)
	assert.Contains(t, apiErr.Detail(), "404 Overlay not found")

	created, err := c.Create(ctx, overlay.New("", overlay.TypeText, "x", 0, t0))
	require.NoError(t, err)
	_, err = c.Update(ctx, created.ID, overlay.Patch{})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, OpUpdate, apiErr.Op)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "No valid fields to update", apiErr.Message)
}

func TestClient_transport_failure(t *testing.T) {
	srv := newOverlayServer(t, "")
	c := NewClient(srv.URL, srv.Client())
	srv.Close()

	_, err := c.List(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "failed to fetch overlays", err.Error())
	assert.Zero(t, apiErr.Status)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestClient_config_and_health(t *testing.T) {
	srv := newOverlayServer(t, "rtsp://cam.local/live")
	c := NewClient(srv.URL+"/", srv.Client())
	ctx := context.Background()

	cfg, err := c.FetchConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rtsp://cam.local/live", cfg.RTSPURL)

	h, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
}

func TestClient_unhealthy_server(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unhealthy","message":"Overlay store is unreachable"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, srv.Client()).Health(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "failed to check health", err.Error())
	assert.Equal(t, "Overlay store is unreachable", apiErr.Message)
}

func TestStore_against_server(t *testing.T) {
	srv := newOverlayServer(t, "")
	s := NewStore(NewClient(srv.URL, srv.Client()), WithIDGenerator(testIDs("local")))
	rec := record(s)
	ctx := context.Background()

	o, err := s.Add(ctx, overlay.TypeText, "LIVE")
	require.NoError(t, err)
	assert.NotEqual(t, "local-1", o.ID, "provisional id is replaced by the server id")
	assert.Equal(t, o.ID, s.SelectedID(), "selection follows the re-keyed overlay")
	require.Len(t, rec.notifications(Created), 1)
	assert.Equal(t, o.ID, rec.notifications(Created)[0].OverlayID)

	require.NoError(t, s.Update(ctx, o.ID, overlay.Patch{Content: overlay.Ptr("ON AIR")}))
	got, ok := s.Get(o.ID)
	require.True(t, ok)
	assert.Equal(t, "ON AIR", got.Content)

	// A second store sees the same collection after a refresh.
	other := NewStore(NewClient(srv.URL, srv.Client()))
	require.NoError(t, other.Refresh(ctx))
	require.Len(t, other.Overlays(), 1)
	assert.Equal(t, "ON AIR", other.Overlays()[0].Content)

	s.Remove(ctx, o.ID)
	assert.Empty(t, s.Overlays())
	assert.Empty(t, s.SelectedID())
	require.Len(t, rec.notifications(Deleted), 1)

	require.NoError(t, other.Refresh(ctx))
	assert.Empty(t, other.Overlays())
	assert.Empty(t, rec.notifications(ConnectionError))
}

func TestStore_against_unreachable_server(t *testing.T) {
	srv := newOverlayServer(t, "")
	s := NewStore(NewClient(srv.URL, srv.Client()), WithIDGenerator(testIDs("local")), WithDemoOverlays())
	rec := record(s)
	srv.Close()
	ctx := context.Background()

	before := s.Overlays()
	require.Error(t, s.Refresh(ctx))
	assert.Equal(t, before, s.Overlays())
	assert.Len(t, rec.notifications(ConnectionError), 1)

	_, err := s.Add(ctx, overlay.TypeText, "LIVE")
	require.NoError(t, err)
	assert.Len(t, s.Overlays(), 3)
	assert.Len(t, rec.notifications(CreateFailed), 1)
}
