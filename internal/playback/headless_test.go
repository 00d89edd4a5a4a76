package playback

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"overlay-studio/internal/overlay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mediaPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:4
#EXT-X-MEDIA-SEQUENCE:7
#EXTINF:4.000,
seg7.ts
#EXTINF:3.500,
seg8.ts
`

func newStreamServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/clip.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/nohead.mp4", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Range") != "bytes=0-0" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte{0})
	})
	mux.HandleFunc("/live/index.m3u8", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", HLSMimeType)
		_, _ = w.Write([]byte(mediaPlaylist))
	})
	mux.HandleFunc("/broken.m3u8", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not a playlist</html>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type probeResult struct {
	canPlay bool
	src     string
	err     error
}

type chanEvents struct{ ch chan probeResult }

func (e chanEvents) HandleCanPlay(src string) { e.ch <- probeResult{canPlay: true, src: src} }
func (e chanEvents) HandleMediaError(src string, err error) {
	e.ch <- probeResult{src: src, err: err}
}
func (e chanEvents) HandlePlaying(string) {}
func (e chanEvents) HandlePaused(string)  {}

func probe(t *testing.T, m *HTTPMedia, src string) probeResult {
	t.Helper()
	ev := chanEvents{ch: make(chan probeResult, 1)}
	m.Bind(ev)
	m.SetSource(src)
	m.Load()
	select {
	case r := <-ev.ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("probe did not report")
		return probeResult{}
	}
}

func TestHTTPMedia_probe(t *testing.T) {
	srv := newStreamServer(t)
	m := NewHTTPMedia(srv.Client(), nil)

	r := probe(t, m, srv.URL+"/clip.mp4")
	assert.True(t, r.canPlay)
	assert.Equal(t, srv.URL+"/clip.mp4", r.src)

	r = probe(t, m, srv.URL+"/nohead.mp4")
	assert.True(t, r.canPlay, "falls back to a ranged GET")

	r = probe(t, m, srv.URL+"/missing.mp4")
	assert.False(t, r.canPlay)
	assert.ErrorContains(t, r.err, "404")
}

func TestHTTPMedia_controls(t *testing.T) {
	m := NewHTTPMedia(nil, nil)

	assert.True(t, m.Paused())
	assert.Error(t, m.Play(), "nothing to play")

	m.SetSource("http://cdn.test/a.mp4")
	require.NoError(t, m.Play())
	assert.False(t, m.Paused())

	assert.False(t, m.CanPlayType(HLSMimeType))
	assert.True(t, NewHTTPMedia(nil, nil, WithNativeHLS()).CanPlayType(HLSMimeType))

	require.NoError(t, m.RequestFullscreen())
	assert.True(t, m.Fullscreen())
}

func TestHeadless_controller_plays_direct_source(t *testing.T) {
	srv := newStreamServer(t)
	c := NewController(NewHTTPMedia(srv.Client(), nil), NewManifestEngine(srv.Client(), nil), nil)
	defer c.Close()

	c.Apply(overlay.StreamConfig{URL: srv.URL + "/clip.mp4", IsLive: true})

	require.Eventually(t, func() bool { return c.Status().State == StatePlaying }, 5*time.Second, 10*time.Millisecond)
	assert.False(t, c.Status().Adaptive)
}

func TestHeadless_controller_plays_manifest(t *testing.T) {
	srv := newStreamServer(t)
	engine := NewManifestEngine(srv.Client(), nil)
	media := NewHTTPMedia(srv.Client(), nil)
	c := NewController(media, engine, nil)
	defer c.Close()

	c.Apply(overlay.StreamConfig{URL: srv.URL + "/live/index.m3u8", IsLive: true})

	require.Eventually(t, func() bool { return c.Status().State == StatePlaying }, 5*time.Second, 10*time.Millisecond)
	assert.True(t, c.Status().Adaptive)
	assert.Equal(t, srv.URL+"/live/index.m3u8", media.Source(), "session feeds the playlist to the element")
	assert.False(t, media.Paused())

	m, ok := engine.LastManifest()
	require.True(t, ok)
	assert.Len(t, m.Segments, 2)
	assert.Equal(t, int64(7), m.MediaSequence)
}

func TestHeadless_controller_broken_manifest_is_fatal(t *testing.T) {
	srv := newStreamServer(t)
	c := NewController(NewHTTPMedia(srv.Client(), nil), NewManifestEngine(srv.Client(), nil), nil)
	defer c.Close()

	c.Apply(overlay.StreamConfig{URL: srv.URL + "/broken.m3u8", IsLive: true})

	require.Eventually(t, func() bool { return c.Status().State == StateError }, 5*time.Second, 10*time.Millisecond)
	assert.True(t, errors.Is(c.Err(), ErrInvalidManifest))
	assert.False(t, c.Status().FallbackUsed)
}
