package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"overlay-studio/internal/platform/logger"
)

// DefaultProbeTimeout bounds a single source probe or manifest download.
const DefaultProbeTimeout = 10 * time.Second

const maxManifestBytes = 1 << 20

// HTTPMedia is a headless MediaElement. Loading a source issues an HTTP
// request for it; a 2xx answer counts as "can play". It lets the controller
// be driven from a terminal or a health check instead of a browser.
type HTTPMedia struct {
	client    *http.Client
	log       *slog.Logger
	nativeHLS bool

	mu         sync.Mutex
	events     Events
	src        string
	cancel     context.CancelFunc
	paused     bool
	muted      bool
	volume     float64
	fullscreen bool
}

// HTTPMediaOption customises an HTTPMedia.
type HTTPMediaOption func(*HTTPMedia)

// WithNativeHLS makes the element claim native HLS support, so manifests
// are bound directly instead of through an adaptive session.
func WithNativeHLS() HTTPMediaOption {
	return func(m *HTTPMedia) { m.nativeHLS = true }
}

// NewHTTPMedia returns a headless element using client, or a client with
// DefaultProbeTimeout when client is nil.
func NewHTTPMedia(client *http.Client, log *slog.Logger, opts ...HTTPMediaOption) *HTTPMedia {
	if client == nil {
		client = &http.Client{Timeout: DefaultProbeTimeout}
	}
	m := &HTTPMedia{
		client: client,
		log:    logger.OrDiscard(log),
		paused: true,
		volume: 1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bind implements MediaElement.
func (m *HTTPMedia) Bind(events Events) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = events
}

// SetSource implements MediaElement. Any probe of the previous source is
// cancelled.
func (m *HTTPMedia) SetSource(src string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
	m.src = src
	m.paused = true
}

// Source implements MediaElement.
func (m *HTTPMedia) Source() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.src
}

// Load implements MediaElement.
func (m *HTTPMedia) Load() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
	if m.events == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.probe(ctx, m.src, m.events)
}

func (m *HTTPMedia) stopLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *HTTPMedia) probe(ctx context.Context, src string, events Events) {
	err := m.fetch(ctx, src)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		m.log.Debug("source probe failed", slog.String("source", src), slog.String("error", err.Error()))
		events.HandleMediaError(src, err)
		return
	}
	events.HandleCanPlay(src)
}

// fetch asks for the source headers, falling back to a one-byte ranged GET
// for servers that refuse HEAD.
func (m *HTTPMedia) fetch(ctx context.Context, src string) error {
	resp, err := m.do(ctx, http.MethodHead, src)
	if err == nil && (resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented) {
		resp, err = m.do(ctx, http.MethodGet, src)
	}
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("source answered %s", resp.Status)
	}
	return nil
}

func (m *HTTPMedia) do(ctx context.Context, method, src string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, src, nil)
	if err != nil {
		return nil, err
	}
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
	return resp, nil
}

// Play implements MediaElement.
func (m *HTTPMedia) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.src == "" {
		return errors.New("no source to play")
	}
	m.paused = false
	return nil
}

// Pause implements MediaElement.
func (m *HTTPMedia) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = true
}

// Paused implements MediaElement.
func (m *HTTPMedia) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// SetMuted implements MediaElement.
func (m *HTTPMedia) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
}

// Muted implements MediaElement.
func (m *HTTPMedia) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

// SetVolume implements MediaElement.
func (m *HTTPMedia) SetVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = v
}

// Volume implements MediaElement.
func (m *HTTPMedia) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// CanPlayType implements MediaElement.
func (m *HTTPMedia) CanPlayType(mime string) bool {
	return mime == HLSMimeType && m.nativeHLS
}

// RequestFullscreen implements Fullscreener.
func (m *HTTPMedia) RequestFullscreen() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fullscreen = true
	return nil
}

// ExitFullscreen implements Fullscreener.
func (m *HTTPMedia) ExitFullscreen() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fullscreen = false
	return nil
}

// Fullscreen implements Fullscreener.
func (m *HTTPMedia) Fullscreen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fullscreen
}

// ManifestEngine is a headless AdaptiveEngine: its sessions download and
// parse the HLS playlist. A playlist that cannot be fetched or parsed is a
// fatal session error.
type ManifestEngine struct {
	client *http.Client
	log    *slog.Logger

	mu   sync.Mutex
	last *Manifest
}

// NewManifestEngine returns an engine using client, or a client with
// DefaultProbeTimeout when client is nil.
func NewManifestEngine(client *http.Client, log *slog.Logger) *ManifestEngine {
	if client == nil {
		client = &http.Client{Timeout: DefaultProbeTimeout}
	}
	return &ManifestEngine{client: client, log: logger.OrDiscard(log)}
}

// Supported implements AdaptiveEngine.
func (e *ManifestEngine) Supported() bool { return true }

// NewSession implements AdaptiveEngine.
func (e *ManifestEngine) NewSession(events SessionEvents) Session {
	return &manifestSession{engine: e, events: events}
}

// LastManifest returns the most recently parsed playlist, if any.
func (e *ManifestEngine) LastManifest() (*Manifest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last, e.last != nil
}

func (e *ManifestEngine) remember(m *Manifest) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.last = m
}

type manifestSession struct {
	engine *ManifestEngine
	events SessionEvents

	mu     sync.Mutex
	cancel context.CancelFunc
	media  MediaElement
	src    string
}

func (s *manifestSession) Load(src string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.src = src
	if s.media != nil {
		s.media.SetSource(src)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(ctx, src)
}

func (s *manifestSession) run(ctx context.Context, src string) {
	m, err := s.engine.download(ctx, src)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.events.Error(err, true)
		return
	}
	s.engine.remember(m)
	s.events.ManifestParsed()
}

// Attach feeds the playlist to media. The element is not loaded: readiness
// comes from the parsed manifest.
func (s *manifestSession) Attach(media MediaElement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media = media
	if s.src != "" {
		media.SetSource(s.src)
	}
}

func (s *manifestSession) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.media = nil
}

func (e *ManifestEngine) download(ctx context.Context, src string) (*Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("manifest answered %s", resp.Status)
	}
	m, err := ParseManifest(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		return nil, err
	}
	e.log.Debug("manifest parsed",
		slog.String("source", src),
		slog.Bool("master", m.IsMaster()),
		slog.Int("segments", len(m.Segments)),
		slog.Int("variants", len(m.Variants)))
	return m, nil
}
