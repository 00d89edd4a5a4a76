package playback

import (
	"errors"
	"log/slog"
	"sync"

	"overlay-studio/internal/overlay"
	"overlay-studio/internal/platform/logger"
)

// Controller is the sole mutator of a video element's playback state. It
// reconciles the element with the desired StreamConfig:
//
//	Idle -> Loading -> Playing <-> Paused
//
// with Error reachable from any state. Calls into the MediaElement and the
// Session are made while holding the controller's lock, which is why both
// must deliver their events asynchronously.
type Controller struct {
	mu     sync.Mutex
	media  MediaElement
	engine AdaptiveEngine
	log    *slog.Logger

	cfg          overlay.StreamConfig
	state        State
	source       string
	session      Session
	sessionGen   uint64
	fallbackUsed bool
	playing      bool
	volume       float64
	savedVolume  float64
	err          error

	listeners []func(Status)
}

// NewController returns an idle controller for media. engine may be nil on
// platforms without an adaptive-streaming engine. The element starts muted,
// which keeps autoplay policies satisfied.
func NewController(media MediaElement, engine AdaptiveEngine, log *slog.Logger) *Controller {
	c := &Controller{
		media:  media,
		engine: engine,
		log:    logger.OrDiscard(log),
		volume: 1,
	}
	media.SetMuted(true)
	media.SetVolume(1)
	media.Bind(c)
	return c
}

// Subscribe registers fn to receive a Status after every transition.
func (c *Controller) Subscribe(fn func(Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Controller) statusLocked() Status {
	st := Status{
		State:        c.state,
		URL:          c.cfg.URL,
		Source:       c.source,
		Live:         c.cfg.IsLive,
		Playing:      c.playing,
		Muted:        c.media.Muted(),
		Volume:       c.volume,
		Adaptive:     c.session != nil,
		FallbackUsed: c.fallbackUsed,
	}
	if fs, ok := c.media.(Fullscreener); ok {
		st.Fullscreen = fs.Fullscreen()
	}
	if c.state == StateError {
		st.Error = ErrorMessage
	}
	return st
}

// Err returns the cause of the last failure, or nil.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// mutate runs fn under the lock and then notifies listeners.
func (c *Controller) mutate(fn func()) {
	c.mu.Lock()
	fn()
	st := c.statusLocked()
	listeners := append([]func(Status){}, c.listeners...)
	c.mu.Unlock()

	for _, l := range listeners {
		l(st)
	}
}

// Apply reconciles the controller with cfg. A URL change reloads the
// source; a change of the live intent alone starts or pauses playback.
func (c *Controller) Apply(cfg overlay.StreamConfig) {
	c.mutate(func() {
		urlChanged := cfg.URL != c.cfg.URL || c.state == StateIdle
		liveChanged := cfg.IsLive != c.cfg.IsLive
		c.cfg = cfg

		switch {
		case urlChanged:
			c.loadLocked(cfg.URL)
		case liveChanged && c.state.Ready():
			if cfg.IsLive {
				c.autoplayLocked()
			} else {
				c.media.Pause()
				c.playing = false
				c.state = StatePaused
			}
		}
	})
}

// Reload tears down the current source and binds the configured URL again.
func (c *Controller) Reload() {
	c.mutate(func() { c.loadLocked(c.cfg.URL) })
}

func (c *Controller) loadLocked(src string) {
	c.releaseSessionLocked()
	c.err = nil
	c.fallbackUsed = false
	c.playing = false
	c.source = src
	c.state = StateLoading

	if src == "" {
		c.failLocked(ErrNoSource)
		return
	}

	if IsManifest(src) {
		switch {
		case c.engine != nil && c.engine.Supported():
			c.sessionGen++
			c.session = c.engine.NewSession(&sessionSink{c: c, gen: c.sessionGen})
			c.session.Load(src)
			c.session.Attach(c.media)
			c.log.Debug("adaptive session attached", slog.String("source", src))
		case c.media.CanPlayType(HLSMimeType):
			c.bindLocked(src)
		default:
			c.failLocked(ErrUnsupportedFormat)
		}
		return
	}

	c.bindLocked(src)
}

func (c *Controller) bindLocked(src string) {
	c.source = src
	c.media.SetSource(src)
	c.media.Load()
	c.log.Debug("source bound", slog.String("source", src))
}

// releaseSessionLocked destroys the adaptive session, if any. Bumping the
// generation makes late events from the destroyed session stale.
func (c *Controller) releaseSessionLocked() {
	if c.session == nil {
		return
	}
	c.session.Destroy()
	c.session = nil
	c.sessionGen++
}

func (c *Controller) failLocked(err error) {
	c.releaseSessionLocked()
	c.err = err
	c.playing = false
	c.state = StateError
	c.log.Warn("playback failed",
		slog.String("url", c.cfg.URL),
		slog.String("source", c.source),
		slog.String("error", err.Error()))
}

// readyLocked moves a loading source to Paused and, when the live intent is
// set, attempts autoplay.
func (c *Controller) readyLocked() {
	if c.state != StateLoading {
		return
	}
	c.state = StatePaused
	if c.cfg.IsLive {
		c.autoplayLocked()
	}
}

// autoplayLocked starts playback. A refusal is not a failure: the source
// stays Paused for the operator to start by hand.
func (c *Controller) autoplayLocked() {
	if err := c.media.Play(); err != nil {
		c.playing = false
		c.state = StatePaused
		c.log.Info("autoplay rejected", slog.String("error", err.Error()))
		return
	}
	c.playing = true
	c.state = StatePlaying
}

// currentLocked reports whether an element event for src concerns the
// current source. With an adaptive session attached the element plays
// whatever the session feeds it, so every event counts. An idle controller
// has no current source.
func (c *Controller) currentLocked(src string) bool {
	if c.state == StateIdle {
		return false
	}
	return c.session != nil || src == c.source
}

// HandleCanPlay implements Events. Adaptive sessions signal readiness
// through the manifest instead.
func (c *Controller) HandleCanPlay(src string) {
	c.mutate(func() {
		if !c.currentLocked(src) || c.session != nil {
			return
		}
		c.readyLocked()
	})
}

// HandleMediaError implements Events. The first failure of a source other
// than FallbackURL retries against FallbackURL; any further failure is final.
func (c *Controller) HandleMediaError(src string, err error) {
	c.mutate(func() {
		if !c.currentLocked(src) || c.state == StateError {
			return
		}
		if err == nil {
			err = errors.New("media error")
		}
		if c.fallbackUsed || c.source == FallbackURL {
			c.failLocked(err)
			return
		}

		c.log.Info("source failed, retrying with fallback",
			slog.String("source", c.source),
			slog.String("error", err.Error()))
		c.releaseSessionLocked()
		c.fallbackUsed = true
		c.playing = false
		c.state = StateLoading
		c.bindLocked(FallbackURL)
	})
}

// HandlePlaying implements Events.
func (c *Controller) HandlePlaying(src string) {
	c.mutate(func() {
		if !c.currentLocked(src) || !c.state.Ready() {
			return
		}
		c.playing = true
		c.state = StatePlaying
	})
}

// HandlePaused implements Events.
func (c *Controller) HandlePaused(src string) {
	c.mutate(func() {
		if !c.currentLocked(src) || !c.state.Ready() {
			return
		}
		c.playing = false
		c.state = StatePaused
	})
}

func (c *Controller) handleManifestParsed(gen uint64) {
	c.mutate(func() {
		if gen != c.sessionGen || c.session == nil {
			return
		}
		c.readyLocked()
	})
}

func (c *Controller) handleSessionError(gen uint64, err error, fatal bool) {
	c.mutate(func() {
		if gen != c.sessionGen || c.session == nil {
			return
		}
		if !fatal {
			c.log.Debug("adaptive session recoverable error", slog.String("error", err.Error()))
			return
		}
		c.failLocked(err)
	})
}

// TogglePlay plays a paused element and pauses a playing one.
func (c *Controller) TogglePlay() {
	c.mutate(func() {
		if c.media.Paused() {
			if err := c.media.Play(); err != nil {
				c.playing = false
				c.log.Info("play rejected", slog.String("error", err.Error()))
				return
			}
			c.playing = true
			if c.state == StatePaused {
				c.state = StatePlaying
			}
			return
		}
		c.media.Pause()
		c.playing = false
		if c.state == StatePlaying {
			c.state = StatePaused
		}
	})
}

// ToggleMute flips the mute flag. Muting shows a zero volume; unmuting
// restores the previous volume, or full volume when there was none.
func (c *Controller) ToggleMute() {
	c.mutate(func() {
		if !c.media.Muted() {
			c.savedVolume = c.volume
			c.media.SetMuted(true)
			c.volume = 0
			return
		}
		restore := c.savedVolume
		if restore == 0 {
			restore = 1
		}
		c.media.SetMuted(false)
		c.media.SetVolume(restore)
		c.volume = restore
	})
}

// SetVolume sets the volume in [0,1]. Zero mutes; anything louder unmutes.
func (c *Controller) SetVolume(v float64) {
	c.mutate(func() {
		v = overlay.Clamp(v, 0, 1)
		c.media.SetVolume(v)
		c.volume = v
		switch {
		case v > 0 && c.media.Muted():
			c.media.SetMuted(false)
		case v == 0 && !c.media.Muted():
			c.media.SetMuted(true)
		}
	})
}

// ToggleFullscreen enters or leaves fullscreen.
func (c *Controller) ToggleFullscreen() error {
	fs, ok := c.media.(Fullscreener)
	if !ok {
		return ErrFullscreenUnsupported
	}
	var err error
	c.mutate(func() {
		if fs.Fullscreen() {
			err = fs.ExitFullscreen()
		} else {
			err = fs.RequestFullscreen()
		}
	})
	return err
}

// Close releases the adaptive session and stops playback. Element events
// arriving afterwards are ignored; only Apply or Reload bind a source again.
func (c *Controller) Close() {
	c.mutate(func() {
		c.releaseSessionLocked()
		c.sessionGen++
		c.media.Pause()
		c.playing = false
		c.fallbackUsed = false
		c.source = ""
		c.state = StateIdle
	})
}

// sessionSink tags session events with the generation of the session that
// produced them.
type sessionSink struct {
	c   *Controller
	gen uint64
}

func (s *sessionSink) ManifestParsed() { s.c.handleManifestParsed(s.gen) }

func (s *sessionSink) Error(err error, fatal bool) { s.c.handleSessionError(s.gen, err, fatal) }
