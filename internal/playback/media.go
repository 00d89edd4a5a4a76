// Package playback drives a single video element through source binding,
// adaptive-streaming session lifecycle, autoplay and error recovery.
package playback

import (
	"errors"
	"net/url"
	"strings"
)

// HLSMimeType is the MIME type probed to detect native HLS support.
const HLSMimeType = "application/vnd.apple.mpegurl"

// FallbackURL is the known-good source retried once when the element fails
// to load the configured stream.
const FallbackURL = "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4"

// ErrorMessage is shown in place of the video once playback has failed.
const ErrorMessage = "Unable to load stream"

var (
	// ErrNoSource is the failure recorded when the stream URL is empty.
	ErrNoSource = errors.New("no stream source configured")

	// ErrUnsupportedFormat is recorded when a manifest URL can be played
	// neither through an adaptive session nor natively.
	ErrUnsupportedFormat = errors.New("adaptive streaming is not supported")

	// ErrFullscreenUnsupported is returned by ToggleFullscreen when the
	// element cannot go fullscreen.
	ErrFullscreenUnsupported = errors.New("fullscreen is not supported")
)

// Events receives notifications from a MediaElement. Implementations of
// MediaElement must deliver them asynchronously, never from inside one of
// their own methods. src is the source the event refers to so that events
// for a replaced source can be ignored.
type Events interface {
	HandleCanPlay(src string)
	HandleMediaError(src string, err error)
	HandlePlaying(src string)
	HandlePaused(src string)
}

// MediaElement is the video element the controller commands.
type MediaElement interface {
	// Bind registers the receiver of the element's events.
	Bind(events Events)

	SetSource(src string)
	Source() string
	// Load starts fetching the current source. Readiness is reported
	// through Events.HandleCanPlay, failure through HandleMediaError.
	Load()

	// Play starts playback. A non-nil error means the platform refused,
	// e.g. an autoplay policy.
	Play() error
	Pause()
	Paused() bool

	SetMuted(muted bool)
	Muted() bool
	SetVolume(v float64)
	Volume() float64

	// CanPlayType reports whether the element supports mime natively.
	CanPlayType(mime string) bool
}

// Fullscreener is implemented by elements that can take over the screen.
type Fullscreener interface {
	RequestFullscreen() error
	ExitFullscreen() error
	Fullscreen() bool
}

// SessionEvents receives notifications from a Session. Like Events they
// must be delivered asynchronously.
type SessionEvents interface {
	ManifestParsed()
	Error(err error, fatal bool)
}

// AdaptiveEngine creates adaptive-streaming sessions for platforms without
// native manifest support.
type AdaptiveEngine interface {
	// Supported reports whether the engine can run on this platform.
	Supported() bool
	NewSession(events SessionEvents) Session
}

// Session assembles playable media from a manifest. A session is a scoped
// resource: it must be destroyed before the next one is created.
type Session interface {
	Load(src string)
	Attach(media MediaElement)
	Destroy()
}

// IsManifest reports whether src points at an HLS manifest.
func IsManifest(src string) bool {
	if u, err := url.Parse(src); err == nil && strings.HasSuffix(strings.ToLower(u.Path), ".m3u8") {
		return true
	}
	return strings.Contains(strings.ToLower(src), ".m3u8")
}
