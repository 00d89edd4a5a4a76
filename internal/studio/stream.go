package studio

import (
	"strings"

	"overlay-studio/internal/overlay"
)

// DefaultStreamURL is played until the server supplies a real stream.
const DefaultStreamURL = "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4"

// DefaultStreamTitle labels the default stream.
const DefaultStreamTitle = "Demo Video Stream"

// DefaultStreamConfig is the stream a new Store starts with.
func DefaultStreamConfig() overlay.StreamConfig {
	return overlay.StreamConfig{URL: DefaultStreamURL, IsLive: true, Title: DefaultStreamTitle}
}

// IsPlaceholderURL reports whether a server-supplied stream URL is one of
// the stock values shipped in sample configs.
func IsPlaceholderURL(u string) bool {
	return u == "" ||
		strings.Contains(u, "default-stream") ||
		strings.Contains(u, "your-rtsp-stream") ||
		u == "rtsp://localhost:8554/mystream"
}

// ResolveStreamURL returns remote, or DefaultStreamURL when remote is a
// placeholder.
func ResolveStreamURL(remote string) string {
	if IsPlaceholderURL(remote) {
		return DefaultStreamURL
	}
	return remote
}

// needsTranscoder reports whether browsers cannot play u without a
// server-side transcoder.
func needsTranscoder(u string) bool {
	lower := strings.ToLower(u)
	return strings.HasPrefix(lower, "rtsp://") || strings.HasPrefix(lower, "udp://")
}
