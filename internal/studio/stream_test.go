package studio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveStreamURL(t *testing.T) {
	placeholders := []string{
		"",
		"rtsp://default-stream-url",
		"rtsp://your-rtsp-stream:554/live",
		"rtsp://localhost:8554/mystream",
	}
	for _, u := range placeholders {
		assert.Equal(t, DefaultStreamURL, ResolveStreamURL(u), "placeholder %q", u)
		assert.True(t, IsPlaceholderURL(u))
	}

	for _, u := range []string{
		"rtsp://localhost:8554/othercam",
		"https://cdn.test/live/index.m3u8",
	} {
		assert.Equal(t, u, ResolveStreamURL(u))
	}
}

func TestNotificationKind(t *testing.T) {
	assert.Equal(t, "Deletion Failed", DeleteFailed.String())
	assert.True(t, ConnectionError.Failure())
	assert.False(t, Created.Failure())
	assert.False(t, ProtocolWarning.Failure())
	assert.Equal(t, "NotificationKind(99)", NotificationKind(99).String())
	assert.Equal(t, "selection", SelectionChanged.String())
}
