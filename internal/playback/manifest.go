package playback

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/grafov/m3u8"
)

// ErrInvalidManifest wraps every playlist decoding failure.
var ErrInvalidManifest = errors.New("invalid HLS manifest")

var utf8BOM = []byte("\ufeff")

// Segment is one media segment of a media playlist.
type Segment struct {
	Duration float64 `json:"duration"`
	URI      string  `json:"uri"`
}

// Variant is one rendition listed by a master playlist.
type Variant struct {
	Bandwidth  int    `json:"bandwidth"`
	Resolution string `json:"resolution,omitempty"`
	URI        string `json:"uri"`
}

// Manifest is the part of an HLS playlist the player cares about: either
// the renditions of a master playlist or the segments of a media playlist.
type Manifest struct {
	Version        int       `json:"version,omitempty"`
	TargetDuration int       `json:"targetDuration,omitempty"`
	MediaSequence  int64     `json:"mediaSequence"`
	Segments       []Segment `json:"segments,omitempty"`
	Variants       []Variant `json:"variants,omitempty"`
	Ended          bool      `json:"ended"`
}

// IsMaster reports whether the playlist lists renditions instead of segments.
func (m *Manifest) IsMaster() bool {
	return len(m.Variants) > 0
}

// Duration is the sum of all segment durations in seconds.
func (m *Manifest) Duration() float64 {
	total := 0.0
	for _, s := range m.Segments {
		total += s.Duration
	}
	return total
}

// ParseManifest decodes an HLS master or media playlist. A leading byte
// order mark is tolerated; unknown tags are ignored.
func ParseManifest(r io.Reader) (*Manifest, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	pl, kind, err := m3u8.DecodeFrom(br, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	switch kind {
	case m3u8.MASTER:
		master, ok := pl.(*m3u8.MasterPlaylist)
		if !ok {
			return nil, ErrInvalidManifest
		}
		m := &Manifest{Version: int(master.Version())}
		for _, v := range master.Variants {
			if v == nil {
				continue
			}
			m.Variants = append(m.Variants, Variant{
				Bandwidth:  int(v.Bandwidth),
				Resolution: v.Resolution,
				URI:        v.URI,
			})
		}
		return m, nil
	case m3u8.MEDIA:
		media, ok := pl.(*m3u8.MediaPlaylist)
		if !ok {
			return nil, ErrInvalidManifest
		}
		m := &Manifest{
			Version:        int(media.Version()),
			TargetDuration: int(media.TargetDuration),
			MediaSequence:  int64(media.SeqNo),
			Ended:          media.Closed,
		}
		// The decoder preallocates the segment window; unused slots are nil.
		for _, s := range media.Segments {
			if s == nil {
				continue
			}
			m.Segments = append(m.Segments, Segment{Duration: s.Duration, URI: s.URI})
		}
		return m, nil
	}
	return nil, ErrInvalidManifest
}
