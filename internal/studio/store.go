// Package studio holds the operator's working set: the overlay collection,
// the current selection and the stream configuration, optionally mirrored
// to a remote overlay server.
package studio

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"overlay-studio/internal/overlay"
	"overlay-studio/internal/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrOverlayNotFound is returned by Update for an id not in the store.
	ErrOverlayNotFound = errors.New("overlay not found")

	// ErrEmptyContent is returned by Add when content is blank.
	ErrEmptyContent = errors.New("overlay content is empty")
)

const refreshKey = "overlays"

// Store is the single mutator of overlay state. Mutations are applied
// locally first and then written to the Persistence; a failed remote write
// raises a notification and is not rolled back. The local view converges
// with the remote collection on the next successful Refresh.
type Store struct {
	mu       sync.Mutex
	persist  Persistence
	remote   bool
	log      *slog.Logger
	now      func() time.Time
	newID    func() string
	overlays []overlay.Overlay
	selected string
	stream   overlay.StreamConfig

	refresh    singleflight.Group
	fetchSeq   uint64
	appliedSeq uint64

	listeners map[int]func(Event)
	nextSub   int
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = logger.OrDiscard(log) }
}

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator sets the minting of provisional overlay ids.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithDemoOverlays seeds the store with a LIVE badge and a camera label.
func WithDemoOverlays() Option {
	return func(s *Store) { s.overlays = append(s.overlays, DemoOverlays(s.newID, s.now())...) }
}

// WithStreamConfig replaces the default stream configuration.
func WithStreamConfig(cfg overlay.StreamConfig) Option {
	return func(s *Store) { s.stream = cfg }
}

// NewStore returns a store writing through p. A nil p selects Local.
func NewStore(p Persistence, opts ...Option) *Store {
	if p == nil {
		p = Local{}
	}
	_, local := p.(Local)
	s := &Store{
		persist:   p,
		remote:    !local,
		log:       logger.Discard(),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
		stream:    DefaultStreamConfig(),
		listeners: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DemoOverlays returns the overlays local-only mode starts with.
func DemoOverlays(newID func() string, now time.Time) []overlay.Overlay {
	live := overlay.New(newID(), overlay.TypeText, "LIVE", 10, now)
	live.X, live.Y, live.Width, live.Height = 5, 5, 10, 6
	live.FontSize = 18
	live.FontColor = "#ef4444"

	cam := overlay.New(newID(), overlay.TypeText, "Camera 01", 10, now)
	cam.X, cam.Y, cam.Width, cam.Height = 75, 90, 20, 5
	cam.FontSize = 14
	cam.Opacity = 80

	return []overlay.Overlay{live, cam}
}

// Subscribe registers fn for every store event and returns a function that
// removes it. fn is called without the store's lock held.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) emit(events ...Event) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	listeners := make([]func(Event), 0, len(s.listeners))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.listeners[i]; ok {
			listeners = append(listeners, fn)
		}
	}
	s.mu.Unlock()

	for _, ev := range events {
		for _, fn := range listeners {
			fn(ev)
		}
	}
}

func (s *Store) notify(n Notification) {
	if n.Kind.Failure() {
		attrs := []any{slog.String("kind", n.Kind.String())}
		if n.OverlayID != "" {
			attrs = append(attrs, slog.String("id", n.OverlayID))
		}
		if n.Err != nil {
			attrs = append(attrs, slog.String("error", errorDetail(n.Err)))
		}
		s.log.Warn("remote overlay operation failed", attrs...)
	}
	s.emit(Event{Kind: Notified, Notification: &n})
}

func errorDetail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail()
	}
	return err.Error()
}

// Overlays returns a copy of the collection, bottom-most first.
func (s *Store) Overlays() []overlay.Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]overlay.Overlay, len(s.overlays))
	copy(out, s.overlays)
	overlay.SortByStacking(out)
	return out
}

// Get returns the overlay with id.
func (s *Store) Get(id string) (overlay.Overlay, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return overlay.Overlay{}, false
	}
	return s.overlays[i], true
}

func (s *Store) indexLocked(id string) int {
	for i := range s.overlays {
		if s.overlays[i].ID == id {
			return i
		}
	}
	return -1
}

// Add creates an overlay with default geometry and style above every
// existing overlay, selects it and writes it to the Persistence. The
// returned overlay carries the remote id when the write succeeded.
func (s *Store) Add(ctx context.Context, t overlay.Type, content string) (overlay.Overlay, error) {
	if !t.Valid() {
		return overlay.Overlay{}, overlay.ErrInvalidType
	}
	if strings.TrimSpace(content) == "" {
		return overlay.Overlay{}, ErrEmptyContent
	}

	s.mu.Lock()
	o := overlay.New(s.newID(), t, content, overlay.NextZIndex(s.overlays), s.now())
	s.overlays = append(s.overlays, o)
	s.selected = o.ID
	s.mu.Unlock()
	s.emit(Event{Kind: OverlaysChanged}, Event{Kind: SelectionChanged})

	created, err := s.persist.Create(ctx, o)
	if err != nil {
		s.notify(newNotification(CreateFailed, o.ID, err))
		return o, nil
	}
	if created.ID != "" && created.ID != o.ID {
		o = s.rekey(o.ID, created)
	}
	if s.remote {
		s.notify(newNotification(Created, o.ID, nil))
		s.invalidate(ctx)
	}
	return o, nil
}

// rekey replaces the provisional overlay with its remote record.
func (s *Store) rekey(provisional string, remote overlay.Overlay) overlay.Overlay {
	s.mu.Lock()
	i := s.indexLocked(provisional)
	if i < 0 {
		s.mu.Unlock()
		return remote
	}
	s.overlays[i] = remote
	selectionMoved := s.selected == provisional
	if selectionMoved {
		s.selected = remote.ID
	}
	s.mu.Unlock()

	events := []Event{{Kind: OverlaysChanged}}
	if selectionMoved {
		events = append(events, Event{Kind: SelectionChanged})
	}
	s.emit(events...)
	return remote
}

// Update merges p into the overlay with id and re-clamps the fields it
// touches. An empty patch only refreshes UpdatedAt and is not written
// remotely. A patch naming an unknown type or blank content is rejected
// before anything changes.
func (s *Store) Update(ctx context.Context, id string, p overlay.Patch) error {
	if p.Type != nil && !p.Type.Valid() {
		return overlay.ErrInvalidType
	}
	if p.Content != nil && strings.TrimSpace(*p.Content) == "" {
		return ErrEmptyContent
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrOverlayNotFound
	}
	s.overlays[i] = s.overlays[i].Apply(p, s.now())
	s.mu.Unlock()
	s.emit(Event{Kind: OverlaysChanged})

	if p.IsEmpty() {
		return nil
	}
	if _, err := s.persist.Update(ctx, id, p); err != nil {
		s.notify(newNotification(UpdateFailed, id, err))
		return nil
	}
	s.invalidate(ctx)
	return nil
}

// Remove deletes the overlay with id, clearing the selection if it pointed
// there. Removing an unknown id does nothing.
func (s *Store) Remove(ctx context.Context, id string) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.overlays = append(s.overlays[:i], s.overlays[i+1:]...)
	selectionCleared := s.selected == id
	if selectionCleared {
		s.selected = ""
	}
	s.mu.Unlock()

	events := []Event{{Kind: OverlaysChanged}}
	if selectionCleared {
		events = append(events, Event{Kind: SelectionChanged})
	}
	s.emit(events...)

	if err := s.persist.Delete(ctx, id); err != nil {
		s.notify(newNotification(DeleteFailed, id, err))
		return
	}
	if s.remote {
		s.notify(newNotification(Deleted, id, nil))
		s.invalidate(ctx)
	}
}

// Select sets the selection without checking that id exists. An empty id
// clears it.
func (s *Store) Select(id string) {
	s.mu.Lock()
	changed := s.selected != id
	s.selected = id
	s.mu.Unlock()
	if changed {
		s.emit(Event{Kind: SelectionChanged})
	}
}

// ClearSelection deselects.
func (s *Store) ClearSelection() { s.Select("") }

// SelectedID returns the selected overlay's id, or "" when nothing live is
// selected.
func (s *Store) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(s.selected) < 0 {
		return ""
	}
	return s.selected
}

// Selected returns the selected overlay.
func (s *Store) Selected() (overlay.Overlay, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(s.selected)
	if i < 0 {
		return overlay.Overlay{}, false
	}
	return s.overlays[i], true
}

// Refresh refetches the collection from the Persistence. Concurrent calls
// share one fetch. A failed fetch leaves the local list untouched and
// raises a single ConnectionError notification.
func (s *Store) Refresh(ctx context.Context) error {
	_, err, _ := s.refresh.Do(refreshKey, func() (any, error) {
		return nil, s.fetch(ctx)
	})
	return err
}

// invalidate discards any in-flight fetch and starts a new one, so the list
// reflects the write that triggered it. Its failure is reported through
// notifications only.
func (s *Store) invalidate(ctx context.Context) {
	if !s.remote {
		return
	}
	s.refresh.Forget(refreshKey)
	_ = s.Refresh(ctx)
}

func (s *Store) fetch(ctx context.Context) error {
	s.mu.Lock()
	s.fetchSeq++
	seq := s.fetchSeq
	s.mu.Unlock()

	list, err := s.persist.List(ctx)
	if errors.Is(err, ErrLocalOnly) {
		return nil
	}
	if err != nil {
		s.notify(newNotification(ConnectionError, "", err))
		return err
	}

	s.mu.Lock()
	if seq < s.appliedSeq {
		// a later fetch already landed
		s.mu.Unlock()
		return nil
	}
	s.appliedSeq = seq
	s.overlays = append([]overlay.Overlay(nil), list...)
	selectionCleared := s.selected != "" && s.indexLocked(s.selected) < 0
	if selectionCleared {
		s.selected = ""
	}
	s.mu.Unlock()

	events := []Event{{Kind: OverlaysChanged}}
	if selectionCleared {
		events = append(events, Event{Kind: SelectionChanged})
	}
	s.emit(events...)
	return nil
}

// StreamConfig returns the current stream configuration.
func (s *Store) StreamConfig() overlay.StreamConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

func (s *Store) setStream(fn func(*overlay.StreamConfig)) {
	s.mu.Lock()
	before := s.stream
	fn(&s.stream)
	changed := s.stream != before
	s.mu.Unlock()
	if changed {
		s.emit(Event{Kind: StreamChanged})
	}
}

// SetStreamURL changes the stream source. RTSP and UDP URLs are accepted
// with a ProtocolWarning since browsers need a transcoder for them.
func (s *Store) SetStreamURL(u string) {
	if needsTranscoder(u) {
		s.notify(newNotification(ProtocolWarning, "", nil))
	}
	s.setStream(func(c *overlay.StreamConfig) { c.URL = u })
}

// ToggleLive flips the playback intent.
func (s *Store) ToggleLive() {
	s.setStream(func(c *overlay.StreamConfig) { c.IsLive = !c.IsLive })
}

// SetStreamTitle changes the stream label.
func (s *Store) SetStreamTitle(title string) {
	s.setStream(func(c *overlay.StreamConfig) { c.Title = title })
}

// LoadStreamConfig seeds the stream URL from src unless the server reports
// a placeholder. On failure the current configuration is kept and the
// error returned; no notification is raised.
func (s *Store) LoadStreamConfig(ctx context.Context, src ConfigSource) error {
	cfg, err := src.FetchConfig(ctx)
	if err != nil {
		s.log.Debug("stream config unavailable, keeping default", slog.String("error", errorDetail(err)))
		return err
	}
	if IsPlaceholderURL(cfg.RTSPURL) {
		return nil
	}
	s.setStream(func(c *overlay.StreamConfig) { c.URL = ResolveStreamURL(cfg.RTSPURL) })
	return nil
}
