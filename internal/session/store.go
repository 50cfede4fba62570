package session

import (
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aguiarsc/groovy-player/internal/catalog"
	"github.com/aguiarsc/groovy-player/internal/queue"
)

// previousRestartThreshold is how far into a track Previous() restarts it
// instead of going back. Small accidental taps near a track start should not
// jump two tracks back.
const previousRestartThreshold = 3 * time.Second

// Store is the single source of truth for the playback session. All
// transitions are synchronous and atomic from the caller's perspective;
// invalid operations are logged and ignored, never returned as errors.
type Store struct {
	mu         sync.RWMutex
	current    *catalog.Track
	context    *catalog.Playlist
	queue      *queue.Queue
	playing    bool
	volume     float64
	progress   time.Duration
	duration   time.Duration
	visible    bool
	fullscreen bool

	subs   []*Subscription
	subsMu sync.RWMutex

	log *logrus.Logger
}

// New creates a new store with an empty session.
func New(log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Store{
		queue:  queue.New(),
		volume: 1.0,
		log:    log,
	}
}

// Subscribe creates a new event subscription.
func (s *Store) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	return sub
}

// Close signals all subscribers to stop.
func (s *Store) Close() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
}

func (s *Store) broadcast(events []func(*Subscription)) {
	if len(events) == 0 {
		return
	}
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		for _, send := range events {
			send(sub)
		}
	}
}

// Snapshot returns a copy of the current session state.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Session {
	snap := Session{
		Queue:         s.queue.Tracks(),
		IsPlaying:     s.playing,
		Volume:        s.volume,
		Progress:      s.progress,
		Duration:      s.duration,
		PlayerVisible: s.visible,
		Fullscreen:    s.fullscreen,
	}
	if s.current != nil {
		t := *s.current
		snap.CurrentTrack = &t
	}
	if s.context != nil {
		p := catalog.Playlist{ID: s.context.ID, Name: s.context.Name}
		p.Tracks = make([]catalog.Track, len(s.context.Tracks))
		copy(p.Tracks, s.context.Tracks)
		snap.PlaylistContext = &p
	}
	return snap
}

// PlayTrack binds the given track to the session and starts playback. When
// the track is already current this is an idempotent resume: progress is left
// alone and only the playing flag is guaranteed. The queue is not touched.
func (s *Store) PlayTrack(t catalog.Track) {
	s.mu.Lock()
	var events []func(*Subscription)

	if s.current != nil && s.current.ID == t.ID {
		if !s.playing {
			s.playing = true
			ev := PlayingChange{Playing: true}
			events = append(events, func(sub *Subscription) { sub.sendPlaying(ev) })
		}
		events = append(events, s.showPlayerLocked()...)
		s.mu.Unlock()
		s.broadcast(events)
		return
	}

	prev := s.current
	track := t
	s.current = &track
	s.progress = 0
	s.duration = 0
	s.playing = true
	ev := TrackChange{Previous: prev, Current: s.current, Playing: true}
	events = append(events, func(sub *Subscription) { sub.sendTrack(ev) })
	events = append(events, s.showPlayerLocked()...)
	s.mu.Unlock()
	s.broadcast(events)
}

// PlayQueue starts playback of tracks[startIndex] and queues the tracks
// after it. Tracks before the start index are dropped, not retained. Invalid
// input is logged and ignored.
func (s *Store) PlayQueue(tracks []catalog.Track, startIndex int) {
	s.mu.Lock()
	if len(tracks) == 0 || startIndex < 0 || startIndex >= len(tracks) {
		s.mu.Unlock()
		s.log.WithFields(logrus.Fields{
			"tracks": len(tracks),
			"start":  startIndex,
		}).Warn("ignoring play queue request with invalid input")
		return
	}

	prev := s.current
	track := tracks[startIndex]
	s.current = &track

	s.queue.Replace(tracks[startIndex+1:])

	s.progress = 0
	s.duration = 0
	s.playing = true

	trackEv := TrackChange{Previous: prev, Current: s.current, Playing: true}
	queueEv := QueueChange{Tracks: s.queue.Tracks()}
	events := []func(*Subscription){
		func(sub *Subscription) { sub.sendTrack(trackEv) },
		func(sub *Subscription) { sub.sendQueue(queueEv) },
	}
	events = append(events, s.showPlayerLocked()...)
	s.mu.Unlock()
	s.broadcast(events)
}

// PlayPlaylist remembers the playlist as the active context and delegates to
// PlayQueue. An empty playlist is logged and ignored.
func (s *Store) PlayPlaylist(p catalog.Playlist, startIndex int) {
	if len(p.Tracks) == 0 {
		s.log.WithField("playlist", p.Name).Warn("ignoring request to play empty playlist")
		return
	}
	s.mu.Lock()
	ctx := p
	ctx.Tracks = make([]catalog.Track, len(p.Tracks))
	copy(ctx.Tracks, p.Tracks)
	s.context = &ctx
	s.mu.Unlock()
	s.PlayQueue(p.Tracks, startIndex)
}

// TogglePlay flips the playing flag. No-op without a current track.
func (s *Store) TogglePlay() {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}
	s.playing = !s.playing
	ev := PlayingChange{Playing: s.playing}
	s.mu.Unlock()
	s.broadcast([]func(*Subscription){func(sub *Subscription) { sub.sendPlaying(ev) }})
}

// Play sets the playing flag. No-op without a current track.
func (s *Store) Play() {
	s.mu.Lock()
	if s.current == nil || s.playing {
		s.mu.Unlock()
		return
	}
	s.playing = true
	ev := PlayingChange{Playing: true}
	s.mu.Unlock()
	s.broadcast([]func(*Subscription){func(sub *Subscription) { sub.sendPlaying(ev) }})
}

// Pause clears the playing flag.
func (s *Store) Pause() {
	s.mu.Lock()
	if !s.playing {
		s.mu.Unlock()
		return
	}
	s.playing = false
	ev := PlayingChange{Playing: false}
	s.mu.Unlock()
	s.broadcast([]func(*Subscription){func(sub *Subscription) { sub.sendPlaying(ev) }})
}

// Next advances playback. Priority order: pop the queue head; otherwise
// restart the playlist context from its first track; otherwise stop playing
// with the current track left loaded and rewound. The last case is the
// deliberate end-of-all-content sub-state, not a full stop.
func (s *Store) Next() {
	s.mu.Lock()
	var events []func(*Subscription)

	switch {
	case !s.queue.IsEmpty():
		prev := s.current
		s.current = s.queue.PopFront()
		s.progress = 0
		s.duration = 0
		trackEv := TrackChange{Previous: prev, Current: s.current, Playing: s.playing}
		queueEv := QueueChange{Tracks: s.queue.Tracks()}
		events = append(events,
			func(sub *Subscription) { sub.sendTrack(trackEv) },
			func(sub *Subscription) { sub.sendQueue(queueEv) },
		)

	case !s.context.IsEmpty():
		prev := s.current
		track := s.context.Tracks[0]
		s.current = &track
		s.queue.Replace(s.context.Tracks[1:])
		s.progress = 0
		s.duration = 0
		trackEv := TrackChange{Previous: prev, Current: s.current, Playing: s.playing}
		queueEv := QueueChange{Tracks: s.queue.Tracks()}
		events = append(events,
			func(sub *Subscription) { sub.sendTrack(trackEv) },
			func(sub *Subscription) { sub.sendQueue(queueEv) },
		)

	default:
		s.progress = 0
		progressEv := ProgressChange{Progress: 0}
		events = append(events, func(sub *Subscription) { sub.sendProgress(progressEv) })
		if s.playing {
			s.playing = false
			playingEv := PlayingChange{Playing: false}
			events = append(events, func(sub *Subscription) { sub.sendPlaying(playingEv) })
		}
	}

	s.mu.Unlock()
	s.broadcast(events)
}

// Previous restarts the current track when more than a few seconds in,
// otherwise steps back within the playlist context. Without a context, or
// when the current track is the context's first, it restarts in place.
func (s *Store) Previous() {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}

	idx := -1
	if s.progress <= previousRestartThreshold && !s.context.IsEmpty() {
		for i := range s.context.Tracks {
			if s.context.Tracks[i].ID == s.current.ID {
				idx = i
				break
			}
		}
	}

	if s.progress > previousRestartThreshold || idx <= 0 {
		s.progress = 0
		ev := ProgressChange{Progress: 0}
		s.mu.Unlock()
		s.broadcast([]func(*Subscription){func(sub *Subscription) { sub.sendProgress(ev) }})
		return
	}

	prev := s.current
	track := s.context.Tracks[idx-1]
	s.current = &track
	s.queue.Replace(s.context.Tracks[idx:])
	s.progress = 0
	s.duration = 0
	trackEv := TrackChange{Previous: prev, Current: s.current, Playing: s.playing}
	queueEv := QueueChange{Tracks: s.queue.Tracks()}
	s.mu.Unlock()
	s.broadcast([]func(*Subscription){
		func(sub *Subscription) { sub.sendTrack(trackEv) },
		func(sub *Subscription) { sub.sendQueue(queueEv) },
	})
}

// SetVolume sets the volume, clamped to [0, 1].
func (s *Store) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	s.mu.Lock()
	s.volume = v
	ev := VolumeChange{Volume: v}
	s.mu.Unlock()
	s.broadcast([]func(*Subscription){func(sub *Subscription) { sub.sendVolume(ev) }})
}

// SeekTo requests a playhead position. The same setter also absorbs device
// time reports; the engine compares against the actual device position to
// tell a genuine seek from an echo.
func (s *Store) SeekTo(p time.Duration) {
	s.SetProgress(p)
}

// SetProgress records the playhead position.
func (s *Store) SetProgress(p time.Duration) {
	s.mu.Lock()
	s.progress = p
	ev := ProgressChange{Progress: p}
	s.mu.Unlock()
	s.broadcast([]func(*Subscription){func(sub *Subscription) { sub.sendProgress(ev) }})
}

// SetDuration records the authoritative track length reported by the device.
func (s *Store) SetDuration(d time.Duration) {
	s.mu.Lock()
	s.duration = d
	s.mu.Unlock()
}

// AddToQueue appends a track to the queue.
func (s *Store) AddToQueue(t catalog.Track) {
	s.mu.Lock()
	s.queue.Add(t)
	ev := QueueChange{Tracks: s.queue.Tracks()}
	s.mu.Unlock()
	s.broadcast([]func(*Subscription){func(sub *Subscription) { sub.sendQueue(ev) }})
}

// RemoveFromQueue removes the track at the given index. Out-of-range indexes
// are a no-op.
func (s *Store) RemoveFromQueue(index int) {
	s.mu.Lock()
	if !s.queue.Remove(index) {
		s.mu.Unlock()
		s.log.WithField("index", index).Debug("ignoring queue removal with out-of-range index")
		return
	}
	ev := QueueChange{Tracks: s.queue.Tracks()}
	s.mu.Unlock()
	s.broadcast([]func(*Subscription){func(sub *Subscription) { sub.sendQueue(ev) }})
}

// ClearQueue removes all pending tracks.
func (s *Store) ClearQueue() {
	s.mu.Lock()
	s.queue.Clear()
	ev := QueueChange{Tracks: s.queue.Tracks()}
	s.mu.Unlock()
	s.broadcast([]func(*Subscription){func(sub *Subscription) { sub.sendQueue(ev) }})
}

// MoveInQueue moves the track at fromIndex to toIndex as a single atomic
// transition. Out-of-range indexes are a no-op.
func (s *Store) MoveInQueue(fromIndex, toIndex int) {
	s.mu.Lock()
	if !s.queue.Move(fromIndex, toIndex) {
		s.mu.Unlock()
		s.log.WithFields(logrus.Fields{
			"from": fromIndex,
			"to":   toIndex,
		}).Debug("ignoring queue move with out-of-range index")
		return
	}
	ev := QueueChange{Tracks: s.queue.Tracks()}
	s.mu.Unlock()
	s.broadcast([]func(*Subscription){func(sub *Subscription) { sub.sendQueue(ev) }})
}

// ReorderQueue replaces the queue contents with the given tracks.
func (s *Store) ReorderQueue(tracks []catalog.Track) {
	s.mu.Lock()
	s.queue.Replace(tracks)
	ev := QueueChange{Tracks: s.queue.Tracks()}
	s.mu.Unlock()
	s.broadcast([]func(*Subscription){func(sub *Subscription) { sub.sendQueue(ev) }})
}

// StopAndClose fully resets the session to the empty state. This is the only
// transition that unbinds the current track.
func (s *Store) StopAndClose() {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.context = nil
	s.queue.Clear()
	s.playing = false
	s.progress = 0
	s.duration = 0
	s.visible = false
	s.fullscreen = false

	trackEv := TrackChange{Previous: prev, Current: nil, Playing: false}
	queueEv := QueueChange{Tracks: s.queue.Tracks()}
	viewEv := ViewChange{Visible: false, Fullscreen: false}
	s.mu.Unlock()
	s.broadcast([]func(*Subscription){
		func(sub *Subscription) { sub.sendTrack(trackEv) },
		func(sub *Subscription) { sub.sendQueue(queueEv) },
		func(sub *Subscription) { sub.sendView(viewEv) },
	})
}

// TogglePlayerVisibility shows or hides the player. Hiding is defined as
// stopping audio: the playing flag drops, progress rewinds, and fullscreen
// mode is left.
func (s *Store) TogglePlayerVisibility() {
	s.mu.Lock()
	var events []func(*Subscription)

	s.visible = !s.visible
	if !s.visible {
		s.fullscreen = false
		s.progress = 0
		progressEv := ProgressChange{Progress: 0}
		events = append(events, func(sub *Subscription) { sub.sendProgress(progressEv) })
		if s.playing {
			s.playing = false
			playingEv := PlayingChange{Playing: false}
			events = append(events, func(sub *Subscription) { sub.sendPlaying(playingEv) })
		}
	}
	viewEv := ViewChange{Visible: s.visible, Fullscreen: s.fullscreen}
	events = append(events, func(sub *Subscription) { sub.sendView(viewEv) })
	s.mu.Unlock()
	s.broadcast(events)
}

// ToggleFullscreen flips fullscreen mode. Entering fullscreen while the
// player is hidden also shows it.
func (s *Store) ToggleFullscreen() {
	s.mu.Lock()
	if !s.visible {
		s.visible = true
		s.fullscreen = true
	} else {
		s.fullscreen = !s.fullscreen
	}
	ev := ViewChange{Visible: s.visible, Fullscreen: s.fullscreen}
	s.mu.Unlock()
	s.broadcast([]func(*Subscription){func(sub *Subscription) { sub.sendView(ev) }})
}

// showPlayerLocked makes the player visible, returning the event to send.
// Caller holds s.mu.
func (s *Store) showPlayerLocked() []func(*Subscription) {
	if s.visible {
		return nil
	}
	s.visible = true
	ev := ViewChange{Visible: true, Fullscreen: s.fullscreen}
	return []func(*Subscription){func(sub *Subscription) { sub.sendView(ev) }}
}
