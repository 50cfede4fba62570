// Package session holds the playback session state and exposes the pure
// transition operations the player UI and the audio engine act on. The store
// never touches the audio device: it only mutates state and fans the changes
// out to subscribers.
package session

import (
	"time"

	"github.com/aguiarsc/groovy-player/internal/catalog"
)

// Session is an immutable snapshot of the playback state.
type Session struct {
	// CurrentTrack is the track bound to the audio device, or nil.
	CurrentTrack *catalog.Track
	// PlaylistContext is the playlist the queue was seeded from, if any.
	// It is only consulted to restart from the beginning once the queue
	// runs out, and for the previous-track lookup.
	PlaylistContext *catalog.Playlist
	// Queue is the ordered list of pending tracks. It never contains
	// CurrentTrack.
	Queue []catalog.Track
	// IsPlaying is the intended playback status. The device may lag behind
	// it while a stream is loading.
	IsPlaying bool
	// Volume is the playback volume in [0, 1].
	Volume float64
	// Progress is the last known playhead position. Advanced by device
	// time reports while playing, set directly by seeks, reset to zero on
	// track changes.
	Progress time.Duration
	// Duration is the length of CurrentTrack as reported by the device.
	Duration time.Duration
	// PlayerVisible and Fullscreen are UI modes. Hiding the player is
	// defined as stopping audio, so they live next to the audio state.
	PlayerVisible bool
	Fullscreen    bool
}

// HasNext returns true if Next() would land on another track, either from
// the queue or by restarting the playlist context.
func (s Session) HasNext() bool {
	return len(s.Queue) > 0 || !s.PlaylistContext.IsEmpty()
}
